package session

import "github.com/voxform/voxform/pkg/wire"

// pendingQueue holds inbound messages that arrive while playback is in
// flight. They are applied in receipt order once the playback completes,
// preserving the one-question-at-a-time contract.
type pendingQueue struct {
	items []wire.Message
}

func (q *pendingQueue) Push(m wire.Message) {
	q.items = append(q.items, m)
}

func (q *pendingQueue) Pop() (wire.Message, bool) {
	if len(q.items) == 0 {
		return wire.Message{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

func (q *pendingQueue) Len() int { return len(q.items) }

func (q *pendingQueue) Clear() { q.items = nil }
