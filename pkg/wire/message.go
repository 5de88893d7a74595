// Package wire defines the JSON envelope exchanged with the realtime
// conversational backend. Every message carries a type tag; payload fields
// are type-specific and omitted when empty.
package wire

import (
	"encoding/json"
	"errors"
)

type Type string

// Outbound message types.
const (
	TypeItemCreate  Type = "conversation.item.create"
	TypeAudioAppend Type = "input_audio_buffer.append"
	TypeAudioCommit Type = "input_audio_buffer.commit"
	TypeAudioClear  Type = "input_audio_buffer.clear"
)

// Inbound message types.
const (
	TypeSessionUpdate  Type = "session.update"
	TypeResponseCreate Type = "response.create"
	TypeResponseChunk  Type = "response.chunk"
	TypeAudioChunk     Type = "audio.chunk"
	TypeError          Type = "error"
)

// Session statuses carried by session.update.
const (
	StatusGenerating    = "generating"
	StatusAwaitingInput = "awaiting_input"
)

// Item is the conversational item payload for conversation.item.create.
type Item struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorDetail is the nested payload of an inbound error message.
type ErrorDetail struct {
	Message string `json:"message"`
}

// Message is the wire envelope. Exactly the fields relevant to Type are
// populated; the rest stay zero and are dropped from the JSON encoding.
type Message struct {
	Type Type `json:"type"`

	// conversation.item.create
	Item *Item `json:"item,omitempty"`

	// input_audio_buffer.append and audio.chunk
	Data       string `json:"data,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Format     string `json:"format,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`

	// session.update
	Status string `json:"status,omitempty"`

	// response.chunk
	Delta string `json:"delta,omitempty"`
	Final bool   `json:"final,omitempty"`

	// error
	Err *ErrorDetail `json:"error,omitempty"`
}

// Known reports whether the type tag is one this client understands.
// Unknown inbound types are logged and skipped, never fatal.
func (m Message) Known() bool {
	switch m.Type {
	case TypeItemCreate, TypeAudioAppend, TypeAudioCommit, TypeAudioClear,
		TypeSessionUpdate, TypeResponseCreate, TypeResponseChunk,
		TypeAudioChunk, TypeError:
		return true
	}
	return false
}

// ErrMissingType is returned by Parse for envelopes without a type tag.
var ErrMissingType = errors.New("wire: message has no type tag")

// Parse decodes a raw inbound frame. An unrecognized type tag is not an
// error; callers check Known.
func Parse(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, err
	}
	if m.Type == "" {
		return Message{}, ErrMissingType
	}
	return m, nil
}

// Marshal encodes a message for the wire.
func Marshal(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// ItemCreate builds a conversation.item.create message.
func ItemCreate(id, role, content string) Message {
	return Message{Type: TypeItemCreate, Item: &Item{ID: id, Role: role, Content: content}}
}

// AudioAppend builds an input_audio_buffer.append message carrying one
// encoded capture chunk.
func AudioAppend(data, encoding, format string, sampleRate int) Message {
	return Message{
		Type:       TypeAudioAppend,
		Data:       data,
		Encoding:   encoding,
		Format:     format,
		SampleRate: sampleRate,
	}
}

// AudioCommit builds an input_audio_buffer.commit message.
func AudioCommit() Message {
	return Message{Type: TypeAudioCommit}
}

// AudioClear builds an input_audio_buffer.clear message.
func AudioClear() Message {
	return Message{Type: TypeAudioClear}
}
