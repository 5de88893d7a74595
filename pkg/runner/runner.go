// Package runner owns process lifecycle for the voice form client:
// startup banner, phased state, and a bounded drain on shutdown so a
// stuck session cannot hold the process open forever.
package runner

import (
	"bytes"
	"io"

	"github.com/dimiro1/banner"
)

// Version is stamped at build time.
var Version = "dev"

// Phase is the coarse process state, advanced only by Lifecycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseServing
	PhaseDraining
	PhaseHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseServing:
		return "serving"
	case PhaseDraining:
		return "draining"
	case PhaseHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Drainer is anything that must finish cleanly before the process exits.
// The engine implements it by closing its session and flushing artifacts.
type Drainer interface {
	Drain() error
}

// Hooks observe lifecycle edges. OnServing fires once the process is up;
// OnHalted fires after the drain completes, with its outcome.
type Hooks struct {
	OnServing func()
	OnHalted  func(err error)
}

// PrintBanner writes the startup banner.
func PrintBanner(w io.Writer) {
	tpl := "{{ .Title \"VOXFORM\" \"\" 0 }}\nversion " + Version + "\n"
	banner.Init(w, true, true, bytes.NewBufferString(tpl))
}
