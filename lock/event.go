package lock

import (
	"fmt"
	"time"

	"github.com/gbatanov/zlock/opcode"
)

type EventKind int

const (
	Booted EventKind = iota
	CredentialStored
	StoreFailed
	VerifySucceeded
	VerifyFailed
	AlarmRaised
	AlarmCleared
	DoorOpening
	DoorOpened
	DoorClosing
	DoorClosed
)

var eventNames = [...]string{
	Booted:           "booted",
	CredentialStored: "credential-stored",
	StoreFailed:      "store-failed",
	VerifySucceeded:  "verify-succeeded",
	VerifyFailed:     "verify-failed",
	AlarmRaised:      "alarm-raised",
	AlarmCleared:     "alarm-cleared",
	DoorOpening:      "door-opening",
	DoorOpened:       "door-opened",
	DoorClosing:      "door-closing",
	DoorClosed:       "door-closed",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type Event struct {
	Kind    EventKind      `json:"kind"`
	Time    time.Time      `json:"time"`
	Attempt int            `json:"attempt,omitempty"`
	Context opcode.Context `json:"context"`
	Err     error          `json:"-"`
}

// Listener receives every event in the controller goroutine.
// Implementations must not block; slow work goes to their own queue.
type Listener interface {
	LockEvent(e Event)
}

type ListenerFunc func(e Event)

func (f ListenerFunc) LockEvent(e Event) { f(e) }
