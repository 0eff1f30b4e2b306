/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package lock

import (
	"fmt"

	"github.com/gbatanov/zlock/opcode"
)

type State int

const (
	AwaitingFirstBoot State = iota
	AwaitingNewPassword
	AwaitingVerify
	Alarm
	DoorCycle
)

func (s State) String() string {
	switch s {
	case AwaitingFirstBoot:
		return "awaiting-first-boot"
	case AwaitingNewPassword:
		return "awaiting-new-password"
	case AwaitingVerify:
		return "awaiting-verify"
	case Alarm:
		return "alarm"
	case DoorCycle:
		return "door-cycle"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type DoorState int

const (
	Closed DoorState = iota
	Opening
	Open
	Closing
)

func (d DoorState) String() string {
	switch d {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("door(%d)", int(d))
}

func (d DoorState) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Status is a copy of the controller state, safe to hand to other goroutines.
type Status struct {
	State         State          `json:"state"`
	Attempt       int            `json:"attempt"`
	Context       opcode.Context `json:"context"`
	Door          DoorState      `json:"door"`
	HasCredential bool           `json:"has_credential"`
	Alarms        int            `json:"alarms"`
	DoorCycles    int            `json:"door_cycles"`
	LastEvent     *Event         `json:"last_event,omitempty"`
}
