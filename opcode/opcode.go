/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// Package opcode holds the single-byte vocabulary exchanged between the
// terminal node and the lock node. There is no envelope: every command and
// every notification is exactly one byte on the wire.
package opcode

import "fmt"

type Opcode byte

// Terminal -> Lock requests.
const (
	// TakeNewPassword asks the lock to receive and store a new password
	TakeNewPassword Opcode = '~'

	// TakeReEntered1..3 ask the lock to verify a re-entered password
	// during setup, attempt 1, 2 and 3
	TakeReEntered1 Opcode = '@'
	TakeReEntered2 Opcode = '%'
	TakeReEntered3 Opcode = '&'

	// TakeMainMenu1..3 ask the lock to verify a password entered after the
	// "open door" choice of the main menu, attempt 1, 2 and 3
	TakeMainMenu1 Opcode = '*'
	TakeMainMenu2 Opcode = ')'
	TakeMainMenu3 Opcode = '|'

	// OpenDoor and CloseDoor drive one phase of the door mechanism
	OpenDoor  Opcode = '['
	CloseDoor Opcode = ';'
)

// Lock -> Terminal notifications.
const (
	AskNewPassword  Opcode = '{'
	PasswordStored  Opcode = '!'
	AskReEnter1     Opcode = ':'
	AskReEnter2     Opcode = '$'
	AskReEnter3     Opcode = '^'
	AskMainMenu2    Opcode = '('
	AskMainMenu3    Opcode = '/'
	OpenMainMenu    Opcode = '#'
	DoorOpened      Opcode = '.'
	AlarmOn         Opcode = ']'
	PasswordCorrect Opcode = '>'
	PasswordWrong   Opcode = '<'

	// the door progress notifications reuse the request bytes
	DoorOpening = OpenDoor
	DoorClosing = CloseDoor
)

// Context tells which flow a verification round belongs to.
type Context int

const (
	Setup Context = iota
	MainMenu
)

func (c Context) String() string {
	switch c {
	case Setup:
		return "setup"
	case MainMenu:
		return "main-menu"
	default:
		return fmt.Sprintf("context(%d)", int(c))
	}
}

func (c Context) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// MaxAttempts is the number of verification rounds before the alarm.
const MaxAttempts = 3

func (o Opcode) String() string {
	switch o {
	case TakeNewPassword:
		return "take-new-password"
	case TakeReEntered1:
		return "take-re-entered-1"
	case TakeReEntered2:
		return "take-re-entered-2"
	case TakeReEntered3:
		return "take-re-entered-3"
	case TakeMainMenu1:
		return "take-main-menu-1"
	case TakeMainMenu2:
		return "take-main-menu-2"
	case TakeMainMenu3:
		return "take-main-menu-3"
	case OpenDoor:
		return "open-door"
	case CloseDoor:
		return "close-door"
	case AskNewPassword:
		return "ask-new-password"
	case PasswordStored:
		return "password-stored"
	case AskReEnter1:
		return "ask-re-enter-1"
	case AskReEnter2:
		return "ask-re-enter-2"
	case AskReEnter3:
		return "ask-re-enter-3"
	case AskMainMenu2:
		return "ask-main-menu-2"
	case AskMainMenu3:
		return "ask-main-menu-3"
	case OpenMainMenu:
		return "open-main-menu"
	case DoorOpened:
		return "door-opened"
	case AlarmOn:
		return "alarm-on"
	case PasswordCorrect:
		return "password-correct"
	case PasswordWrong:
		return "password-wrong"
	default:
		return fmt.Sprintf("opcode(0x%02x)", byte(o))
	}
}

// ParseRequest decodes a byte received by the lock node.
// The correct/wrong echoes are part of the request family.
func ParseRequest(b byte) (Opcode, bool) {
	switch o := Opcode(b); o {
	case TakeNewPassword,
		TakeReEntered1, TakeReEntered2, TakeReEntered3,
		TakeMainMenu1, TakeMainMenu2, TakeMainMenu3,
		OpenDoor, CloseDoor,
		PasswordCorrect, PasswordWrong:
		return o, true
	default:
		// unknown bytes are dropped by the caller, no error path
		return 0, false
	}
}

// ParseNotification decodes a byte received by the terminal node.
func ParseNotification(b byte) (Opcode, bool) {
	switch o := Opcode(b); o {
	case AskNewPassword, PasswordStored,
		AskReEnter1, AskReEnter2, AskReEnter3,
		AskMainMenu2, AskMainMenu3,
		OpenMainMenu,
		DoorOpening, DoorOpened, DoorClosing,
		AlarmOn,
		PasswordCorrect, PasswordWrong:
		return o, true
	default:
		return 0, false
	}
}

// Take returns the request that submits a password for the given round.
func Take(ctx Context, attempt int) (Opcode, bool) {
	switch ctx {
	case Setup:
		switch attempt {
		case 1:
			return TakeReEntered1, true
		case 2:
			return TakeReEntered2, true
		case 3:
			return TakeReEntered3, true
		}
	case MainMenu:
		switch attempt {
		case 1:
			return TakeMainMenu1, true
		case 2:
			return TakeMainMenu2, true
		case 3:
			return TakeMainMenu3, true
		}
	}
	return 0, false
}

// Round is the inverse of Take.
func Round(o Opcode) (ctx Context, attempt int, ok bool) {
	switch o {
	case TakeReEntered1:
		return Setup, 1, true
	case TakeReEntered2:
		return Setup, 2, true
	case TakeReEntered3:
		return Setup, 3, true
	case TakeMainMenu1:
		return MainMenu, 1, true
	case TakeMainMenu2:
		return MainMenu, 2, true
	case TakeMainMenu3:
		return MainMenu, 3, true
	}
	return 0, 0, false
}

// AskAgain returns the notification that asks for the given round.
// The first main menu round has no notification of its own: it starts from
// the "open door" menu choice.
func AskAgain(ctx Context, attempt int) (Opcode, bool) {
	switch ctx {
	case Setup:
		switch attempt {
		case 1:
			return AskReEnter1, true
		case 2:
			return AskReEnter2, true
		case 3:
			return AskReEnter3, true
		}
	case MainMenu:
		switch attempt {
		case 2:
			return AskMainMenu2, true
		case 3:
			return AskMainMenu3, true
		}
	}
	return 0, false
}

// Answer maps an ask notification to the request the terminal replies with.
func Answer(o Opcode) (Opcode, bool) {
	switch o {
	case AskNewPassword:
		return TakeNewPassword, true
	case PasswordStored, AskReEnter1:
		return TakeReEntered1, true
	case AskReEnter2:
		return TakeReEntered2, true
	case AskReEnter3:
		return TakeReEntered3, true
	case AskMainMenu2:
		return TakeMainMenu2, true
	case AskMainMenu3:
		return TakeMainMenu3, true
	}
	return 0, false
}
