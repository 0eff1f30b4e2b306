/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package serial3

import (
	"errors"
	"fmt"
)

// Terminator closes every string put on the link. It is never part of the payload.
const Terminator byte = '#'

var ErrClosed = errors.New("serial3: link closed")

// Link is the point-to-point byte channel between the two controllers.
// Both calls block without a timeout; they return only with a byte or when
// the link is closed.
type Link interface {
	SendByte(b byte) error
	ReceiveByte() (byte, error)
}

// OverflowError reports a string longer than the receiver accepts.
// The whole string, terminator included, has already been consumed.
type OverflowError struct {
	Max int
	Got int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("serial3: string of %d bytes exceeds %d", e.Got, e.Max)
}

// SendString writes s byte by byte and appends the terminator.
func SendString(l Link, s []byte) error {
	for _, b := range s {
		if b == Terminator {
			return fmt.Errorf("serial3: terminator inside payload")
		}
	}
	for _, b := range s {
		if err := l.SendByte(b); err != nil {
			return err
		}
	}
	return l.SendByte(Terminator)
}

// ReceiveString reads bytes up to the terminator and returns them without it.
// When more than max bytes arrive the rest is drained and an *OverflowError
// is returned, so the link stays aligned on the next opcode.
func ReceiveString(l Link, max int) ([]byte, error) {
	buf := make([]byte, 0, max)
	got := 0
	for {
		b, err := l.ReceiveByte()
		if err != nil {
			return nil, err
		}
		if b == Terminator {
			break
		}
		got++
		if got <= max {
			buf = append(buf, b)
		}
	}
	if got > max {
		return nil, &OverflowError{Max: max, Got: got}
	}
	return buf, nil
}
