/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// Package console stands in for the keypad and the LCD on a developer's
// terminal.
package console

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

var ErrInterrupted = errors.New("console: interrupted")

// Keypad reads single keystrokes. When the input is a terminal it is put in
// raw mode until Close.
type Keypad struct {
	r     io.Reader
	fd    int
	saved *term.State
}

func NewKeypad(r io.Reader) *Keypad {
	return &Keypad{r: r, fd: -1}
}

// OpenKeypad switches f to raw mode when it is a terminal.
func OpenKeypad(f *os.File) (*Keypad, error) {
	k := NewKeypad(f)
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		st, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		k.fd = fd
		k.saved = st
	}
	return k, nil
}

// ReadKey returns the next key the lock keypad also has. Other keystrokes
// are skipped; Ctrl-C and Ctrl-D end the input.
func (k *Keypad) ReadKey() (byte, error) {
	var buf [1]byte
	for {
		n, err := k.r.Read(buf[:])
		if n == 1 {
			if buf[0] == 0x03 || buf[0] == 0x04 {
				return 0, ErrInterrupted
			}
			if key, ok := TranslateKey(buf[0]); ok {
				return key, nil
			}
		}
		if err != nil {
			return 0, err
		}
	}
}

func (k *Keypad) Close() error {
	if k.saved == nil {
		return nil
	}
	st := k.saved
	k.saved = nil
	return term.Restore(k.fd, st)
}

// TranslateKey maps a keystroke to the value the hardware keypad produces.
func TranslateKey(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c == '\r' || c == '\n':
		return 13, true
	}
	switch c {
	case '+', '-', '%', 'x', '=':
		return c, true
	case '*':
		return 'x', true
	}
	return 0, false
}
