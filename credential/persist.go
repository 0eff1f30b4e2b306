/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package credential

import (
	"errors"
	"fmt"

	"github.com/gbatanov/zlock/eeprom"
)

// ErrCorrupt means the flag says "stored" but the rest of the record is not
// readable as a credential. This is what a power loss between the flag write
// and the length write leaves behind.
var ErrCorrupt = errors.New("credential: stored record is corrupt")

// State is the persisted view of the lock node.
type State struct {
	HasCredential bool
	Credential    Credential
}

// Load reads the flag and, when set, the stored length and bytes.
func Load(s eeprom.Store) (State, error) {
	flag, err := s.ReadCell(eeprom.FlagAddr)
	if err != nil {
		return State{}, fmt.Errorf("read flag: %w", err)
	}
	if flag == eeprom.FlagUnset {
		return State{}, nil
	}

	n, err := s.ReadCell(eeprom.LenAddr)
	if err != nil {
		return State{}, fmt.Errorf("read length: %w", err)
	}
	if int(n) > MaxLen {
		return State{}, fmt.Errorf("%w: length %d", ErrCorrupt, n)
	}

	buf := make([]byte, n)
	for i := range buf {
		v, err := s.ReadCell(eeprom.DataAddr + uint16(i))
		if err != nil {
			return State{}, fmt.Errorf("read byte %d: %w", i, err)
		}
		buf[i] = v
	}
	c, _ := New(buf)
	return State{HasCredential: true, Credential: c}, nil
}

// Save writes the flag, then the bytes, then the length, one cell at a time.
// There is no rollback: a failure leaves whatever was already written.
func Save(s eeprom.Store, c Credential) error {
	if err := s.WriteCell(eeprom.FlagAddr, eeprom.FlagSet); err != nil {
		return fmt.Errorf("write flag: %w", err)
	}
	for i := 0; i < c.n; i++ {
		if err := s.WriteCell(eeprom.DataAddr+uint16(i), c.buf[i]); err != nil {
			return fmt.Errorf("write byte %d: %w", i, err)
		}
	}
	if err := s.WriteCell(eeprom.LenAddr, byte(c.n)); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	return nil
}

// Erase puts the store back to the first boot state.
func Erase(s eeprom.Store) error {
	if err := s.WriteCell(eeprom.FlagAddr, eeprom.FlagUnset); err != nil {
		return fmt.Errorf("erase flag: %w", err)
	}
	if err := s.WriteCell(eeprom.LenAddr, eeprom.Erased); err != nil {
		return fmt.Errorf("erase length: %w", err)
	}
	return nil
}
