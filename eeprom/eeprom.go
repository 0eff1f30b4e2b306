/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// Package eeprom is the byte addressable persistent memory of the lock node.
// The layout follows the 24C16 chip of the first hardware revision.
package eeprom

import "fmt"

const (
	// Size of a 24C16 in bytes
	Size = 2048

	// Erased is the value of a cell that was never written
	Erased byte = 0xFF

	// FlagAddr holds the "credential present" flag
	FlagAddr uint16 = 0x0C8
	// LenAddr holds the credential length
	LenAddr uint16 = 0x1F4
	// DataAddr is the first byte of the credential region
	DataAddr uint16 = 0x3E8

	// FlagUnset is an erased flag cell: the first boot
	FlagUnset byte = Erased
	// FlagSet marks a stored credential
	FlagSet byte = 0x00
)

// Store is a fallible byte store. Every call touches exactly one cell.
type Store interface {
	ReadCell(addr uint16) (byte, error)
	WriteCell(addr uint16, v byte) error
}

type AddressError struct {
	Addr uint16
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("eeprom: address 0x%03X out of range 0x000-0x%03X", e.Addr, Size-1)
}

func checkAddr(addr uint16) error {
	if int(addr) >= Size {
		return &AddressError{Addr: addr}
	}
	return nil
}
