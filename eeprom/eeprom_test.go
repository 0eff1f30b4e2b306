package eeprom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemStoreErased(t *testing.T) {
	m := NewMemStore()
	for _, addr := range []uint16{0, FlagAddr, LenAddr, DataAddr, Size - 1} {
		v, err := m.ReadCell(addr)
		if err != nil {
			t.Fatalf("ReadCell(0x%03X): %v", addr, err)
		}
		if v != Erased {
			t.Errorf("cell 0x%03X = 0x%02X, want erased", addr, v)
		}
	}
}

func TestMemStoreFaults(t *testing.T) {
	m := NewMemStore()
	boom := errors.New("nack")

	m.FailWrite(LenAddr, boom)
	if err := m.WriteCell(FlagAddr, FlagSet); err != nil {
		t.Fatalf("WriteCell flag: %v", err)
	}
	if err := m.WriteCell(LenAddr, 3); !errors.Is(err, boom) {
		t.Fatalf("want injected error, got %v", err)
	}
	if v, _ := m.ReadCell(LenAddr); v != Erased {
		t.Errorf("failed write must not change the cell, got 0x%02X", v)
	}
	if w := m.Writes(); len(w) != 1 || w[0] != FlagAddr {
		t.Errorf("Writes() = %v", w)
	}

	m.FailRead(FlagAddr, boom)
	if _, err := m.ReadCell(FlagAddr); !errors.Is(err, boom) {
		t.Errorf("want injected read error, got %v", err)
	}
	m.FailRead(FlagAddr, nil)
	if v, err := m.ReadCell(FlagAddr); err != nil || v != FlagSet {
		t.Errorf("ReadCell after clearing fault = 0x%02X, %v", v, err)
	}
}

func TestAddressRange(t *testing.T) {
	m := NewMemStore()
	var ae *AddressError
	if _, err := m.ReadCell(Size); !errors.As(err, &ae) || ae.Addr != Size {
		t.Errorf("ReadCell(Size) err = %v", err)
	}
	if err := m.WriteCell(0xFFFF, 1); !errors.As(err, &ae) {
		t.Errorf("WriteCell(0xFFFF) err = %v", err)
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if v, err := f.ReadCell(FlagAddr); err != nil || v != FlagUnset {
		t.Fatalf("fresh image flag = 0x%02X, %v", v, err)
	}
	if err := f.WriteCell(DataAddr, 9); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() != Size {
		t.Errorf("image size = %d, want %d", st.Size(), Size)
	}

	f, err = OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	if v, err := f.ReadCell(DataAddr); err != nil || v != 9 {
		t.Errorf("after reopen cell = %d, %v", v, err)
	}
}
