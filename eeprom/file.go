package eeprom

import (
	"bytes"
	"fmt"
	"os"
	"sync"
)

// FileStore keeps the memory image in a regular file.
// Every write is synced before it returns.
type FileStore struct {
	mu sync.Mutex
	fd *os.File
}

// OpenFile opens the image at path, creating an erased one when missing.
func OpenFile(path string) (*FileStore, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("eeprom: open image: %w", err)
	}
	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("eeprom: stat image: %w", err)
	}
	if st.Size() < Size {
		// дописываем до полного размера стертыми ячейками
		fill := bytes.Repeat([]byte{Erased}, int(Size-st.Size()))
		if _, err := fd.WriteAt(fill, st.Size()); err != nil {
			fd.Close()
			return nil, fmt.Errorf("eeprom: format image: %w", err)
		}
		if err := fd.Sync(); err != nil {
			fd.Close()
			return nil, fmt.Errorf("eeprom: format image: %w", err)
		}
	}
	return &FileStore{fd: fd}, nil
}

func (f *FileStore) ReadCell(addr uint16) (byte, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b := make([]byte, 1)
	if _, err := f.fd.ReadAt(b, int64(addr)); err != nil {
		return 0, fmt.Errorf("eeprom: read 0x%03X: %w", addr, err)
	}
	return b[0], nil
}

func (f *FileStore) WriteCell(addr uint16, v byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.fd.WriteAt([]byte{v}, int64(addr)); err != nil {
		return fmt.Errorf("eeprom: write 0x%03X: %w", addr, err)
	}
	if err := f.fd.Sync(); err != nil {
		return fmt.Errorf("eeprom: sync 0x%03X: %w", addr, err)
	}
	return nil
}

func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fd.Close()
}
