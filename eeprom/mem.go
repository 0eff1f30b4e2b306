package eeprom

import "sync"

// MemStore is a volatile Store. Faults can be injected per address, which
// is how the partial commit window is exercised in tests and in the simulator.
type MemStore struct {
	mu       sync.Mutex
	cells    [Size]byte
	readErr  map[uint16]error
	writeErr map[uint16]error
	writes   []uint16
}

func NewMemStore() *MemStore {
	m := &MemStore{
		readErr:  map[uint16]error{},
		writeErr: map[uint16]error{},
	}
	for i := range m.cells {
		m.cells[i] = Erased
	}
	return m
}

func (m *MemStore) ReadCell(addr uint16) (byte, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[addr]; err != nil {
		return 0, err
	}
	return m.cells[addr], nil
}

func (m *MemStore) WriteCell(addr uint16, v byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr[addr]; err != nil {
		return err
	}
	m.cells[addr] = v
	m.writes = append(m.writes, addr)
	return nil
}

// FailRead makes reads of addr return err; nil clears the fault.
func (m *MemStore) FailRead(addr uint16, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr[addr] = err
}

// FailWrite makes writes of addr return err; nil clears the fault.
func (m *MemStore) FailWrite(addr uint16, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr[addr] = err
}

// Writes returns the addresses of successful writes in order.
func (m *MemStore) Writes() []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint16(nil), m.writes...)
}
