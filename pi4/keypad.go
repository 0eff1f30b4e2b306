/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package pi4

import (
	"errors"
	"sync/atomic"
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

const (
	keypadRows = 4
	keypadCols = 4

	scanInterval = 10 * time.Millisecond
	debounce     = 30 * time.Millisecond
)

var ErrKeypadClosed = errors.New("pi4: keypad closed")

// Keypad scans a 4x4 membrane matrix. Rows are inputs with pull-ups, one
// column at a time is driven low, a pressed key reads low.
type Keypad struct {
	rows   [keypadRows]rpio.Pin
	cols   [keypadCols]rpio.Pin
	closed atomic.Bool
}

func KeypadCreate(rows [keypadRows]int, cols [keypadCols]int) (*Keypad, error) {
	if err := Open(); err != nil {
		return nil, err
	}
	k := &Keypad{}
	for i, p := range rows {
		k.rows[i] = rpio.Pin(p)
		k.rows[i].Input()
		k.rows[i].PullUp()
	}
	for i, p := range cols {
		k.cols[i] = rpio.Pin(p)
		k.cols[i].Output()
		k.cols[i].High()
	}
	return k, nil
}

// ReadKey blocks until a key is pressed and released.
func (k *Keypad) ReadKey() (byte, error) {
	for !k.closed.Load() {
		if row, col, ok := k.scan(); ok {
			time.Sleep(debounce)
			for k.pressed(row, col) && !k.closed.Load() {
				time.Sleep(scanInterval)
			}
			return KeyAt(row*keypadCols + col + 1), nil
		}
		time.Sleep(scanInterval)
	}
	return 0, ErrKeypadClosed
}

func (k *Keypad) scan() (int, int, bool) {
	for c := range k.cols {
		if r, ok := k.scanCol(c); ok {
			return r, c, true
		}
	}
	return 0, 0, false
}

func (k *Keypad) scanCol(c int) (int, bool) {
	k.cols[c].Low()
	defer k.cols[c].High()
	for r := range k.rows {
		if k.rows[r].Read() == rpio.Low {
			return r, true
		}
	}
	return 0, false
}

func (k *Keypad) pressed(row, col int) bool {
	k.cols[col].Low()
	defer k.cols[col].High()
	return k.rows[row].Read() == rpio.Low
}

func (k *Keypad) Close() error {
	if k.closed.Swap(true) {
		return nil
	}
	return Close()
}

// keymap follows the printed legend of the 4x4 pad, buttons numbered row by
// row from 1. Digits are their numeric value, Enter is 13.
var keymap = [keypadRows*keypadCols + 1]byte{
	1: 7, 2: 8, 3: 9, 4: '%',
	5: 4, 6: 5, 7: 6, 8: 'x',
	9: 1, 10: 2, 11: 3, 12: '-',
	13: 13, 14: 0, 15: '=', 16: '+',
}

// KeyAt converts a button number (1..16) to the key value.
func KeyAt(button int) byte {
	if button < 1 || button >= len(keymap) {
		return 0
	}
	return keymap[button]
}
