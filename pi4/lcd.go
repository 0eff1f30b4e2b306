/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package pi4

import (
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// HD44780 commands, 8-bit bus
const (
	lcdClear      = 0x01
	lcdTwoLines8  = 0x38
	lcdDisplayOn  = 0x0C
	lcdSetDDRAM   = 0x80
	lcdRow1Offset = 0x40

	LCDCols = 16
	LCDRows = 2
)

// LCD is a 16x2 character display on an 8-bit parallel bus, write only.
type LCD struct {
	rs, e rpio.Pin
	data  [8]rpio.Pin
}

func LCDCreate(rs, e int, data [8]int) (*LCD, error) {
	if err := Open(); err != nil {
		return nil, err
	}
	l := &LCD{rs: rpio.Pin(rs), e: rpio.Pin(e)}
	l.rs.Output()
	l.e.Output()
	l.e.Low()
	for i, p := range data {
		l.data[i] = rpio.Pin(p)
		l.data[i].Output()
	}
	time.Sleep(20 * time.Millisecond)
	l.command(lcdTwoLines8)
	l.command(lcdDisplayOn)
	l.command(lcdClear)
	return l, nil
}

func (l *LCD) Clear() error {
	l.command(lcdClear)
	return nil
}

func (l *LCD) Text(s string) error {
	for i := 0; i < len(s); i++ {
		l.write(s[i], true)
	}
	return nil
}

func (l *LCD) TextAt(s string, row, col int) error {
	l.command(CursorAddr(row, col))
	return l.Text(s)
}

func (l *LCD) Close() error {
	l.command(lcdClear)
	return Close()
}

// CursorAddr is the set-DDRAM command for a position on the screen.
func CursorAddr(row, col int) byte {
	if col < 0 {
		col = 0
	}
	if col >= LCDCols {
		col = LCDCols - 1
	}
	addr := byte(col)
	if row > 0 {
		addr += lcdRow1Offset
	}
	return lcdSetDDRAM | addr
}

func (l *LCD) command(c byte) {
	l.write(c, false)
	if c == lcdClear {
		time.Sleep(2 * time.Millisecond)
	}
}

func (l *LCD) write(b byte, data bool) {
	if data {
		l.rs.High()
	} else {
		l.rs.Low()
	}
	for i := range l.data {
		if b&(1<<i) != 0 {
			l.data[i].High()
		} else {
			l.data[i].Low()
		}
	}
	l.e.High()
	time.Sleep(time.Microsecond)
	l.e.Low()
	time.Sleep(50 * time.Microsecond)
}
