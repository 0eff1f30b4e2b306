/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package serial3

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// Both controllers run the link at 19200 8N1, the modem at 9600.
const DefaultBaud = 19200

// readPoll is only the driver read timeout: ReceiveByte keeps polling until
// a byte arrives or the port is stopped.
const readPoll = time.Second * 3

// UART on top of tarm/serial
type Uart struct {
	port       string
	baud       int
	comport    *serial.Port
	flag       atomic.Bool
	portOpened bool
	log        zerolog.Logger
}

func UartCreate(port string, baud int, logger zerolog.Logger) *Uart {
	if baud == 0 {
		baud = DefaultBaud
	}
	uart := Uart{port: port, baud: baud, log: logger}
	return &uart
}

func (u *Uart) Open() error {
	comport, err := u.openPort()
	if err != nil {
		u.log.Error().Err(err).Str("port", u.port).Msg("open com port")
		return err
	}
	u.comport = comport
	u.portOpened = true
	u.flag.Store(true)
	u.log.Info().Str("port", u.port).Int("baud", u.baud).Msg("com port opened")
	return nil
}

// Opening the given port, 8 data bits, no parity, one stop bit
func (u *Uart) openPort() (*serial.Port, error) {
	c := &serial.Config{
		Name:        u.port,
		Baud:        u.baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: readPoll}
	return serial.OpenPort(c)
}

func (u *Uart) Stop() {
	if u.portOpened {
		u.flag.Store(false)
		u.comport.Flush()
		u.comport.Close()
		u.portOpened = false
		u.log.Info().Str("port", u.port).Msg("comport closed")
	}
}

// write a sequence of bytes to serial port
func (u *Uart) Write(text []byte) error {
	if !u.flag.Load() {
		return ErrClosed
	}
	n, err := u.comport.Write(text)
	if err != nil {
		return err
	}
	if n != len(text) {
		return errors.New("serial3: short write")
	}
	return nil
}

func (u *Uart) SendByte(b byte) error {
	return u.Write([]byte{b})
}

// ReceiveByte blocks until one byte arrives. The driver timeout only wakes
// the loop up to look at the stop flag.
func (u *Uart) ReceiveByte() (byte, error) {
	buf := make([]byte, 1)
	for u.flag.Load() {
		n, err := u.comport.Read(buf)
		if n == 1 {
			return buf[0], nil
		}
		if err != nil && err != io.EOF {
			if !u.flag.Load() {
				break
			}
			return 0, err
		}
	}
	return 0, ErrClosed
}

// Loop delivers raw chunks to cmdinput until the port is stopped.
// Used by line oriented peers such as the GSM modem.
func (u *Uart) Loop(cmdinput chan []byte) {
	for u.flag.Load() {
		BufRead := make([]byte, 256)
		n, err := u.comport.Read(BufRead)
		if n > 0 {
			cmdinput <- BufRead[:n]
			continue
		}
		if err != nil && err != io.EOF {
			u.log.Error().Err(err).Str("port", u.port).Msg("read loop stopped")
			u.flag.Store(false)
			return
		}
	}
}
