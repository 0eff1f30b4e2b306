/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package actuator

import "fmt"

type Direction uint8

const (
	Stop Direction = iota
	CW
	CCW
)

func (d Direction) String() string {
	switch d {
	case Stop:
		return "stop"
	case CW:
		return "cw"
	case CCW:
		return "ccw"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Motor is an H-bridge driven DC motor.
type Motor interface {
	// Rotate sets the direction and speed in percent (0..100).
	Rotate(dir Direction, speed uint8) error
	// Release stops the PWM output.
	Release() error
}

type Buzzer interface {
	Set(on bool) error
}

// DutyCycle converts a speed percentage to an 8-bit PWM compare value.
func DutyCycle(speed uint8) uint8 {
	if speed > 100 {
		speed = 100
	}
	return uint8(uint16(speed) * 255 / 100)
}
