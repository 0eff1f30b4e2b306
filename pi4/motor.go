/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package pi4

import (
	"github.com/rs/zerolog"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/gbatanov/zlock/actuator"
)

const (
	pwmCycle = 255
	pwmFreq  = 500 // Hz
)

// Motor drives an L293D/L298 bridge: IN1 and IN2 set the direction, EN
// carries the hardware PWM.
type Motor struct {
	in1, in2, en rpio.Pin
	log          zerolog.Logger
}

func MotorCreate(in1, in2, en int, log zerolog.Logger) (*Motor, error) {
	if err := Open(); err != nil {
		return nil, err
	}
	m := &Motor{in1: rpio.Pin(in1), in2: rpio.Pin(in2), en: rpio.Pin(en), log: log}
	m.in1.Output()
	m.in2.Output()
	m.in1.Low()
	m.in2.Low()
	m.en.Mode(rpio.Pwm)
	m.en.Freq(pwmFreq * pwmCycle)
	m.en.DutyCycle(0, pwmCycle)
	return m, nil
}

func (m *Motor) Rotate(dir actuator.Direction, speed uint8) error {
	m.en.DutyCycle(uint32(actuator.DutyCycle(speed)), pwmCycle)
	switch dir {
	case actuator.CW:
		m.in1.High()
		m.in2.Low()
	case actuator.CCW:
		m.in1.Low()
		m.in2.High()
	default:
		m.in1.Low()
		m.in2.Low()
	}
	m.log.Debug().Stringer("dir", dir).Uint8("speed", speed).Msg("motor")
	return nil
}

func (m *Motor) Release() error {
	m.en.DutyCycle(0, pwmCycle)
	return nil
}

func (m *Motor) Close() error {
	m.in1.Low()
	m.in2.Low()
	m.en.DutyCycle(0, pwmCycle)
	return Close()
}
