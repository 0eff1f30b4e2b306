/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package pi4

import rpio "github.com/stianeikeland/go-rpio/v4"

type Buzzer struct {
	pin rpio.Pin
}

func BuzzerCreate(pin int) (*Buzzer, error) {
	if err := Open(); err != nil {
		return nil, err
	}
	b := &Buzzer{pin: rpio.Pin(pin)}
	b.pin.Output()
	b.pin.Low()
	return b, nil
}

func (b *Buzzer) Set(on bool) error {
	if on {
		b.pin.High()
	} else {
		b.pin.Low()
	}
	return nil
}

func (b *Buzzer) Close() error {
	b.pin.Low()
	return Close()
}
