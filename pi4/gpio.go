/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package pi4

import (
	"sync"

	"github.com/rs/zerolog"
	rpio "github.com/stianeikeland/go-rpio/v4"
)

var (
	mu     sync.Mutex
	opened int
)

// Probe reports whether the GPIO block can be mapped on this host.
func Probe(log zerolog.Logger) bool {
	if err := rpio.Open(); err != nil {
		log.Info().Err(err).Msg("GPIO isn't present")
		return false
	}
	rpio.Close()
	return true
}

// Open maps the GPIO block. Every driver calls it once and calls Close when
// done; the block is unmapped with the last Close.
func Open() error {
	mu.Lock()
	defer mu.Unlock()
	if opened == 0 {
		if err := rpio.Open(); err != nil {
			return err
		}
	}
	opened++
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if opened == 0 {
		return nil
	}
	opened--
	if opened == 0 {
		return rpio.Close()
	}
	return nil
}
