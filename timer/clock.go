/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package timer

import "time"

// Clock is the tick source of a Driver. Real() is used on hardware and
// Instant() in tests and in the fast simulator.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Instant returns a clock whose tickers are always ready, so a delay of any
// length costs only as many loop iterations as it has ticks.
func Instant() Clock { return instantClock{} }

var alwaysReady = func() chan time.Time {
	c := make(chan time.Time)
	close(c)
	return c
}()

type instantClock struct{}

func (instantClock) Now() time.Time                  { return time.Now() }
func (instantClock) NewTicker(time.Duration) Ticker { return instantTicker{} }

type instantTicker struct{}

func (instantTicker) C() <-chan time.Time { return alwaysReady }
func (instantTicker) Stop()               {}
