/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package timer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Resolution is the length of one tick.
const Resolution = time.Millisecond

var ErrBusy = errors.New("timer: a delay is already pending")

// Handler is called by Poll, in the caller's goroutine, when the armed
// delay has completed.
type Handler interface {
	Expired()
}

type HandlerFunc func()

func (f HandlerFunc) Expired() { f() }

// Driver counts ticks up to a target and raises a flag.
// The tick goroutine touches nothing but the counter, the flag and the
// completion channel. One delay may be pending at a time.
type Driver struct {
	clock Clock

	mu      sync.Mutex
	gen     uint64
	armed   bool
	ticks   uint64
	target  uint64
	flag    bool
	pending Handler
	done    chan struct{}
	stop    chan struct{}
}

func NewDriver(c Clock) *Driver {
	if c == nil {
		c = Real()
	}
	return &Driver{clock: c}
}

// Start arms the driver for ms ticks. The returned channel is closed when
// the flag is raised. h may be nil.
func (d *Driver) Start(ms uint32, h Handler) (<-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed {
		return nil, ErrBusy
	}
	d.gen++
	d.armed = true
	d.ticks = 0
	d.target = uint64(ms)
	d.flag = false
	d.pending = h
	d.done = make(chan struct{})
	d.stop = make(chan struct{})

	if ms == 0 {
		d.flag = true
		close(d.done)
		return d.done, nil
	}
	go d.tick(d.clock.NewTicker(Resolution), d.gen, d.stop, d.done)
	return d.done, nil
}

func (d *Driver) tick(t Ticker, gen uint64, stop <-chan struct{}, done chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
		}
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.ticks++
		if d.ticks >= d.target {
			d.flag = true
			close(done)
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

// Poll reports whether the flag is raised. The first successful Poll runs
// the pending handler and disarms the driver.
func (d *Driver) Poll() bool {
	d.mu.Lock()
	if !d.armed || !d.flag {
		d.mu.Unlock()
		return false
	}
	h := d.pending
	d.pending = nil
	d.armed = false
	d.mu.Unlock()

	if h != nil {
		h.Expired()
	}
	return true
}

// Reset drops any pending delay without running its handler.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed && !d.flag {
		close(d.stop)
	}
	d.gen++
	d.armed = false
	d.flag = false
	d.ticks = 0
	d.pending = nil
}

// Elapsed is the tick count of the current or last delay.
func (d *Driver) Elapsed() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Duration(d.ticks) * Resolution
}

// Delay blocks until dur has elapsed on the driver's clock. ctx is only the
// shutdown path; a delay has no deadline of its own.
func (d *Driver) Delay(ctx context.Context, dur time.Duration) error {
	done, err := d.Start(uint32(dur/Resolution), nil)
	if err != nil {
		return err
	}
	select {
	case <-done:
		d.Poll()
		return nil
	case <-ctx.Done():
		d.Reset()
		return ctx.Err()
	}
}
