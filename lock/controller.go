/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// Package lock is the lock node: it owns the stored password, counts failed
// rounds, raises the alarm and drives the door motor. It only ever reacts to
// requests arriving over the serial link.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/actuator"
	"github.com/gbatanov/zlock/credential"
	"github.com/gbatanov/zlock/eeprom"
	"github.com/gbatanov/zlock/opcode"
	"github.com/gbatanov/zlock/serial3"
	"github.com/gbatanov/zlock/timer"
)

const (
	MotorSpeed uint8 = 75

	DoorOpenTime  = 15 * time.Second
	DoorHoldTime  = 3 * time.Second
	DoorCloseTime = 15 * time.Second
	AlarmTime     = 60 * time.Second

	// BootRetryInterval is the pause between failed reads of the store at boot.
	BootRetryInterval = 5 * time.Second
)

// Delayer blocks for d. The context is cancelled only on shutdown.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithListener adds a receiver of lock events. May be given several times.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, l) }
}

func WithDelayer(d Delayer) Option {
	return func(c *Controller) { c.delay = d }
}

// WithClock sets the clock used to stamp events.
func WithClock(clk timer.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithManualDoor enables the open-door and close-door requests inside an
// authenticated main menu session.
func WithManualDoor(on bool) Option {
	return func(c *Controller) { c.manualDoor = on }
}

type Controller struct {
	link   serial3.Link
	store  eeprom.Store
	motor  actuator.Motor
	buzzer actuator.Buzzer

	delay      Delayer
	clock      timer.Clock
	log        zerolog.Logger
	listeners  []Listener
	manualDoor bool

	// owned by the Run goroutine
	cred    credential.Credential
	hasCred bool
	state   State
	attempt int
	round   opcode.Context
	door    DoorState

	mu     sync.Mutex
	status Status
}

func New(link serial3.Link, store eeprom.Store, motor actuator.Motor, buzzer actuator.Buzzer, opts ...Option) *Controller {
	c := &Controller{
		link:   link,
		store:  store,
		motor:  motor,
		buzzer: buzzer,
		log:    zerolog.Nop(),
		state:  AwaitingFirstBoot,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = timer.Real()
	}
	if c.delay == nil {
		c.delay = timer.NewDriver(c.clock)
	}
	c.log = c.log.With().Str("component", "lock").Logger()
	c.publish()
	return c
}

// Status returns a snapshot of the controller. Safe for concurrent use.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	if st.LastEvent != nil {
		e := *st.LastEvent
		st.LastEvent = &e
	}
	return st
}

// Run boots the controller and serves requests until the link fails or is
// closed. Closing the link is the way to stop it.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.boot(ctx); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := c.link.ReceiveByte()
		if err != nil {
			return err
		}
		if err := c.handle(ctx, b); err != nil {
			return err
		}
	}
}

func (c *Controller) boot(ctx context.Context) error {
	var st credential.State
	for {
		var err error
		st, err = credential.Load(c.store)
		if err == nil {
			break
		}
		serr := &StoreError{Op: "load", Err: err}
		c.emit(StoreFailed, serr)
		if errors.Is(err, credential.ErrCorrupt) {
			c.log.Error().Err(err).Msg("stored credential is corrupt, erase the store to re-provision")
			return serr
		}
		c.log.Error().Err(err).Dur("retry", BootRetryInterval).Msg("credential store unreadable")
		if err := c.delay.Delay(ctx, BootRetryInterval); err != nil {
			return err
		}
	}

	c.cred = st.Credential
	c.hasCred = st.HasCredential
	c.emit(Booted, nil)

	if !c.hasCred {
		c.log.Info().Msg("first boot, asking for a new password")
		c.setState(AwaitingNewPassword)
		return c.send(opcode.AskNewPassword)
	}
	c.log.Info().Msg("password loaded")
	c.enterVerify(1, opcode.Setup)
	return c.send(opcode.AskReEnter1)
}

// handle dispatches one request byte.
func (c *Controller) handle(ctx context.Context, b byte) error {
	op, ok := opcode.ParseRequest(b)
	if !ok {
		c.log.Debug().Msgf("ignored byte 0x%02x", b)
		return nil
	}

	switch op {
	case opcode.TakeNewPassword:
		if c.state == AwaitingNewPassword || c.inSession() {
			return c.takeNewPassword()
		}
	case opcode.TakeReEntered1, opcode.TakeReEntered2, opcode.TakeReEntered3,
		opcode.TakeMainMenu1, opcode.TakeMainMenu2, opcode.TakeMainMenu3:
		round, _, _ := opcode.Round(op)
		if c.state == AwaitingVerify && c.round == round {
			return c.takeCandidate(ctx)
		}
	case opcode.OpenDoor:
		if c.manualDoor && c.inSession() && c.door == Closed {
			c.setState(DoorCycle)
			if err := c.openPhase(ctx); err != nil {
				return err
			}
			if err := c.holdPhase(ctx); err != nil {
				return err
			}
			c.setState(AwaitingVerify)
			return nil
		}
	case opcode.CloseDoor:
		if c.manualDoor && c.inSession() && c.door == Open {
			c.setState(DoorCycle)
			if err := c.closePhase(ctx); err != nil {
				return err
			}
			c.enterVerify(1, opcode.MainMenu)
			return c.send(opcode.OpenMainMenu)
		}
	case opcode.PasswordCorrect, opcode.PasswordWrong:
		// echo outside of a handshake
	default:
		// not a request; nothing to do
	}
	c.log.Debug().Stringer("op", op).Stringer("state", c.state).Msg("request not accepted in this state")
	return nil
}

// inSession is the main menu before any failed round.
func (c *Controller) inSession() bool {
	return c.state == AwaitingVerify && c.round == opcode.MainMenu && c.attempt == 1
}

func (c *Controller) takeNewPassword() error {
	s, err := serial3.ReceiveString(c.link, credential.MaxLen)
	var ov *serial3.OverflowError
	switch {
	case errors.As(err, &ov):
		c.log.Warn().Int("len", ov.Got).Msg("new password too long")
		return c.askNewAgain()
	case err != nil:
		return err
	case len(s) == 0:
		c.log.Warn().Err(credential.ErrEmpty).Msg("new password rejected")
		return c.askNewAgain()
	}

	cr, err := credential.New(s)
	if err != nil {
		return c.askNewAgain()
	}
	if err := credential.Save(c.store, cr); err != nil {
		serr := &StoreError{Op: "save", Err: err}
		c.log.Error().Err(serr).Msg("password not stored")
		c.emit(StoreFailed, serr)
		return c.askNewAgain()
	}

	c.cred = cr
	c.hasCred = true
	c.log.Info().Int("len", cr.Len()).Msg("new password stored")
	c.emit(CredentialStored, nil)
	if err := c.send(opcode.PasswordStored); err != nil {
		return err
	}
	c.enterVerify(1, opcode.Setup)
	return nil
}

func (c *Controller) askNewAgain() error {
	c.setState(AwaitingNewPassword)
	return c.send(opcode.AskNewPassword)
}

// takeCandidate receives a password and runs one verification round.
func (c *Controller) takeCandidate(ctx context.Context) error {
	s, err := serial3.ReceiveString(c.link, credential.MaxLen)
	var ov *serial3.OverflowError
	match := false
	switch {
	case errors.As(err, &ov):
		c.log.Warn().Int("len", ov.Got).Msg("candidate too long")
	case err != nil:
		return err
	default:
		match = c.hasCred && c.cred.Matches(s)
	}

	if match {
		c.log.Info().Stringer("context", c.round).Int("attempt", c.attempt).Msg("password accepted")
		c.emit(VerifySucceeded, nil)
		if c.round == opcode.MainMenu {
			return c.doorCycle(ctx)
		}
		if err := c.handshake(opcode.PasswordCorrect); err != nil {
			return err
		}
		c.enterVerify(1, opcode.MainMenu)
		return c.send(opcode.OpenMainMenu)
	}

	c.log.Warn().Stringer("context", c.round).Int("attempt", c.attempt).Msg("wrong password")
	c.emit(VerifyFailed, nil)
	// the last round goes to the alarm without "wrong" and its echo
	if c.attempt >= opcode.MaxAttempts {
		return c.alarm(ctx)
	}
	if err := c.handshake(opcode.PasswordWrong); err != nil {
		return err
	}
	c.enterVerify(c.attempt+1, c.round)
	ask, _ := opcode.AskAgain(c.round, c.attempt)
	return c.send(ask)
}

// handshake sends o and waits for the terminal to echo it back.
// Anything else received meanwhile is dropped.
func (c *Controller) handshake(o opcode.Opcode) error {
	if err := c.send(o); err != nil {
		return err
	}
	for {
		b, err := c.link.ReceiveByte()
		if err != nil {
			return err
		}
		if b == byte(o) {
			return nil
		}
		c.log.Debug().Msgf("discarded 0x%02x while waiting for %s", b, o)
	}
}

func (c *Controller) alarm(ctx context.Context) error {
	c.setState(Alarm)
	if err := c.send(opcode.AlarmOn); err != nil {
		return err
	}
	c.log.Warn().Msg("alarm on")
	c.emit(AlarmRaised, nil)

	if err := c.buzzer.Set(true); err != nil {
		c.log.Error().Err(err).Msg("buzzer on")
	}
	derr := c.delay.Delay(ctx, AlarmTime)
	if err := c.buzzer.Set(false); err != nil {
		c.log.Error().Err(err).Msg("buzzer off")
	}
	if derr != nil {
		return derr
	}

	c.log.Info().Msg("alarm off")
	c.emit(AlarmCleared, nil)
	if err := c.send(opcode.PasswordStored); err != nil {
		return err
	}
	c.enterVerify(1, opcode.Setup)
	return nil
}

func (c *Controller) send(o opcode.Opcode) error {
	c.log.Debug().Stringer("op", o).Msg("send")
	return c.link.SendByte(byte(o))
}

func (c *Controller) enterVerify(attempt int, round opcode.Context) {
	c.attempt = attempt
	c.round = round
	c.setState(AwaitingVerify)
}

func (c *Controller) setState(s State) {
	c.state = s
	c.publish()
}

func (c *Controller) publish() {
	c.mu.Lock()
	c.status.State = c.state
	c.status.Attempt = c.attempt
	c.status.Context = c.round
	c.status.Door = c.door
	c.status.HasCredential = c.hasCred
	c.mu.Unlock()
}

func (c *Controller) emit(kind EventKind, err error) {
	e := Event{
		Kind:    kind,
		Time:    c.clock.Now(),
		Attempt: c.attempt,
		Context: c.round,
		Err:     err,
	}
	c.mu.Lock()
	c.status.LastEvent = &e
	switch kind {
	case AlarmRaised:
		c.status.Alarms++
	case DoorClosed:
		c.status.DoorCycles++
	}
	c.mu.Unlock()
	c.publish()

	for _, l := range c.listeners {
		l.LockEvent(e)
	}
}
