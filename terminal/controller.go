/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// Package terminal is the keypad and display node. It has no state of its
// own beyond the last notification: every step is a reaction to a byte from
// the lock node.
package terminal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/opcode"
	"github.com/gbatanov/zlock/serial3"
	"github.com/gbatanov/zlock/timer"
)

// ResultHold is how long "Password Correct" or "Password Wrong!" stays on
// the screen before the echo goes back to the lock.
const ResultHold = 5 * time.Second

// Keypad returns one key per call and blocks until a key is pressed.
type Keypad interface {
	ReadKey() (byte, error)
}

// Display is a character display with a cursor.
type Display interface {
	Clear() error
	// Text writes s at the cursor.
	Text(s string) error
	// TextAt moves the cursor to row, col and writes s.
	TextAt(s string, row, col int) error
}

type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithDelayer(d Delayer) Option {
	return func(c *Controller) { c.delay = d }
}

type Controller struct {
	link  serial3.Link
	keys  Keypad
	disp  Display
	delay Delayer
	log   zerolog.Logger
}

func New(link serial3.Link, keys Keypad, disp Display, opts ...Option) *Controller {
	c := &Controller{
		link: link,
		keys: keys,
		disp: disp,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.delay == nil {
		c.delay = timer.NewDriver(timer.Real())
	}
	c.log = c.log.With().Str("component", "terminal").Logger()
	return c
}

// Run serves notifications until the link or the keypad fails.
func (c *Controller) Run(ctx context.Context) error {
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

func (c *Controller) handle(ctx context.Context, b byte) error {
	op, ok := opcode.ParseNotification(b)
	if !ok {
		c.log.Debug().Msgf("ignored byte 0x%02x", b)
		return nil
	}
	c.log.Debug().Stringer("op", op).Msg("notification")

	switch op {
	case opcode.AskNewPassword:
		return c.answer(opcode.TakeNewPassword, PromptNew)
	case opcode.PasswordStored, opcode.AskReEnter1, opcode.AskReEnter2, opcode.AskReEnter3,
		opcode.AskMainMenu2, opcode.AskMainMenu3:
		req, _ := opcode.Answer(op)
		return c.answer(req, PromptReEnter)
	case opcode.OpenMainMenu:
		return c.mainMenu()
	case opcode.DoorOpening:
		return c.show(MsgDoorOpening)
	case opcode.DoorOpened:
		return c.show(MsgDoorOpened)
	case opcode.DoorClosing:
		return c.show(MsgDoorClosing)
	case opcode.AlarmOn:
		return c.show(MsgAlarm)
	case opcode.PasswordCorrect:
		return c.result(ctx, MsgCorrect, op)
	case opcode.PasswordWrong:
		return c.result(ctx, MsgWrong, op)
	default:
		// every notification is listed above
		return nil
	}
}

// result shows the verdict, holds it, then echoes op back.
func (c *Controller) result(ctx context.Context, msg string, op opcode.Opcode) error {
	if err := c.show(msg); err != nil {
		return err
	}
	if err := c.delay.Delay(ctx, ResultHold); err != nil {
		return err
	}
	return c.link.SendByte(byte(op))
}

func (c *Controller) show(msg string) error {
	if err := c.disp.Clear(); err != nil {
		return err
	}
	return c.disp.Text(msg)
}
