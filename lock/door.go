/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package lock

import (
	"context"
	"time"

	"github.com/gbatanov/zlock/actuator"
	"github.com/gbatanov/zlock/opcode"
)

// doorCycle opens the door, holds it and closes it, then returns to the menu.
// A door left open by a manual request skips straight to the hold.
func (c *Controller) doorCycle(ctx context.Context) error {
	c.setState(DoorCycle)
	if c.door != Open {
		if err := c.openPhase(ctx); err != nil {
			return err
		}
	}
	if err := c.holdPhase(ctx); err != nil {
		return err
	}
	if err := c.closePhase(ctx); err != nil {
		return err
	}
	c.enterVerify(1, opcode.MainMenu)
	return c.send(opcode.OpenMainMenu)
}

func (c *Controller) openPhase(ctx context.Context) error {
	return c.phase(ctx, Opening, opcode.DoorOpening, DoorOpening, actuator.CW, MotorSpeed, DoorOpenTime)
}

func (c *Controller) holdPhase(ctx context.Context) error {
	return c.phase(ctx, Open, opcode.DoorOpened, DoorOpened, actuator.Stop, 0, DoorHoldTime)
}

func (c *Controller) closePhase(ctx context.Context) error {
	if err := c.phase(ctx, Closing, opcode.DoorClosing, DoorClosing, actuator.CCW, MotorSpeed, DoorCloseTime); err != nil {
		return err
	}
	c.door = Closed
	c.emit(DoorClosed, nil)
	return nil
}

// phase notifies the terminal, runs the motor for d and releases it.
// A motor fault is logged; the sequence and its timing go on regardless.
func (c *Controller) phase(ctx context.Context, door DoorState, note opcode.Opcode, kind EventKind,
	dir actuator.Direction, speed uint8, d time.Duration) error {
	c.door = door
	c.publish()
	if err := c.send(note); err != nil {
		return err
	}
	c.log.Info().Stringer("door", door).Msg("door")
	c.emit(kind, nil)

	if err := c.motor.Rotate(dir, speed); err != nil {
		c.log.Error().Err(err).Stringer("dir", dir).Msg("motor rotate")
	}
	derr := c.delay.Delay(ctx, d)
	if err := c.motor.Release(); err != nil {
		c.log.Error().Err(err).Msg("motor release")
	}
	return derr
}
