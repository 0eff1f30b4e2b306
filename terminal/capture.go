/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package terminal

import (
	"github.com/gbatanov/zlock/credential"
	"github.com/gbatanov/zlock/opcode"
	"github.com/gbatanov/zlock/serial3"
)

// EnterKey ends a password capture.
const EnterKey byte = 13

const (
	PromptNew     = "Enter New Pass:"
	PromptReEnter = "Re-enter Pass:"

	MsgDoorOpening = "Door OPENING..."
	MsgDoorOpened  = " Door is OPENED"
	MsgDoorClosing = "Door CLOSING..."
	MsgAlarm       = "WARNING !!"
	MsgCorrect     = "Password Correct"
	MsgWrong       = "Password Wrong!"
)

// answer sends req and then one captured password.
func (c *Controller) answer(req opcode.Opcode, prompt string) error {
	if err := c.link.SendByte(byte(req)); err != nil {
		return err
	}
	pw, err := c.capture(prompt)
	if err != nil {
		return err
	}
	c.log.Debug().Stringer("req", req).Int("len", len(pw)).Msg("password sent")
	return serial3.SendString(c.link, pw)
}

// capture reads keys until Enter. Each key is echoed as '*' on the second
// row. Once the buffer is full further keys are dropped, and the Enter that
// closes the entry is still read here so the next capture does not get it.
func (c *Controller) capture(prompt string) ([]byte, error) {
	if err := c.show(prompt); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, credential.MaxLen)
	for {
		k, err := c.keys.ReadKey()
		if err != nil {
			return nil, err
		}
		if k == EnterKey {
			return buf, nil
		}
		if k == serial3.Terminator || len(buf) == credential.MaxLen {
			continue
		}
		if err := c.disp.TextAt("*", 1, len(buf)); err != nil {
			return nil, err
		}
		buf = append(buf, k)
	}
}
