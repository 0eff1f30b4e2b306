package terminal

import "github.com/gbatanov/zlock/opcode"

const (
	OpenKey   byte = '+'
	ChangeKey byte = '-'

	MenuOpen   = "+: Open Door"
	MenuChange = "-: Change Pass"
)

// mainMenu waits for one of the two menu keys. Other keys are read and dropped.
func (c *Controller) mainMenu() error {
	if err := c.disp.Clear(); err != nil {
		return err
	}
	if err := c.disp.TextAt(MenuOpen, 0, 0); err != nil {
		return err
	}
	if err := c.disp.TextAt(MenuChange, 1, 0); err != nil {
		return err
	}
	for {
		k, err := c.keys.ReadKey()
		if err != nil {
			return err
		}
		switch k {
		case OpenKey:
			return c.answer(opcode.TakeMainMenu1, PromptReEnter)
		case ChangeKey:
			return c.answer(opcode.TakeNewPassword, PromptNew)
		default:
			c.log.Debug().Msgf("menu key 0x%02x ignored", k)
		}
	}
}
