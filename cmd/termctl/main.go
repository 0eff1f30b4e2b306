/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// termctl is the terminal node: keypad and 16x2 LCD, answering the lock
// node over a UART.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/gbatanov/zlock/config"
	"github.com/gbatanov/zlock/console"
	"github.com/gbatanov/zlock/logging"
	"github.com/gbatanov/zlock/pi4"
	"github.com/gbatanov/zlock/serial3"
	"github.com/gbatanov/zlock/terminal"
)

const Version string = "v0.1.3"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, mode string
	var version bool

	flagSet := pflag.NewFlagSet("termctl", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config")
	flagSet.StringVarP(&mode, "mode", "m", "", "config section to use (overrides the mode line)")
	flagSet.BoolVar(&version, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if version {
		fmt.Println("termctl " + Version)
		return nil
	}

	cfg, err := config.Load(configPath, mode)
	if err != nil {
		return err
	}
	log, logCloser, err := logging.New("zlock-term", cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log.Info().Str("version", Version).Str("mode", cfg.Mode).Msg("Start termctl")

	keys, disp, release, err := devices(cfg.Terminal, log)
	if err != nil {
		return err
	}
	defer release()

	uart := serial3.UartCreate(cfg.Terminal.Port, cfg.Terminal.Baud, log.With().Str("component", "uart").Logger())
	if err := uart.Open(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		uart.Stop()
	}()

	term := terminal.New(uart, keys, disp, terminal.WithLogger(log))
	err = term.Run(ctx)
	log.Info().Err(err).Msg("termctl stopped")
	if errors.Is(err, serial3.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, console.ErrInterrupted) {
		return nil
	}
	return err
}

// devices picks the GPIO keypad and LCD, or the console when asked to or
// when the board has no GPIO.
func devices(cfg config.TerminalConfig, log zerolog.Logger) (terminal.Keypad, terminal.Display, func(), error) {
	if !cfg.Console && pi4.Probe(log) {
		keys, err := pi4.KeypadCreate(cfg.Pins.Rows, cfg.Pins.Cols)
		if err != nil {
			return nil, nil, nil, err
		}
		lcd, err := pi4.LCDCreate(cfg.Pins.LcdRs, cfg.Pins.LcdE, cfg.Pins.LcdData)
		if err != nil {
			keys.Close()
			return nil, nil, nil, err
		}
		return keys, lcd, func() {
			keys.Close()
			lcd.Close()
		}, nil
	}

	keys, err := console.OpenKeypad(os.Stdin)
	if err != nil {
		return nil, nil, nil, err
	}
	return keys, console.NewDisplay(os.Stdout), func() { keys.Close() }, nil
}
