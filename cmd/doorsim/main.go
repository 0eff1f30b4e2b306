/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// doorsim runs both nodes in one process: the keyboard is the keypad, the
// screen is the LCD, motor and buzzer only log.
//
//	0-9 digits, Enter ends the password, + opens the door, - changes the password
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/gbatanov/zlock/actuator"
	"github.com/gbatanov/zlock/console"
	"github.com/gbatanov/zlock/eeprom"
	"github.com/gbatanov/zlock/httpServer"
	"github.com/gbatanov/zlock/lock"
	"github.com/gbatanov/zlock/logging"
	"github.com/gbatanov/zlock/metrics"
	"github.com/gbatanov/zlock/serial3"
	"github.com/gbatanov/zlock/terminal"
	"github.com/gbatanov/zlock/timer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var eepromPath, httpAddr, level string
	var fast, manualDoor bool

	flagSet := pflag.NewFlagSet("doorsim", pflag.ContinueOnError)
	flagSet.StringVar(&eepromPath, "eeprom", "", "EEPROM image file (default: in memory)")
	flagSet.StringVar(&httpAddr, "http", "", "serve /status and /metrics on this address")
	flagSet.StringVar(&level, "log-level", "warn", "debug, info, warn, error or disabled")
	flagSet.BoolVar(&fast, "fast", false, "skip door, alarm and message delays")
	flagSet.BoolVar(&manualDoor, "manual-door", false, "accept manual door requests")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	log, logCloser, err := logging.New("doorsim", logging.Config{Level: level})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var store eeprom.Store = eeprom.NewMemStore()
	if eepromPath != "" {
		fs, err := eeprom.OpenFile(eepromPath)
		if err != nil {
			return err
		}
		defer fs.Close()
		store = fs
	}

	clock := timer.Real()
	if fast {
		clock = timer.Instant()
	}

	keys, err := console.OpenKeypad(os.Stdin)
	if err != nil {
		return err
	}
	defer keys.Close()

	termEnd, lockEnd := serial3.Pipe()
	sim := actuator.NewSim(log)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	lk := lock.New(lockEnd, store, sim, sim,
		lock.WithLogger(log),
		lock.WithDelayer(timer.NewDriver(clock)),
		lock.WithManualDoor(manualDoor),
		lock.WithListener(recorder),
	)
	term := terminal.New(termEnd, keys, console.NewDisplay(os.Stdout),
		terminal.WithLogger(log),
		terminal.WithDelayer(timer.NewDriver(clock)),
	)

	if httpAddr != "" {
		web, _ := httpServer.NewHttpServer(httpServer.Config{
			Addr:     httpAddr,
			Os:       "doorsim",
			Status:   lk,
			Gatherer: reg,
			Observer: recorder,
		}, log)
		web.Start()
		defer web.Stop()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	go func() {
		<-ctx.Done()
		termEnd.Close()
	}()

	lockErr := make(chan error, 1)
	go func() { lockErr <- lk.Run(ctx) }()

	err = term.Run(ctx)
	// a delay in the lock ends with the context, a read with the link
	cancel()
	termEnd.Close()
	if lerr := <-lockErr; !errors.Is(lerr, serial3.ErrClosed) && !errors.Is(lerr, context.Canceled) {
		log.Error().Err(lerr).Msg("lock stopped")
		return lerr
	}
	if errors.Is(err, serial3.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, console.ErrInterrupted) {
		return nil
	}
	return err
}
