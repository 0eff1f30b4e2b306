/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/

// lockctl is the lock node: EEPROM credential, motor and buzzer, driven by
// requests from the terminal node over a UART.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/gbatanov/zlock/actuator"
	"github.com/gbatanov/zlock/config"
	"github.com/gbatanov/zlock/credential"
	"github.com/gbatanov/zlock/db"
	"github.com/gbatanov/zlock/eeprom"
	"github.com/gbatanov/zlock/httpServer"
	"github.com/gbatanov/zlock/lock"
	"github.com/gbatanov/zlock/logging"
	"github.com/gbatanov/zlock/metrics"
	"github.com/gbatanov/zlock/modem"
	"github.com/gbatanov/zlock/pi4"
	"github.com/gbatanov/zlock/serial3"
	"github.com/gbatanov/zlock/telega32"
)

const Version string = "v0.1.3"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// statusFunc lets notifiers built before the controller ask it for status.
type statusFunc func() lock.Status

func (f statusFunc) Status() lock.Status { return f() }

func run() error {
	var configPath, mode, export string
	var erase, version bool

	flagSet := pflag.NewFlagSet("lockctl", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config")
	flagSet.StringVarP(&mode, "mode", "m", "", "config section to use (overrides the mode line)")
	flagSet.BoolVar(&erase, "erase", false, "erase the stored password and exit")
	flagSet.StringVar(&export, "export", "", "write the event journal to this CSV file and exit")
	flagSet.BoolVar(&version, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if version {
		fmt.Println("lockctl " + Version)
		return nil
	}

	cfg, err := config.Load(configPath, mode)
	if err != nil {
		return err
	}
	log, logCloser, err := logging.New("zlock-lock", cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log.Info().Str("version", Version).Str("mode", cfg.Mode).Str("os", cfg.Os).Msg("Start lockctl")

	if export != "" {
		return exportEvents(cfg.Db.Dsn, export, log)
	}

	store, err := eeprom.OpenFile(cfg.Lock.Eeprom)
	if err != nil {
		return err
	}
	defer store.Close()

	if erase {
		if err := credential.Erase(store); err != nil {
			return err
		}
		log.Info().Str("eeprom", cfg.Lock.Eeprom).Msg("password erased, the lock asks for a new one on boot")
		return nil
	}

	motor, buzzer, release := actuators(cfg.Lock, log)
	defer release()

	uart := serial3.UartCreate(cfg.Lock.Port, cfg.Lock.Baud, log.With().Str("component", "uart").Logger())
	if err := uart.Open(); err != nil {
		return err
	}

	var lk *lock.Controller
	status := statusFunc(func() lock.Status {
		if lk == nil {
			return lock.Status{}
		}
		return lk.Status()
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)
	opts := []lock.Option{
		lock.WithLogger(log),
		lock.WithManualDoor(cfg.Lock.ManualDoor),
		lock.WithListener(recorder),
	}

	var journal *db.Journal
	if cfg.Db.Dsn != "" {
		pg, err := db.OpenDb(cfg.Db.Dsn)
		if err == nil {
			err = pg.CreateTable()
		}
		if err != nil {
			log.Error().Err(err).Msg("journal is off")
		} else {
			defer pg.CloseDb()
			journal = db.JournalCreate(pg, log)
			defer journal.Stop()
			opts = append(opts, lock.WithListener(journal))
		}
	}

	if cfg.Telegram.BotName != "" {
		bot := telega32.Tlg32Create(cfg.Telegram.BotName, cfg.Mode, cfg.Telegram.TokenPath, cfg.Telegram.MyId, status, log)
		if err := bot.Run(); err != nil {
			log.Error().Err(err).Msg("telegram is off")
		} else {
			defer bot.Stop()
			opts = append(opts, lock.WithListener(bot))
		}
	}

	if cfg.Modem.Port != "" {
		mdm := modem.GsmModemCreate(cfg.Modem.Port, cfg.Modem.Baud, cfg.Modem.Phone, log)
		if err := mdm.Open(); err != nil {
			log.Error().Err(err).Msg("modem is off")
			mdm.Stop()
		} else {
			defer mdm.Stop()
			opts = append(opts, lock.WithListener(mdm))
		}
	}

	lk = lock.New(uart, store, motor, buzzer, opts...)

	var web *httpServer.HttpServer
	if cfg.Lock.Http != "" {
		hcfg := httpServer.Config{
			Addr:     cfg.Lock.Http,
			Os:       cfg.Os,
			Status:   lk,
			Gatherer: reg,
			Observer: recorder,
		}
		if journal != nil {
			hcfg.Events = journal
		}
		web, _ = httpServer.NewHttpServer(hcfg, log)
		web.Start()
		defer web.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-ctx.Done():
		case err := <-webErr(web):
			log.Error().Err(err).Msg("http server failed")
		}
		uart.Stop()
	}()

	err = lk.Run(ctx)
	log.Info().Err(err).Msg("lockctl stopped")
	if errors.Is(err, serial3.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func webErr(web *httpServer.HttpServer) <-chan error {
	if web == nil {
		return nil
	}
	return web.Err
}

// actuators uses GPIO when the board has it and simulated devices otherwise.
func actuators(cfg config.LockConfig, log zerolog.Logger) (actuator.Motor, actuator.Buzzer, func()) {
	if pi4.Probe(log) {
		motor, buzzer, err := gpioActuators(cfg.Pins, log)
		if err == nil {
			return motor, buzzer, func() {
				motor.Close()
				buzzer.Close()
			}
		}
		log.Error().Err(err).Msg("GPIO actuators failed, using simulated ones")
	}
	sim := actuator.NewSim(log)
	return sim, sim, func() {}
}

func gpioActuators(pins config.LockPins, log zerolog.Logger) (*pi4.Motor, *pi4.Buzzer, error) {
	motor, err := pi4.MotorCreate(pins.In1, pins.In2, pins.En, log)
	if err != nil {
		return nil, nil, err
	}
	buzzer, err := pi4.BuzzerCreate(pins.Buzzer)
	if err != nil {
		motor.Close()
		return nil, nil, err
	}
	return motor, buzzer, nil
}
