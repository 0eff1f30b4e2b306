/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `yaml:"level"`
	Syslog bool   `yaml:"syslog"`
}

// ParseLevel accepts debug, info, warn, error and disabled; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

// New builds the program logger: console on stderr, and syslog when asked.
func New(app string, cfg Config) (zerolog.Logger, io.Closer, error) {
	return newLogger(app, cfg, os.Stderr)
}

func newLogger(app string, cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}

	var w io.Writer = console
	var closer io.Closer = nopCloser{}
	if cfg.Syslog {
		sysLog, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, app)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("syslog: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, zerolog.SyslogLevelWriter(sysLog))
		closer = sysLog
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
