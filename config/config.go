/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matishsiao/goInfo"
	"gopkg.in/yaml.v3"

	"github.com/gbatanov/zlock/logging"
)

const DefaultPath = "/usr/local/etc/zlock/config.yaml"

// File is the whole config file: the mode and one section per mode.
//
//	mode: prod
//	modes:
//	  test: {...}
//	  prod: {...}
type File struct {
	Mode  string            `yaml:"mode"`
	Modes map[string]Config `yaml:"modes"`
}

type Config struct {
	Mode       string         `yaml:"-"`
	Os         string         `yaml:"-"`
	ProgramDir string         `yaml:"-"`
	Lock       LockConfig     `yaml:"lock"`
	Terminal   TerminalConfig `yaml:"terminal"`
	Telegram   TelegramConfig `yaml:"telegram"`
	Modem      ModemConfig    `yaml:"modem"`
	Db         DbConfig       `yaml:"db"`
	Log        logging.Config `yaml:"log"`
}

type LockConfig struct {
	Port       string   `yaml:"port"`
	Baud       int      `yaml:"baud"`
	Eeprom     string   `yaml:"eeprom"`
	Http       string   `yaml:"http"`
	ManualDoor bool     `yaml:"manual_door"`
	Pins       LockPins `yaml:"pins"`
}

// BCM numbers
type LockPins struct {
	In1    int `yaml:"in1"`
	In2    int `yaml:"in2"`
	En     int `yaml:"en"`
	Buzzer int `yaml:"buzzer"`
}

type TerminalConfig struct {
	Port    string       `yaml:"port"`
	Baud    int          `yaml:"baud"`
	Console bool         `yaml:"console"`
	Pins    TerminalPins `yaml:"pins"`
}

type TerminalPins struct {
	Rows    [4]int `yaml:"rows"`
	Cols    [4]int `yaml:"cols"`
	LcdRs   int    `yaml:"lcd_rs"`
	LcdE    int    `yaml:"lcd_e"`
	LcdData [8]int `yaml:"lcd_data"`
}

// Empty BotName turns the bot off
type TelegramConfig struct {
	BotName   string `yaml:"bot_name"`
	MyId      int64  `yaml:"my_id"`
	TokenPath string `yaml:"token_path"`
}

// Empty Port turns the modem off
type ModemConfig struct {
	Port  string `yaml:"port"`
	Baud  int    `yaml:"baud"`
	Phone string `yaml:"phone"`
}

// Empty Dsn turns the journal off
type DbConfig struct {
	Dsn string `yaml:"dsn"`
}

// Load reads path and returns the section of the selected mode.
// A non-empty mode overrides the mode line of the file.
func Load(path string, mode string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect file with configuration: %w", err)
	}
	cfg, err := Parse(data, mode)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ProgramDir = programDir()
	return cfg, nil
}

func Parse(data []byte, mode string) (Config, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Config{}, err
	}
	if mode == "" {
		mode = f.Mode
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return Config{}, errors.New("mode is not set")
	}
	cfg, ok := f.Modes[mode]
	if !ok {
		return Config{}, fmt.Errorf("no section for mode %q", mode)
	}
	cfg.Mode = mode
	cfg.Os = hostOs()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Lock.Baud == 0 {
		cfg.Lock.Baud = 19200
	}
	if cfg.Terminal.Baud == 0 {
		cfg.Terminal.Baud = 19200
	}
	if cfg.Modem.Baud == 0 {
		cfg.Modem.Baud = 9600
	}
	if cfg.Lock.Eeprom == "" {
		cfg.Lock.Eeprom = "/usr/local/var/zlock/eeprom.bin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks the values only and does not change cfg.
func (cfg *Config) Validate() error {
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	for _, b := range []int{cfg.Lock.Baud, cfg.Terminal.Baud, cfg.Modem.Baud} {
		if b < 0 {
			return fmt.Errorf("negative baud rate %d", b)
		}
	}
	if cfg.Telegram.BotName != "" {
		if cfg.Telegram.MyId == 0 {
			return errors.New("telegram: my_id is required")
		}
		if cfg.Telegram.TokenPath == "" {
			return errors.New("telegram: token_path is required")
		}
	}
	if cfg.Modem.Port != "" {
		phone := strings.TrimPrefix(cfg.Modem.Phone, "+")
		if len(phone) < 10 || len(phone) > 15 || strings.Trim(phone, "0123456789") != "" {
			return fmt.Errorf("modem: incorrect phone %q", cfg.Modem.Phone)
		}
	}
	if !cfg.Terminal.Console {
		if err := distinctPins(cfg.Terminal.Pins.Rows[:], cfg.Terminal.Pins.Cols[:]); err != nil {
			return fmt.Errorf("terminal keypad: %w", err)
		}
	}
	return nil
}

// distinctPins rejects a keypad with a pin used twice; all zero means not wired.
func distinctPins(groups ...[]int) error {
	wired := false
	for _, g := range groups {
		for _, p := range g {
			wired = wired || p != 0
		}
	}
	if !wired {
		return nil
	}
	seen := map[int]bool{}
	for _, g := range groups {
		for _, p := range g {
			if p < 0 || p > 27 {
				return fmt.Errorf("pin %d out of range", p)
			}
			if seen[p] {
				return fmt.Errorf("pin %d used twice", p)
			}
			seen[p] = true
		}
	}
	return nil
}

func hostOs() string {
	gi, err := goInfo.GetInfo()
	if err != nil {
		return "unknown"
	}
	return gi.GoOS
}

func programDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
