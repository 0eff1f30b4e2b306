package actuator

import (
	"sync"

	"github.com/rs/zerolog"
)

// Call is one recorded actuator operation.
type Call struct {
	Device string // "motor" or "buzzer"
	Op     string // "rotate", "release", "set"
	Dir    Direction
	Speed  uint8
	On     bool
}

// Sim stands in for the motor and the buzzer where there is no GPIO.
// It logs every operation and keeps a copy of it.
type Sim struct {
	log zerolog.Logger

	mu    sync.Mutex
	calls []Call
}

func NewSim(log zerolog.Logger) *Sim {
	return &Sim{log: log.With().Str("component", "actuator-sim").Logger()}
}

func (s *Sim) Rotate(dir Direction, speed uint8) error {
	s.log.Info().Stringer("dir", dir).Uint8("speed", speed).Uint8("duty", DutyCycle(speed)).Msg("motor rotate")
	s.record(Call{Device: "motor", Op: "rotate", Dir: dir, Speed: speed})
	return nil
}

func (s *Sim) Release() error {
	s.log.Info().Msg("motor release")
	s.record(Call{Device: "motor", Op: "release"})
	return nil
}

func (s *Sim) Set(on bool) error {
	s.log.Info().Bool("on", on).Msg("buzzer")
	s.record(Call{Device: "buzzer", Op: "set", On: on})
	return nil
}

func (s *Sim) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *Sim) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
