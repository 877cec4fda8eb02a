package agent

import (
	"errors"
	"fmt"

	"github.com/lox/blackjackbots/internal/replay"
)

// Config holds the learning hyper-parameters.
type Config struct {
	Alpha          float64 // learning rate
	Gamma          float64 // discount factor
	Epsilon        float64 // initial exploration rate
	EpsilonMin     float64
	EpsilonDecay   float64
	BatchSize      int
	BufferCapacity int
}

// DefaultConfig returns the standard hyper-parameters.
func DefaultConfig() Config {
	return Config{
		Alpha:          0.1,
		Gamma:          0.95,
		Epsilon:        1.0,
		EpsilonMin:     0.01,
		EpsilonDecay:   0.995,
		BatchSize:      32,
		BufferCapacity: replay.DefaultCapacity,
	}
}

// Validate ensures the parameters are usable before training begins.
func (c Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0, 1], got %v", c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1], got %v", c.Epsilon)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > 1 {
		return fmt.Errorf("epsilon min must be in [0, 1], got %v", c.EpsilonMin)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon decay must be in (0, 1], got %v", c.EpsilonDecay)
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be > 0")
	}
	if c.BufferCapacity < c.BatchSize {
		return errors.New("buffer capacity must be >= batch size")
	}
	return nil
}
