package game

import "fmt"

type Config struct {
	// Number of rounds in a game; the session finishes once all are played.
	MaxRounds int
}

func DefaultConfig() Config {
	return Config{MaxRounds: DefaultMaxRounds}
}

// Validate reports whether the config can back a session.
func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("invalid MaxRounds %d (must be > 0)", c.MaxRounds)
	}
	return nil
}
