package entropy

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a Config fails validation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// DefaultDecayFactor is the decay scale in hours for history complexity.
const DefaultDecayFactor = 10.0

// DefaultQuietTime is the burst-period boundary in seconds. Commit events
// separated by more than this gap fall into different periods.
const DefaultQuietTime = int64(3600)

// Config controls history complexity computation.
type Config struct {
	// DecayFactor is the exponential decay scale in hours. Larger values
	// make older burst periods fade more slowly.
	DecayFactor float64 `json:"decay_factor"`
	// QuietTime is the minimum gap in seconds between commit events that
	// separates two burst periods.
	QuietTime int64 `json:"quiet_time_seconds"`
}

// DefaultConfig returns the configuration recommended by Hassan (2009):
// a one-hour quiet window and a ten-hour decay scale.
func DefaultConfig() Config {
	return Config{
		DecayFactor: DefaultDecayFactor,
		QuietTime:   DefaultQuietTime,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.DecayFactor <= 0 {
		return fmt.Errorf("%w: decay_factor must be greater than zero", ErrInvalidConfiguration)
	}
	if c.QuietTime <= 0 {
		return fmt.Errorf("%w: quiet_time_seconds must be greater than zero", ErrInvalidConfiguration)
	}
	return nil
}

// CommitEvent pairs a commit's authored time (epoch seconds) with the
// tracked-file line changes it introduced relative to its first parent.
// Events with empty change maps are dropped before periodization.
type CommitEvent struct {
	Timestamp int64
	Changes   map[string]int
}

// BurstPeriod is the merged change totals of consecutive commit events with
// no gap exceeding the quiet window. End is the authored time of the most
// recent event folded into the period. Periods are immutable once formed.
type BurstPeriod struct {
	End     int64
	Changes map[string]int
}

// TotalChanges returns the sum of changed lines across all files in the period.
func (p BurstPeriod) TotalChanges() int {
	var total int
	for _, c := range p.Changes {
		total += c
	}
	return total
}
