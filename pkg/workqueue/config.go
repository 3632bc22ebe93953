package workqueue

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/poolflow/pkg/common/validation"
)

const (
	// DefaultLocalCapacity is the capacity of each worker's local queue.
	DefaultLocalCapacity = 256

	// DefaultStealAwakePeriod is how often a blocked take wakes to steal.
	DefaultStealAwakePeriod = 10 * time.Millisecond
)

// Config configures a Controller.
type Config struct {
	// Name identifies the controller in logs.
	Name string

	// GlobalCapacity bounds the global queue. Zero means unbounded.
	GlobalCapacity int

	// LocalCapacity is the capacity of each local queue. It must be a power
	// of two.
	LocalCapacity int

	// SegmentSize is the number of items per global queue segment.
	SegmentSize int

	// StealAwakePeriod is how long a blocking take waits on the global queue
	// before retrying a steal. It must be positive.
	StealAwakePeriod time.Duration

	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns an unbounded configuration with default local queue
// sizing.
func DefaultConfig() Config {
	return Config{
		LocalCapacity:    DefaultLocalCapacity,
		SegmentSize:      defaultSegmentSize,
		StealAwakePeriod: DefaultStealAwakePeriod,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNonNegative("workqueue", "GlobalCapacity", c.GlobalCapacity); err != nil {
		return err
	}
	if err := validation.ValidatePowerOfTwo("workqueue", "LocalCapacity", c.LocalCapacity); err != nil {
		return err
	}
	if err := validation.ValidatePositive("workqueue", "SegmentSize", c.SegmentSize); err != nil {
		return err
	}
	return validation.ValidatePositive("workqueue", "StealAwakePeriod", int(c.StealAwakePeriod))
}
