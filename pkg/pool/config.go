package pool

import (
	"time"

	"github.com/rs/zerolog"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/validation"
	"github.com/vnykmshr/poolflow/pkg/container"
)

// DefaultCapacityRecheckPeriod is how often a rent waiting on a full pool
// checks whether elements were destroyed and a new one may be created.
const DefaultCapacityRecheckPeriod = 50 * time.Millisecond

// StaticConfig configures a StaticPool.
type StaticConfig[T any] struct {
	// Name identifies the pool in logs and metrics.
	Name string

	// Comparer selects the best value on rent. Nil hands values out in
	// approximately LIFO order.
	Comparer container.Comparer[T]

	// OnRemoved runs once for every value that leaves the pool.
	OnRemoved func(T)

	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
}

// DynamicConfig configures a DynamicPool.
type DynamicConfig[T any] struct {
	// Name identifies the pool in logs and metrics.
	Name string

	// Operations creates, validates and destroys values. Required.
	Operations ElementOperations[T]

	// Comparer selects the best idle value on rent. Nil hands values out in
	// approximately LIFO order.
	Comparer container.Comparer[T]

	// MinElements is the size EnsureMinimum fills up to and TrimIdle never
	// goes below.
	MinElements int

	// MaxElements bounds the number of values. Must be positive.
	MaxElements int

	// CapacityRecheckPeriod bounds how long a rent on a full pool waits
	// before checking for freed capacity. Zero selects
	// DefaultCapacityRecheckPeriod.
	CapacityRecheckPeriod time.Duration

	// Logger receives debug and error events. Nil disables logging.
	Logger *zerolog.Logger
}

// Validate checks the configuration.
func (c DynamicConfig[T]) Validate() error {
	if err := validation.ValidateNotNil("pool", "Operations", c.Operations); err != nil {
		return err
	}
	if err := validation.ValidatePositive("pool", "MaxElements", c.MaxElements); err != nil {
		return err
	}
	if err := validation.ValidateAtMost("pool", "MaxElements", c.MaxElements, container.MaxSlots); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("pool", "MinElements", c.MinElements); err != nil {
		return err
	}
	if err := validation.ValidateAtMost("pool", "MinElements", c.MinElements, c.MaxElements); err != nil {
		return err
	}
	if c.CapacityRecheckPeriod < 0 {
		return pferrors.NewValidationError("pool", "CapacityRecheckPeriod", c.CapacityRecheckPeriod, "cannot be negative")
	}
	return nil
}
