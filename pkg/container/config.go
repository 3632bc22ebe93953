package container

import (
	"math"

	"github.com/rs/zerolog"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/validation"
)

// DefaultScanRetryWindow is the number of consecutive lost claim scans after
// which a Prioritized take logs a warning and yields the processor.
const DefaultScanRetryWindow = 1000

const defaultInitialSlots = 16

// MaxSlots is the most elements a container can hold. Slot indices are
// stored as int32.
const MaxSlots = math.MaxInt32

// Config holds the configuration shared by both container flavors.
type Config[T any] struct {
	// Name identifies the container in logs and errors.
	Name string

	// InitialSlots is the starting size of the slot array. It grows on demand.
	InitialSlots int

	// OnAdded runs once for every value stored by Add.
	OnAdded func(T)

	// OnRemoved runs exactly once for every value that leaves the container,
	// whether it was destroyed on release, removed by a take or rescan, or
	// discarded by Close.
	OnRemoved func(T)

	// Comparer is required by the Prioritized container and ignored by Simple.
	Comparer Comparer[T]

	// ScanRetryWindow bounds the spin between warnings in the Prioritized
	// claim loop. Zero selects DefaultScanRetryWindow.
	ScanRetryWindow int

	// Logger receives debug and warning events. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns a Config with default sizing and no hooks.
func DefaultConfig[T any]() Config[T] {
	return Config[T]{
		InitialSlots:    defaultInitialSlots,
		ScanRetryWindow: DefaultScanRetryWindow,
	}
}

// Validate checks the fields shared by both flavors.
func (c Config[T]) Validate() error {
	if err := validation.ValidateNonNegative("container", "InitialSlots", c.InitialSlots); err != nil {
		return err
	}
	if err := validation.ValidateAtMost("container", "InitialSlots", c.InitialSlots, MaxSlots); err != nil {
		return err
	}
	return validation.ValidateNonNegative("container", "ScanRetryWindow", c.ScanRetryWindow)
}

func (c Config[T]) withDefaults() Config[T] {
	if c.InitialSlots == 0 {
		c.InitialSlots = defaultInitialSlots
	}
	if c.ScanRetryWindow == 0 {
		c.ScanRetryWindow = DefaultScanRetryWindow
	}
	return c
}

func validationNoComparer() error {
	return pferrors.NewValidationError("container", "Comparer", nil, "is required by the prioritized container").
		WithHint("use container.ByKey or pass a ComparerFunc")
}
