package facetgo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSlots is returned when the slot count is not positive.
	ErrInvalidSlots = errors.New("slot count must be positive")

	// ErrNilSegment is returned when an aggregation job carries no segment.
	ErrNilSegment = errors.New("job has a nil segment")

	// ErrNilSlotFunc is returned when an aggregation job carries no
	// document-to-slot mapping.
	ErrNilSlotFunc = errors.New("job has a nil slot function")
)

// ErrSlotOutOfRange indicates a slot function result outside the arena.
type ErrSlotOutOfRange struct {
	Slot  int
	Slots int
}

func (e *ErrSlotOutOfRange) Error() string {
	return fmt.Sprintf("slot out of range: %d not in [0,%d)", e.Slot, e.Slots)
}
