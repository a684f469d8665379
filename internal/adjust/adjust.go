// Package adjust computes quantity adjustments. Subtracting never takes a
// quantity below zero.
package adjust

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vbonduro/restock/internal/domain"
)

type Direction string

const (
	Add      Direction = "add"
	Subtract Direction = "subtract"
)

// ParseDirection reads a direction form value. Empty means Add.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Add:
		return Add, nil
	case Subtract:
		return Subtract, nil
	default:
		return "", domain.NewValidationError("direction", "must be add or subtract")
	}
}

// ParseDelta reads a delta form value. It must be a positive integer no
// larger than domain.MaxQuantity.
func ParseDelta(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, domain.NewValidationError("delta", "must be a whole number")
	}
	if err := checkDelta(n); err != nil {
		return 0, err
	}
	return n, nil
}

func checkDelta(n int) error {
	if n <= 0 {
		return domain.NewValidationError("delta", "must be greater than zero")
	}
	if n > domain.MaxQuantity {
		return domain.NewValidationError("delta", fmt.Sprintf("must be at most %d", domain.MaxQuantity))
	}
	return nil
}

// Apply returns the quantity after adjusting current by delta. Adding past
// domain.MaxQuantity is a validation error; subtracting stops at zero.
func Apply(current, delta int, dir Direction) (int, error) {
	if dir == Subtract {
		return max(0, current-delta), nil
	}
	if delta > domain.MaxQuantity-current {
		return 0, domain.NewValidationError("delta", fmt.Sprintf("would take the quantity above %d", domain.MaxQuantity))
	}
	return current + delta, nil
}

// Request is a validated adjustment of one item.
type Request struct {
	ItemID    string
	Delta     int
	Direction Direction
}

// NewRequest parses raw form values into a Request.
func NewRequest(itemID, delta, direction string) (Request, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return Request{}, err
	}
	n, err := ParseDelta(delta)
	if err != nil {
		return Request{}, err
	}
	req := Request{ItemID: itemID, Delta: n, Direction: dir}
	return req, req.Validate()
}

func (r Request) Validate() error {
	if r.ItemID == "" {
		return domain.NewValidationError("id", "is required")
	}
	if err := checkDelta(r.Delta); err != nil {
		return err
	}
	if r.Direction != Add && r.Direction != Subtract {
		return domain.NewValidationError("direction", "must be add or subtract")
	}
	return nil
}

// Apply returns the new quantity for an item currently holding current.
func (r Request) Apply(current int) (int, error) {
	return Apply(current, r.Delta, r.Direction)
}

// State is the adjust panel: which item is selected and the values typed so
// far. The zero value is the reset state.
type State struct {
	ItemID    string
	Delta     string
	Direction Direction
	Err       string
}

// Open selects an item with a fresh panel.
func Open(itemID string) State {
	return State{ItemID: itemID, Direction: Add}
}

// Reset clears the panel after a successful adjustment.
func (s State) Reset() State {
	return State{Direction: Add}
}

// Failed keeps the typed values and records err for display.
func (s State) Failed(err error) State {
	s.Err = err.Error()
	return s
}

func (s State) IsOpen() bool {
	return s.ItemID != ""
}
