package own

import "fmt"

// State is the lifecycle state of a binding.
type State uint8

const (
	StateOwned State = iota
	StateMovedOut
	StateBorrowedShared
	StateBorrowedExclusive
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateOwned:
		return "owned"
	case StateMovedOut:
		return "moved-out"
	case StateBorrowedShared:
		return "borrowed-shared"
	case StateBorrowedExclusive:
		return "borrowed-exclusive"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Live reports whether the binding still owns its value.
func (s State) Live() bool {
	return s == StateOwned || s == StateBorrowedShared || s == StateBorrowedExclusive
}

// life is the stored part of the state; borrow states are derived from the table.
type life uint8

const (
	lifeOwned life = iota
	lifeMoved
	lifeDropped
	lifeReleased
)
