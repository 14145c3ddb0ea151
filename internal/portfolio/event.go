package portfolio

// EventKind tags the variants of the Event union.
type EventKind string

const (
	EventKindPositionNew  EventKind = "position_new"
	EventKindPositionExit EventKind = "position_exit"
	EventKindBalance      EventKind = "balance"
)

// Event is the closed union of domain events a portfolio emits while
// processing a fill. Exactly one payload field is populated, per Kind.
type Event struct {
	Kind         EventKind     `json:"kind"`
	PositionNew  *Position     `json:"position_new,omitempty"`
	PositionExit *PositionExit `json:"position_exit,omitempty"`
	Balance      *Balance      `json:"balance,omitempty"`
}

// NewPositionNewEvent wraps a freshly entered Position.
func NewPositionNewEvent(position Position) Event {
	return Event{Kind: EventKindPositionNew, PositionNew: &position}
}

// NewPositionExitEvent wraps a PositionExit record.
func NewPositionExitEvent(exit PositionExit) Event {
	return Event{Kind: EventKindPositionExit, PositionExit: &exit}
}

// NewBalanceEvent wraps a Balance snapshot.
func NewBalanceEvent(balance Balance) Event {
	return Event{Kind: EventKindBalance, Balance: &balance}
}
