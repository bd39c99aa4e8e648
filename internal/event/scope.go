// Package event builds the envelopes pushed to live feed subscribers.
//
// Every persisted domain row maps to exactly one Envelope through the From*
// constructors. Construction is pure: no I/O, no shared state, no errors.
package event

// Scope is the routing hint attached to an envelope.
type Scope int

const (
	// ScopeRegular marks events relevant only to subscribers of one coin.
	ScopeRegular Scope = iota
	// ScopeAll marks events that reach every subscriber.
	ScopeAll
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeRegular:
		return "regular"
	default:
		return "unknown"
	}
}

// IsValid checks if the scope is a known value.
func (s Scope) IsValid() bool {
	return s == ScopeAll || s == ScopeRegular
}
