// Package publish delivers assembled envelopes to subscribers.
package publish

import (
	"context"
	"errors"
	"fmt"

	"coin-feed/internal/event"
)

// Subjects envelopes are published under.
// Full broadcasts go to SubjectAll, per-coin updates to SubjectCoinPrefix+coinID.
const (
	SubjectAll        = "coinfeed.all"
	SubjectCoinPrefix = "coinfeed.coin."
	SubjectWildcard   = "coinfeed.>"
)

// ErrInvalidScope is returned for an envelope whose scope is neither all nor regular.
var ErrInvalidScope = errors.New("invalid envelope scope")

// Validate checks that env can be routed.
func Validate(env event.Envelope) error {
	if !env.Scope.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidScope, env.Scope)
	}
	return nil
}

// Publisher is the interface for emitting envelopes.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) error
	Close() error
}

// Subject returns the subject an envelope is routed to, chosen by its scope.
func Subject(env event.Envelope) string {
	if env.Scope == event.ScopeAll {
		return SubjectAll
	}
	return SubjectCoinPrefix + env.Coin.ID
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, event.Envelope) error { return nil }

func (NoopPublisher) Close() error { return nil }

// MultiPublisher fans an envelope out to several publishers.
// Every publisher is attempted; failures are joined.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, env event.Envelope) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
