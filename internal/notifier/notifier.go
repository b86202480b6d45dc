package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind classifies a notification so channels can filter what they deliver.
type Kind string

const (
	KindEscalation Kind = "escalation"
	KindWeekly     Kind = "weekly"
	KindPeriod     Kind = "period"
)

// Notification is a rendered message ready for delivery.
type Notification struct {
	Kind  Kind
	Title string
	Body  string
}

// Notifier delivers notifications to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Multi fans a notification out to every channel. A failing channel does
// not stop the others; all failures are returned joined.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, ch := range m {
		if err := ch.Notify(ctx, n); err != nil {
			log.Error().Err(err).Str("channel", ch.Name()).Str("kind", string(n.Kind)).Msg("notification delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Noop discards every notification.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Notify(_ context.Context, n Notification) error {
	log.Debug().Str("kind", string(n.Kind)).Str("title", n.Title).Msg("notification discarded")
	return nil
}
