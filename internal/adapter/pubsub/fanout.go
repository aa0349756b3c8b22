package pubsub

import (
	"context"
	"errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// Fanout delivers each event to every underlying publisher. All publishers
// are attempted even when one fails; errors are joined.
type Fanout []port.EventPublisher

func (f Fanout) Publish(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
