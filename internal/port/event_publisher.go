package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// EventPublisher fans committed state changes out to observers (UI sessions,
// reporting consumers). Publish failures must not undo the mutation that
// produced the event; callers log and move on.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
