package bus

import (
	"context"

	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// Bus carries committed chat events between service instances. Each
// thread has its own logical channel; the forwarder subscribes to all
// of them and feeds the in-process hub.
type Bus interface {
	Publish(ctx context.Context, evt realtime.Event) error
	StartForwarder(ctx context.Context, onEvent func(evt realtime.Event)) error
	Close() error
}
