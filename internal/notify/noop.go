package notify

import "context"

// NoopPublisher discards events. Used when no broker is configured, so the
// rest of the system does not care whether notifications are wired up.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() {}
