package audit

import "context"

type actorKey struct{}

// WithActor attaches the identity responsible for the operations run under ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached to ctx, or DefaultActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
