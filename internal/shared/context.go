package shared

import "context"

// Actor identifies the authenticated principal forwarded by the API gateway.
// Authentication itself happens upstream; the gateway is trusted to set the
// X-Actor-ID and X-Actor-Role headers on every request.
type Actor struct {
	ID   int64
	Role string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
