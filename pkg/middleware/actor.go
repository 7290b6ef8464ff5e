package middleware

import (
	"context"
	"net/http"

	"frontdesk/pkg/model"
)

// Identity headers are set by the session gateway in front of the services.
const (
	ActorIDHeader     = "X-Actor-ID"
	ActorRoleHeader   = "X-Actor-Role"
	ActorStatusHeader = "X-Actor-Status"
)

const actorKey contextKey = "actor"

// Actor rejects requests without an actor id and stores the caller in the context.
// Paths in public bypass the check.
func Actor(public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			actor := model.Actor{
				ID:     r.Header.Get(ActorIDHeader),
				Role:   r.Header.Get(ActorRoleHeader),
				Status: r.Header.Get(ActorStatusHeader),
			}
			if actor.ID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","error":"missing actor identity"}`))
				return
			}
			if actor.Role == "" {
				actor.Role = model.RoleEmployee
			}
			if !actor.IsActive() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"code":"FORBIDDEN","error":"account is not active"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(model.Actor)
	return actor, ok
}
