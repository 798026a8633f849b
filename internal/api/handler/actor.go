// internal/api/handler/actor.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"bidmarket/internal/domain"
	"bidmarket/internal/util"
)

// Headers set by the authenticating gateway in front of this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	HeaderUserName = "X-User-Name"
)

type actorKey struct{}

// ActorMiddleware builds the caller's domain.Actor from the gateway headers.
// Requests without a valid id or with an unknown role are rejected with 401.
func ActorMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(r.Header.Get(HeaderUserID))
			if err != nil {
				h.respondWithError(w, util.NewDomainError(util.ErrUnauthorized, "Unauthorized: missing or invalid user id."))
				return
			}
			role, err := domain.ParseRole(r.Header.Get(HeaderUserRole))
			if err != nil {
				logger.Warn("Rejected request with unknown role", "user_id", userID, "error", err)
				h.respondWithError(w, util.NewDomainError(util.ErrUnauthorized, "Unauthorized: unrecognized role."))
				return
			}
			actor := domain.Actor{UserID: userID, Role: role, FullName: r.Header.Get(HeaderUserName)}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by ActorMiddleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
