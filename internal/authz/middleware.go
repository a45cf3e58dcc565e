package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rajesharora27/dap-sub001/internal/platform/httpx"
)

// Middleware wires permission enforcement for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require guards a route with a point check for the caller in context.
// Routes carrying an {id} URL param are checked per resource; routes
// without one get a type-level check.
func (m Middleware) Require(rt ResourceType, level Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := m.Service.Require(r.Context(), rt, chi.URLParam(r, "id"), level)
			if err != nil {
				m.respond(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) respond(w http.ResponseWriter, err error) {
	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &forbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", forbidden.Error())
	default:
		if m.Logger != nil {
			m.Logger.Error("authz require", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
