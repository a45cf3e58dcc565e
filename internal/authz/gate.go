package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rajesharora27/dap-sub001/internal/shared"
)

// ErrUnauthenticated indicates no caller is attached to the context.
var ErrUnauthenticated = errors.New("authz: authentication required")

// ForbiddenError indicates the caller is known but lacks the required
// level for the resource type. It is always fatal to the calling
// operation; the engine never downgrades a denial.
type ForbiddenError struct {
	Level        Level
	ResourceType ResourceType
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("you do not have %s permission for this %s", e.Level, strings.ToLower(string(e.ResourceType)))
}

// Require enforces a point check for the caller in context. It returns
// ErrUnauthenticated when no caller is attached, a *ForbiddenError when
// the check denies, and the underlying error when the store fails, so a
// database outage is never mistaken for a denial.
func (s *Service) Require(ctx context.Context, rt ResourceType, resourceID string, required Level) error {
	caller := shared.CallerFromContext(ctx)
	if caller == nil {
		return ErrUnauthenticated
	}
	allowed, err := s.CheckPermission(ctx, caller.UserID, rt, resourceID, required)
	if err != nil {
		return err
	}
	if !allowed {
		return &ForbiddenError{Level: required, ResourceType: rt}
	}
	return nil
}

// CanAccess is the non-raising sibling of Require: a missing caller
// yields false rather than an error.
func (s *Service) CanAccess(ctx context.Context, rt ResourceType, resourceID string, required Level) (bool, error) {
	caller := shared.CallerFromContext(ctx)
	if caller == nil {
		return false, nil
	}
	return s.CheckPermission(ctx, caller.UserID, rt, resourceID, required)
}
