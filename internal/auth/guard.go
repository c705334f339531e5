package auth

import (
	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// Identity is the resolved caller identity attached to a request after the
// bearer token has been verified and its user confirmed to exist.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the caller carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// Authorize applies the self-or-admin rule: the operation is allowed when the
// caller owns the target resource or is an admin. Pure predicate, no I/O;
// every entry point calls this same function so the policy cannot drift
// between transports.
func Authorize(caller Identity, ownerID int64) error {
	if caller.UserID == ownerID || caller.IsAdmin() {
		return nil
	}
	return apperrors.Unauthorized()
}
