package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		caller  Identity
		ownerID int64
		wantErr bool
	}{
		{
			name:    "owner accesses own resource",
			caller:  Identity{UserID: 5, Role: domain.RoleUser},
			ownerID: 5,
		},
		{
			name:    "admin accesses another user's resource",
			caller:  Identity{UserID: 1, Role: domain.RoleAdmin},
			ownerID: 5,
		},
		{
			name:    "non admin accesses another user's resource",
			caller:  Identity{UserID: 2, Role: domain.RoleUser},
			ownerID: 5,
			wantErr: true,
		},
		{
			name:    "unknown role accesses another user's resource",
			caller:  Identity{UserID: 2, Role: "moderator"},
			ownerID: 5,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, tt.ownerID)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	assert.True(t, Identity{Role: domain.RoleAdmin}.IsAdmin())
	assert.False(t, Identity{Role: domain.RoleUser}.IsAdmin())
}
