package authz

import (
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/models"
)

// Actor is the authenticated identity threaded explicitly into every
// core operation. It is rebuilt from the token on each call; the core
// never caches a resolved identity across operations.
type Actor struct {
	ID       uuid.UUID
	Username string
	FullName string
	Role     models.Role
}
