package profiles

import (
	"time"

	"github.com/resono-hq/resono/internal/roles"
)

// Profile is the directory record an identity maintains about itself.
type Profile struct {
	IdentityID string
	FullName   string
	Email      string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DirectoryEntry pairs a profile with the identity's current role for the
// user management listing. Identities that never completed role selection
// appear with RoleUnassigned.
type DirectoryEntry struct {
	Profile
	Role roles.Role
}
