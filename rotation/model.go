package rotation

import "time"

// Family is the persisted rotation state for one session family: the lineage
// of refresh tokens descending from a single signin. A user may own several
// concurrent families, one per device or session.
type Family struct {
	FamilyID   string
	UserID     string
	CurrentJTI string
	Revoked    bool

	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the family's absolute lifetime has passed. The
// expiry is fixed at creation; rotation never extends it.
func (f *Family) Expired(now time.Time) bool {
	return f.ExpiresAt <= now.Unix()
}
