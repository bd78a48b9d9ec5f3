package account

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// NewUserID returns a random id, or one derived from the email when
// fromEmail is set so the same address always maps to the same id.
func NewUserID(email string, fromEmail bool) uuid.UUID {
	if fromEmail {
		if id, err := hashid.NewUUID(NormalizeEmail(email)); err == nil {
			return id
		}
	}
	return uuid.New()
}
