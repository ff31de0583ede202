package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// CASGuard provides compare-and-set write helpers. Conditional single-row
// UPDATEs replace application-level read-modify-write loops: the WHERE
// clause carries the precondition and RowsAffected reports who won.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByStatus updates a row only while its status is one of the allowed
// values. Used for the one-way enrollment and redemption transitions.
func (g CASGuard) UpdateByStatus(dbc dbctx.Context, table string, id uuid.UUID, allowedStatuses []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByStatus")
	}
	if len(allowedStatuses) == 0 {
		return false, ValidationError("allowedStatuses must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireStatusAllowed validates the current status before attempting a CAS
// write so callers can return a precise invalid-state message.
func RequireStatusAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("allowed statuses cannot be empty")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return InvalidStateError("status transition not allowed from " + current)
}
