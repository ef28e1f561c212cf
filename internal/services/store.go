// Package services implements the matching and messaging engine: moderation,
// likes, match detection, conversations, messages and view counting.
package services

import (
	"context"
	"fmt"

	"community-match-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertOrIgnore inserts value unless a row with the same values in the
// unique columns already exists. It reports whether this call created the row.
// The store's uniqueness constraint is the arbiter; there is no prior read.
func insertOrIgnore(ctx context.Context, db *gorm.DB, value interface{}, columns ...string) (bool, error) {
	conflict := clause.OnConflict{DoNothing: true}
	for _, c := range columns {
		conflict.Columns = append(conflict.Columns, clause.Column{Name: c})
	}
	res := db.WithContext(ctx).Clauses(conflict).Create(value)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func storeError(op string, err error) error {
	return models.NewInternalError(fmt.Errorf("%s: %w", op, err))
}
