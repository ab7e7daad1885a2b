package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/flickx/internal/shared"
)

// expectRow fails with [shared.ErrNotFound] when result touched no rows.
func expectRow(result sql.Result, what, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, key)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
