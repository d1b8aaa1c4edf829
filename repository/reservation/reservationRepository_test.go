package reservation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsOverlapViolation(t *testing.T) {
	excl := &pgconn.PgError{Code: pgerrcode.ExclusionViolation, ConstraintName: "reservations_no_overlap_ex"}
	require.True(t, isOverlapViolation(excl))
	require.True(t, isOverlapViolation(fmt.Errorf("insert: %w", excl)))

	require.False(t, isOverlapViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	require.False(t, isOverlapViolation(errors.New("boom")))
	require.False(t, isOverlapViolation(nil))
}
