package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestIsExclusionViolation(t *testing.T) {
	assert.True(t, isExclusionViolation(&pgconn.PgError{Code: "23P01"}))
	assert.True(t, isExclusionViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})))
	assert.False(t, isExclusionViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isExclusionViolation(fmt.Errorf("plain")))
}
