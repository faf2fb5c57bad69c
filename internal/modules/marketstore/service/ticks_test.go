package service

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(errors.Wrap(dup, "insert tick")))

	assert.False(t, isDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKey(errors.New("plain failure")))
	assert.False(t, isDuplicateKey(nil))
}
