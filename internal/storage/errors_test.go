package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"anonmatch/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapDBError(t *testing.T) {
	assert.NoError(t, storage.WrapDBError(nil))
	assert.ErrorIs(t, storage.WrapDBError(gorm.ErrRecordNotFound), storage.ErrNotFound)
	assert.ErrorIs(t, storage.WrapDBError(fmt.Errorf("query: %w", gorm.ErrRecordNotFound)), storage.ErrNotFound)

	err := storage.WrapDBError(errors.New("connection refused"))
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.Contains(t, err.Error(), "connection refused", "original cause is kept for logs")
}

func TestWrapDBError_KeepsClassifiedErrors(t *testing.T) {
	assert.Equal(t, storage.ErrConflict, storage.WrapDBError(storage.ErrConflict))
	assert.Equal(t, storage.ErrNotFound, storage.WrapDBError(storage.ErrNotFound))
}

func TestWrapRedisError(t *testing.T) {
	assert.ErrorIs(t, storage.WrapRedisError(redis.Nil), storage.ErrNotFound)
	assert.ErrorIs(t, storage.WrapRedisError(errors.New("i/o timeout")), storage.ErrStorage)
}
