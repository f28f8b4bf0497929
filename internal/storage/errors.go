package storage

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a profile, session or plan does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write would break the one-active-session-per-user rule.
	ErrConflict = errors.New("user already has an active session")

	// ErrStorage wraps every other database or redis failure.
	ErrStorage = errors.New("storage error")
)

// wrapError maps known driver errors through rules and wraps the rest in defaultErr,
// keeping the original message for logs.
func wrapError(err error, rules map[error]error, defaultErr error) error {
	if err == nil {
		return nil
	}
	for source, target := range rules {
		if errors.Is(err, source) {
			return target
		}
	}
	// Already classified by this package.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %v", defaultErr, err)
}

var (
	dbErrorRules = map[error]error{
		gorm.ErrRecordNotFound: ErrNotFound,
	}

	redisErrorRules = map[error]error{
		redis.Nil: ErrNotFound,
	}
)

// WrapDBError classifies a gorm error.
func WrapDBError(err error) error {
	return wrapError(err, dbErrorRules, ErrStorage)
}

// WrapRedisError classifies a redis error.
func WrapRedisError(err error) error {
	return wrapError(err, redisErrorRules, ErrStorage)
}
