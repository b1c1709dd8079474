package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Medium is a synchronous key/value store holding UTF-8 text, in the manner
// of a browser's localStorage.
type Medium interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() ([]string, error)
	Clear() error
}

// QuotaError is returned by the bundled media when a write would exceed the
// configured capacity.
type QuotaError struct {
	Key      string
	Needed   int
	Capacity int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded writing %s: need %d bytes, capacity %d", e.Key, e.Needed, e.Capacity)
}

func (e *QuotaError) Name() string {
	return "QuotaExceededError"
}

func (e *QuotaError) Code() int {
	return 22
}

type namedError interface {
	Name() string
}

type codedError interface {
	Code() int
}

// IsQuotaExceeded recognises capacity exhaustion across the error shapes a
// medium may produce: a named error, a numeric code, a sqlite SQLITE_FULL, or
// a message that mentions the quota.
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var named namedError
	if errors.As(err, &named) && named.Name() == "QuotaExceededError" {
		return true
	}

	var coded codedError
	if errors.As(err, &coded) {
		if code := coded.Code(); code == 22 || code == 1014 {
			return true
		}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
