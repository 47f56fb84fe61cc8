package domain

import "github.com/pkg/errors"

var (
	// ErrNotFound means the show, episode or person is not tracked locally.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable means a catalog request failed or timed out. Retryable.
	ErrUpstreamUnavailable = errors.New("catalog provider unavailable")
	// ErrValidation means an enum value is outside the recognised set.
	ErrValidation = errors.New("validation error")
)

// Unavailable wraps a failed catalog fetch so that it always satisfies
// errors.Is(err, ErrUpstreamUnavailable), whatever the catalog returned.
func Unavailable(err error, format string, args ...any) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Wrapf(ErrUpstreamUnavailable, format+": %v", append(args, err)...)
}
