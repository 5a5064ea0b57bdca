package domain

import "errors"

var (
	ErrCapabilityUnavailable = errors.New("capability unavailable in this environment")
	ErrExtensionBlocked      = errors.New("extension access blocked")
	ErrEmptyIdentifier       = errors.New("rate limit identifier is empty")
	ErrWindowTooLarge        = errors.New("rate limit window exceeds the maximum")
)

func IsCapabilityUnavailable(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}

func IsExtensionBlocked(err error) bool {
	return errors.Is(err, ErrExtensionBlocked)
}
