package helpers

import (
	"context"
	"fmt"
	"time"
)

// ----------------------------------------------------------------------------------
// Typed error wrappers. Each layer wraps failures in its own type so callers
// can tell a feed problem from a storage problem without string matching.
// ----------------------------------------------------------------------------------

type ScannerError struct {
	Op  string
	Err error
}

func (e *ScannerError) Error() string {
	return fmt.Sprintf("scanner: %s: %v", e.Op, e.Err)
}

func (e *ScannerError) Unwrap() error { return e.Err }

type FeedError struct {
	Op  string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed: %s: %v", e.Op, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ----------------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries+1 times with exponential backoff
// starting at baseDelay. Returns the last error if all attempts fail, or the
// context error if the context ends while waiting.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
