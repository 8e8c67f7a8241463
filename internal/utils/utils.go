package utils

import (
	"context"
	"strings"
	"time"
)

var sleep = time.Sleep

// WaitFor pauses for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// LocalPart returns the part of an email address before the '@'.
func LocalPart(address string) string {
	address = strings.TrimSpace(address)
	if idx := strings.Index(address, "@"); idx >= 0 {
		return address[:idx]
	}
	return address
}
