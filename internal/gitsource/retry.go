package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// withRetry wraps a fetch operation with the client's backoff policy.
// Permanent errors (bad credentials, missing repository) fail immediately.
func (c *Client) withRetry(ctx context.Context, op, repoName string, fn func() (string, error)) (string, error) {
	if c.policy.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying git operation",
				slog.String("operation", op),
				logfields.Name(repoName),
				slog.Int("attempt", attempt))
		}
		path, err := fn()
		if err == nil {
			return path, nil
		}
		lastErr = err
		if isPermanentFetchError(err) {
			slog.Error("Permanent git error",
				slog.String("operation", op),
				logfields.Name(repoName),
				logfields.Error(err))
			return "", err
		}
		if attempt == c.policy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.policy.Delay(attempt + 1)):
		}
	}
	return "", fmt.Errorf("git %s failed after retries: %w", op, lastErr)
}

// isPermanentFetchError reports whether retrying cannot help.
func isPermanentFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no such remote") || strings.Contains(msg, "invalid reference") {
		return true
	}
	if strings.Contains(msg, "unsupported protocol") {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}
