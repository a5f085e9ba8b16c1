// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail, or the
// context error if ctx is done first.
func WithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	// Check context before attempting
	if err := ctx.Err(); err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = baseDelay << 10
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		if err := operation(); err != nil {
			slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", err)
			return err
		}
		if attempt > 1 {
			slog.Debug("operation succeeded after retry", "attempt", attempt)
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx), nil)
}

// Permanent wraps err so that WithBackoff stops retrying immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
