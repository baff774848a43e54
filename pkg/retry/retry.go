// SkyCart Core
// Copyright (c) 2026 The SkyCart Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of SkyCart Core.
//
// SkyCart Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SkyCart Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SkyCart Core.  If not, see <http://www.gnu.org/licenses/>.

// Package retry provides generic bounded retry with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrRetriesExhausted wraps the last failure after all attempts are spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy controls retry behavior. The first retry waits BaseDelay, each
// subsequent retry doubles the wait, capped at MaxDelay (no cap if zero).
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// Delay returns the backoff delay before retry attempt n (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d < p.BaseDelay {
		// shift overflow
		d = p.MaxDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do invokes op until it succeeds or the policy's attempts are exhausted.
// op runs once plus up to MaxRetries additional times. A nil clock uses the
// real clock. Context cancellation aborts the backoff wait and returns the
// context error.
func Do[T any](
	ctx context.Context,
	clock clockwork.Clock,
	policy Policy,
	op func(ctx context.Context) (T, error),
) (T, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.Delay(attempt)
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying after backoff")
			select {
			case <-clock.After(delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w",
		ErrRetriesExhausted, policy.MaxRetries+1, lastErr)
}
