// go-siterm
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-siterm.
//
// go-siterm is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-siterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-siterm; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	retries := 0
	got, err := WithRetry(context.Background(), RetryConfig{
		MaxRetries: 3,
		OnRetry:    func(attempt int) error { retries = attempt; return nil },
	}, func() (string, bool, error) {
		attempts++
		return "ok", attempts < 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, retries)
}

func TestWithRetryExhausted(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 2}, func() (int, bool, error) {
		attempts++
		return 0, true, nil
	})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryPermanentError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	attempts := 0
	_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 5}, func() (int, bool, error) {
		attempts++
		return 0, false, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryOnRetryAborts(t *testing.T) {
	t.Parallel()

	custom := errors.New("custom")
	attempts := 0
	_, err := WithRetry(context.Background(), RetryConfig{
		MaxRetries: 5,
		OnRetry:    func(int) error { return custom },
	}, func() (int, bool, error) {
		attempts++
		return 0, true, nil
	})

	require.ErrorIs(t, err, custom)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, RetryConfig{MaxRetries: 3, RetryDelay: time.Second}, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutRetryRunsAtLeastOnce(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := TimeoutRetry(context.Background(), 0, time.Millisecond, func() (int, bool, error) {
		attempts++
		return 7, false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, attempts)
}

func TestTimeoutRetryDeadline(t *testing.T) {
	t.Parallel()

	attempts := 0
	start := time.Now()
	_, err := TimeoutRetry(context.Background(), 30*time.Millisecond, 5*time.Millisecond,
		func() (int, bool, error) {
			attempts++
			return 0, true, nil
		})

	require.ErrorIs(t, err, ErrRetryTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Greater(t, attempts, 1)
}

func TestTimeoutRetryContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TimeoutRetry(ctx, time.Second, 10*time.Millisecond, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
