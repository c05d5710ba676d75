package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPolicy 记录每次退避间隔，不真正等待
func recordingPolicy(maxAttempts int, delays *[]time.Duration) Policy {
	p := DefaultPolicy()
	p.MaxAttempts = maxAttempts
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	var delays []time.Duration
	calls := 0

	got, err := Execute(context.Background(), recordingPolicy(3, &delays), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestExecute_FatalErrorIsNotRetried(t *testing.T) {
	fatal := errors.New("bad request")
	tests := []struct {
		name string
		err  error
	}{
		{"unclassified", fatal},
		{"classified other", Classify(KindOther, fatal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			calls := 0

			_, err := Execute(context.Background(), recordingPolicy(3, &delays), func(ctx context.Context) (int, error) {
				calls++
				return 0, tt.err
			})

			assert.Same(t, tt.err, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, delays)
			assert.NotErrorIs(t, err, ErrRetriesExhausted)
		})
	}
}

func TestExecute_RetriableKinds(t *testing.T) {
	for _, kind := range []Kind{KindRateLimited, KindForbidden, KindNotFound} {
		t.Run(kind.String(), func(t *testing.T) {
			var delays []time.Duration
			calls := 0

			got, err := Execute(context.Background(), recordingPolicy(3, &delays), func(ctx context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, Classify(kind, errors.New("transient"))
				}
				return 42, nil
			})

			require.NoError(t, err)
			assert.Equal(t, 42, got)
			assert.Equal(t, 3, calls)
			assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
		})
	}
}

func TestExecute_ExhaustsAfterMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 3, 5} {
		var delays []time.Duration
		calls := 0
		last := errors.New("429 too many requests")

		_, err := Execute(context.Background(), recordingPolicy(maxAttempts, &delays), func(ctx context.Context) (int, error) {
			calls++
			return 0, Classify(KindRateLimited, last)
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.ErrorIs(t, err, last)
		assert.Equal(t, maxAttempts, calls)
		require.Len(t, delays, maxAttempts-1)

		// 第 k 次重试前的间隔 = 初始间隔 × 倍数^(k-1)
		want := time.Second
		for k, d := range delays {
			assert.Equal(t, want, d, "delay before retry %d", k+1)
			want *= 2
		}
	}
}

func TestExecute_CustomBackoff(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(4, &delays)
	p.InitialDelay = 100 * time.Millisecond
	p.Multiplier = 3

	_, err := Execute(context.Background(), p, func(ctx context.Context) (int, error) {
		return 0, Classify(KindNotFound, errors.New("Requested entity was not found."))
	})

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 900 * time.Millisecond}, delays)
}

func TestExecute_ForbiddenCanBeMadeFatal(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(3, &delays)
	p.RetryForbidden = false
	calls := 0
	forbidden := Classify(KindForbidden, errors.New("permission denied"))

	_, err := Execute(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, forbidden
	})

	assert.Same(t, forbidden, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_FatalAfterRetriable(t *testing.T) {
	var delays []time.Duration
	fatal := errors.New("internal")
	calls := 0

	_, err := Execute(context.Background(), recordingPolicy(3, &delays), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Classify(KindRateLimited, errors.New("slow down"))
		}
		return 0, fatal
	})

	assert.Same(t, fatal, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, delays, 1)
}

func TestExecute_ZeroAttemptsRunsOnce(t *testing.T) {
	var delays []time.Duration
	calls := 0

	_, err := Execute(context.Background(), recordingPolicy(0, &delays), func(ctx context.Context) (int, error) {
		calls++
		return 0, Classify(KindRateLimited, errors.New("slow down"))
	})

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, calls)
}

func TestExecute_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultPolicy()
	p.InitialDelay = time.Hour
	calls := 0

	_, err := Execute(ctx, p, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, Classify(KindRateLimited, errors.New("slow down"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := errors.Join(errors.New("context"), Classify(KindForbidden, base))

	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.Equal(t, KindOther, KindOf(base))
	assert.ErrorIs(t, wrapped, base)
	assert.Nil(t, Classify(KindRateLimited, nil))
}
