package pacer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallReturnsImmediatelyOnSuccess(t *testing.T) {
	p := New(context.Background(), MinSleep(time.Millisecond), MaxSleep(time.Millisecond))
	calls := 0
	err := p.Call(func() (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallRetriesUntilSuccess(t *testing.T) {
	p := New(context.Background(), MinSleep(time.Millisecond), MaxSleep(2*time.Millisecond))
	calls := 0
	err := p.Call(func() (bool, error) {
		calls++
		if calls < 3 {
			return true, errors.New("transient")
		}
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCallStopsAtMaxRetries(t *testing.T) {
	p := New(context.Background(), MinSleep(time.Millisecond), MaxSleep(time.Millisecond), MaxRetries(2))
	calls := 0
	err := p.Call(func() (bool, error) {
		calls++
		return true, errors.New("always transient")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestCallAbortsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, MinSleep(50*time.Millisecond), MaxSleep(time.Second))
	cancel()
	calls := 0
	err := p.Call(func() (bool, error) {
		calls++
		return true, errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
