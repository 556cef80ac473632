package viewstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestFlow_SubscribeGetsCurrentValue(t *testing.T) {
	f := NewFlow("Overall")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := f.Subscribe(ctx)
	assert.Equal(t, "Overall", receive(t, sub))

	f.Set("Income")
	assert.Equal(t, "Income", receive(t, sub))
	assert.Equal(t, "Income", f.Value())
}

func TestFlow_ConflatesToLatest(t *testing.T) {
	f := NewFlow(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := f.Subscribe(ctx)
	assert.Equal(t, 0, receive(t, sub))

	for i := 1; i <= 5; i++ {
		f.Set(i)
	}
	// Intermediate values may be skipped but never reordered.
	last := 0
	for last != 5 {
		v := receive(t, sub)
		require.Greater(t, v, last)
		last = v
	}

	select {
	case v := <-sub:
		t.Fatalf("unexpected extra value %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFlow_CancelClosesSubscription(t *testing.T) {
	f := NewFlow(1)
	ctx, cancel := context.WithCancel(context.Background())

	sub := f.Subscribe(ctx)
	receive(t, sub)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestStateConstructors(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, Loading, NewLoading[int]().Status)
	assert.Equal(t, Empty, NewEmpty[int]().Status)

	ok := NewSuccess([]string{"a"})
	assert.Equal(t, Success, ok.Status)
	assert.Equal(t, []string{"a"}, ok.Data)
	assert.NoError(t, ok.Err)

	failed := NewError[string](cause)
	assert.Equal(t, Error, failed.Status)
	assert.ErrorIs(t, failed.Err, cause)
	assert.Equal(t, "error", failed.Status.String())
}

func TestAwait(t *testing.T) {
	f := NewFlow(NewLoading[int]())

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Set(NewSuccess(7))
	}()

	got, err := Await(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Success, got.Status)
	assert.Equal(t, 7, got.Data)

	stuck := NewFlow(NewLoading[int]())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Await(ctx, stuck)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
