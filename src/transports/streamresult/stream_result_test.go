package streamresult

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceStreamResult(t *testing.T) {
	closed := false
	sr := NewSliceStreamResult([]any{"a", 2}, func() error { closed = true; return nil })
	v, err := sr.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = sr.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	_, err = sr.Next()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, sr.Close())
	assert.True(t, closed)
}

func TestChannelStreamResult(t *testing.T) {
	ch := make(chan any, 3)
	ch <- map[string]any{"n": 1}
	ch <- errors.New("broken")
	close(ch)
	sr := NewChannelStreamResult(ch, nil)

	v, err := sr.Next()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1}, v)
	_, err = sr.Next()
	assert.EqualError(t, err, "broken")
	_, err = sr.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, sr.Close())
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	v, err := Collect(ctx, NewSliceStreamResult(nil, nil))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Collect(ctx, NewSliceStreamResult([]any{"only"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "only", v)

	v, err = Collect(ctx, NewSliceStreamResult([]any{1, 2}, nil))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	ch := make(chan any, 1)
	ch <- errors.New("stream failed")
	close(ch)
	_, err = Collect(ctx, NewChannelStreamResult(ch, nil))
	assert.EqualError(t, err, "stream failed")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Collect(cancelled, NewSliceStreamResult([]any{1}, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContextStreamResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan any, 1)
	ch <- "partial"
	sr := NewContextStreamResult(ctx, ch, nil)

	v, err := sr.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", v)

	cancel()
	close(ch)
	_, err = sr.Next()
	assert.ErrorIs(t, err, context.Canceled)

	done := make(chan any)
	close(done)
	_, err = NewContextStreamResult(context.Background(), done, nil).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCollect_CancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan any)
	go func() {
		defer close(ch)
		ch <- map[string]any{"n": 1}
		cancel()
	}()
	v, err := Collect(ctx, NewChannelStreamResult(ch, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, v)
}
