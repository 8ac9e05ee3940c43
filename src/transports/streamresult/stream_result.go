// Package streamresult holds the pull-style results of streaming tool calls.
package streamresult

import (
	"context"
	"errors"
	"io"
)

// StreamResult yields the parts of a streamed tool result. Next returns io.EOF
// once the stream is exhausted.
type StreamResult interface {
	Next() (any, error)
	Close() error
}

// SliceStreamResult replays a fixed list of parts.
type SliceStreamResult struct {
	items   []any
	index   int
	closeFn func() error
}

func NewSliceStreamResult(items []any, closeFn func() error) *SliceStreamResult {
	return &SliceStreamResult{items: items, closeFn: closeFn}
}

func (sr *SliceStreamResult) Next() (any, error) {
	if sr.index >= len(sr.items) {
		return nil, io.EOF
	}
	item := sr.items[sr.index]
	sr.index++
	return item, nil
}

func (sr *SliceStreamResult) Close() error {
	if sr.closeFn != nil {
		return sr.closeFn()
	}
	return nil
}

// ChannelStreamResult reads parts from a channel. An error sent on the channel
// is returned by Next.
type ChannelStreamResult struct {
	ctx     context.Context
	ch      <-chan any
	closeFn func() error
}

func NewChannelStreamResult(ch <-chan any, closeFn func() error) *ChannelStreamResult {
	return &ChannelStreamResult{ch: ch, closeFn: closeFn}
}

// NewContextStreamResult is a ChannelStreamResult whose producer stops when ctx
// is done. Once the channel is closed, Next reports ctx.Err() instead of io.EOF
// if ctx ended first.
func NewContextStreamResult(ctx context.Context, ch <-chan any, closeFn func() error) *ChannelStreamResult {
	return &ChannelStreamResult{ctx: ctx, ch: ch, closeFn: closeFn}
}

func (sr *ChannelStreamResult) Next() (any, error) {
	item, ok := <-sr.ch
	if !ok {
		if sr.ctx != nil && sr.ctx.Err() != nil {
			return nil, sr.ctx.Err()
		}
		return nil, io.EOF
	}
	if err, isErr := item.(error); isErr {
		return nil, err
	}
	return item, nil
}

func (sr *ChannelStreamResult) Close() error {
	if sr.closeFn != nil {
		return sr.closeFn()
	}
	return nil
}

// Collect drains sr and closes it. No part yields nil, one part is returned
// as its value and several parts as a list. A stream cut short by ctx is an
// error, not a partial result.
func Collect(ctx context.Context, sr StreamResult) (any, error) {
	defer sr.Close()
	var parts []any
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := sr.Next()
		if errors.Is(err, io.EOF) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	default:
		return parts, nil
	}
}
