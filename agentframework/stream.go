// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"sync"
)

// ResponseStream is a pull iterator over values produced by a background
// goroutine. Always call Close.
type ResponseStream[T any] struct {
	values <-chan T
	done   <-chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	mu  sync.Mutex
	err error
}

// NewResponseStream starts produce in a goroutine. produce sends values on ch
// and returns when it is finished; its error is reported by Next once all
// values have been consumed.
func NewResponseStream[T any](ctx context.Context, produce func(ctx context.Context, ch chan<- T) error) *ResponseStream[T] {
	ctx, cancel := context.WithCancel(ctx)
	values := make(chan T, 1)
	done := make(chan struct{})
	s := &ResponseStream[T]{values: values, done: done, cancel: cancel}

	go func() {
		defer close(done)
		defer close(values)
		if err := produce(ctx, values); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

// Next returns the next value. ok is false once the stream is exhausted; err
// is the producer's error, if any.
func (s *ResponseStream[T]) Next(ctx context.Context) (val T, ok bool, err error) {
	select {
	case <-ctx.Done():
		return val, false, ctx.Err()
	case v, open := <-s.values:
		if open {
			return v, true, nil
		}
	}
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return val, false, s.err
}

// Collect drains the stream.
func (s *ResponseStream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Close stops the producer and waits for it to exit.
func (s *ResponseStream[T]) Close() error {
	s.once.Do(func() {
		s.cancel()
		for range s.values {
		}
		<-s.done
	})
	return nil
}

// MapStream adapts a stream of A into a stream of B.
func MapStream[A, B any](ctx context.Context, src *ResponseStream[A], fn func(A) B) *ResponseStream[B] {
	return NewResponseStream(ctx, func(ctx context.Context, ch chan<- B) error {
		defer src.Close()
		for {
			v, ok, err := src.Next(ctx)
			if err != nil || !ok {
				return err
			}
			select {
			case ch <- fn(v):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
