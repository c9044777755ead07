package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunnerFirstStopCancelsOthers(t *testing.T) {
	failure := errors.New("port gone")
	r := NewRunner().Go(
		NamedRun("reader", RunFunc(func(ctx context.Context) error {
			return failure
		})),
		NamedRun("printer", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	err := r.Wait()
	errs := err.(*AggregatedError).Errors
	require.Len(t, errs, 1)
	require.True(t, errors.Is(errs[0], failure))
	require.Equal(t, "reader: port gone", errs[0].Error())
}

func TestRunnerClean(t *testing.T) {
	r := NewRunner().Go(RunFunc(func(ctx context.Context) error { return nil }))
	require.NoError(t, r.Wait())
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	var closed int
	closer := closerFunc(func() error {
		closed++
		close(block)
		return nil
	})
	cancel()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-block
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, closed)

	closed = 0
	closer = closerFunc(func() error { closed++; return nil })
	require.NoError(t, RunWithContextCloser(context.Background(), closer, func() error { return nil }))
	require.Equal(t, 1, closed)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}
