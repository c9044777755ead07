package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun attaches a name to a Runnable, used in logs and errors.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

type stopped struct {
	name string
	err  error
}

// Runner keeps the parts of a command running together, e.g. the MQTT
// subscriber and the websocket server of the monitor. When one part stops,
// for any reason, the others are canceled.
type Runner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	started int
	stopCh  chan stopped
	forceCh chan struct{}
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:     ctx,
		cancel:  cancel,
		stopCh:  make(chan stopped),
		forceCh: make(chan struct{}),
	}
}

// HandleSignals cancels all parts on SIGINT or SIGTERM.
// A second signal makes Wait return without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		r.cancel()
		<-sigCh
		glog.Error("stopping again, exit now")
		close(r.forceCh)
	}()
	return r
}

// Go starts the runnables in the background.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(r.started)
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.started++
		go r.run(name, runnable)
	}
	return r
}

func (r *Runner) run(name string, runnable Runnable) {
	glog.V(4).Infof("%s: started", name)
	err := runnable.Run(r.ctx)
	glog.V(4).Infof("%s: stopped: %v", name, err)
	r.cancel()
	select {
	case r.stopCh <- stopped{name: name, err: err}:
	case <-r.forceCh:
	}
}

// Wait blocks until every started runnable stops. Errors other than
// cancellation are returned as an AggregatedError, each prefixed by the
// name of the runnable.
func (r *Runner) Wait() error {
	defer r.cancel()
	var errs AggregatedError
	for n := 0; n < r.started; n++ {
		select {
		case <-r.forceCh:
			return errors.New("forced exit")
		case s := <-r.stopCh:
			if s.err != nil && !errors.Is(s.err, context.Canceled) {
				errs.Add(fmt.Errorf("%s: %w", s.name, s.err))
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCloser runs fn, which can't be canceled itself, until it
// returns or ctx is done. closer is closed in either case, on cancellation
// it is expected to make fn return.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		closer.Close()
		return err
	case <-ctx.Done():
		closer.Close()
		<-errCh
		return context.Canceled
	}
}
