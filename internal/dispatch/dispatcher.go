package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// DefaultTimeout bounds an Offloaded attempt when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Path names the execution path that produced a result.
type Path string

const (
	// PathInline means the composition ran on the calling goroutine.
	PathInline Path = "inline"

	// PathOffloaded means a worker produced the result.
	PathOffloaded Path = "offloaded"

	// PathFallback means the worker failed and the inline retry succeeded.
	PathFallback Path = "fallback"
)

// Options configures a Dispatcher.
type Options struct {
	// Spawner starts workers. Nil disables offloading.
	Spawner Spawner

	// OffscreenSurface reports whether workers can allocate a drawing surface.
	// Offloading requires it.
	OffscreenSurface bool

	// Timeout bounds each Offloaded attempt. Zero means DefaultTimeout.
	Timeout time.Duration

	// Compositor renders Inline and fallback compositions. Nil means
	// imaging.NewCompositor().
	Compositor *imaging.Compositor

	// Debug logs every state transition.
	Debug bool
}

// Result is a successful composition.
type Result struct {
	Output *imaging.Output

	// Path is the execution path that produced Output.
	Path Path
}

// Dispatcher routes compositions to a worker or the calling goroutine.
// It holds configuration only and is safe for concurrent use.
type Dispatcher struct {
	opts Options
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Compositor == nil {
		opts.Compositor = imaging.NewCompositor()
	}
	return &Dispatcher{opts: opts}
}

// state is a step of one Compose call.
type state int

const (
	stateDispatching state = iota
	stateOffloaded
	stateFallbackInline
	stateInline
	stateSucceeded
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateDispatching:
		return "dispatching"
	case stateOffloaded:
		return "offloaded"
	case stateFallbackInline:
		return "fallback-inline"
	case stateInline:
		return "inline"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Compose composes sources according to settings.
//
// Returns layout.ErrEmptyInput without doing any work if sources is empty.
// Worker transport failures and timeouts are recovered by one inline attempt
// and never reach the caller unless that attempt fails too, in which case the
// inline error is returned. An input the worker could not decode is returned
// as its *imaging.DecodeError without an inline attempt.
func (d *Dispatcher) Compose(ctx context.Context, sources []imaging.Source, settings layout.Settings) (*Result, error) {
	if len(sources) == 0 {
		return nil, layout.ErrEmptyInput
	}

	var (
		out  *imaging.Output
		err  error
		path Path
	)

	st := stateDispatching
	for {
		next := st
		switch st {
		case stateDispatching:
			if d.canOffload(len(sources)) {
				next = stateOffloaded
			} else {
				next = stateInline
			}

		case stateOffloaded:
			out, err = d.offload(ctx, sources, settings)
			switch {
			case errors.Is(err, imaging.ErrDecode):
				// The inline decoder would reject the same bytes.
				next = stateFailed
			case err != nil:
				log.Printf("Worker composition failed, falling back to inline: %v", err)
				next = stateFallbackInline
			default:
				path = PathOffloaded
				next = stateSucceeded
			}

		case stateFallbackInline, stateInline:
			out, err = imaging.Compose(ctx, sources, settings, d.opts.Compositor)
			path = PathInline
			if st == stateFallbackInline {
				path = PathFallback
			}
			next = stateSucceeded
			if err != nil {
				next = stateFailed
			}

		case stateSucceeded:
			return &Result{Output: out, Path: path}, nil

		case stateFailed:
			return nil, err
		}

		if d.opts.Debug {
			log.Printf("compose %d images: %s -> %s", len(sources), st, next)
		}
		st = next
	}
}

// canOffload reports whether a composition of n images goes to a worker.
func (d *Dispatcher) canOffload(n int) bool {
	return d.opts.Spawner != nil && d.opts.OffscreenSurface && n > 1
}

type reply struct {
	resp *Response
	err  error
}

// offload runs one composition on a fresh worker. The worker is terminated
// before offload returns, whatever the outcome.
func (d *Dispatcher) offload(ctx context.Context, sources []imaging.Source, settings layout.Settings) (*imaging.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	w, err := d.opts.Spawner.Spawn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerTransport, err)
	}
	defer func() {
		if err := w.Terminate(); err != nil {
			log.Printf("Failed to terminate worker: %v", err)
		}
	}()

	req := &Request{Images: sources, Settings: settings}
	replies := make(chan reply, 1)
	go func() {
		resp, err := w.Roundtrip(ctx, req)
		replies <- reply{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrCompositionTimeout, d.opts.Timeout)
		}
		return nil, ctx.Err()

	case r := <-replies:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWorkerTransport, r.err)
		}
		if r.resp == nil {
			return nil, fmt.Errorf("%w: malformed response: empty", ErrWorkerTransport)
		}
		return r.resp.Output()
	}
}
