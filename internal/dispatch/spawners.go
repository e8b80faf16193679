package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ironsheep/image-compose-mcp/internal/imaging"
)

// errTerminated is seen by readers and writers of a terminated local worker.
var errTerminated = errors.New("worker terminated")

// ProcessSpawner runs each worker as a child process speaking the protocol on
// its stdin and stdout. The image-compose-mcp binary serves as its own worker
// through the "worker" subcommand.
type ProcessSpawner struct {
	// Path is the executable to run.
	Path string

	// Args are passed to the executable, e.g. []string{"worker"}.
	Args []string

	// Env is appended to the parent's environment.
	Env []string
}

// Spawn starts the child process unless ctx is already done. The process
// outlives ctx; Terminate kills it and waits for it to exit.
func (s *ProcessSpawner) Spawn(ctx context.Context) (Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(s.Path, s.Args...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %s: %w", s.Path, err)
	}

	return &streamWorker{
		in:  stdin,
		out: stdout,
		stop: func() error {
			// The worker may already have exited after answering.
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("failed to kill worker: %w", err)
			}
			_ = cmd.Wait()
			return nil
		},
	}, nil
}

// LocalSpawner runs each worker on its own goroutine, connected through
// in-memory pipes. Requests and responses are fully serialized, exactly as for
// a child process.
//
// A terminated local worker stops at its next cancellation point; its pipes
// are closed immediately so the caller is never blocked on it.
type LocalSpawner struct {
	// Compositor renders on the worker. Nil means imaging.NewCompositor().
	Compositor *imaging.Compositor
}

func (s *LocalSpawner) Spawn(ctx context.Context) (Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.Compositor
	if c == nil {
		c = imaging.NewCompositor()
	}

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	// The worker's lifetime is bounded by Terminate, not by the spawn context.
	wctx, cancel := context.WithCancel(context.Background())
	go func() {
		err := ServeWorker(wctx, reqR, respW, c)
		respW.CloseWithError(err)
		reqR.Close()
	}()

	return &streamWorker{
		in:  reqW,
		out: respR,
		stop: func() error {
			cancel()
			reqW.CloseWithError(errTerminated)
			respR.CloseWithError(errTerminated)
			return nil
		},
	}, nil
}
