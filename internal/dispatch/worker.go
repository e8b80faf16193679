package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ironsheep/image-compose-mcp/internal/imaging"
)

// Spawner starts a fresh worker for a single composition.
type Spawner interface {
	Spawn(ctx context.Context) (Worker, error)
}

// Worker is one live worker. Workers are never reused.
type Worker interface {
	// Roundtrip sends req and waits for the worker's response. It returns
	// an error if the exchange itself fails; a worker-reported failure is a
	// Response with Success false.
	Roundtrip(ctx context.Context, req *Request) (*Response, error)

	// Terminate stops the worker and releases its resources. It unblocks
	// any Roundtrip in progress and is safe to call more than once.
	Terminate() error
}

// ServeWorker runs the worker side of the protocol: it reads requests from r,
// composes each one inline and writes a response to w, until r reaches EOF.
//
// Composition failures are reported in the response. A request that cannot be
// parsed is answered with a failure response and ends the loop with an error,
// since the stream position is no longer reliable.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, c *imaging.Compositor) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			err = fmt.Errorf("failed to parse request: %w", err)
			if encErr := enc.Encode(failureResponse(err)); encErr != nil {
				return fmt.Errorf("failed to write response: %w", encErr)
			}
			return err
		}

		resp := handleRequest(ctx, &req, c)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}

// handleRequest composes one request on the worker.
func handleRequest(ctx context.Context, req *Request, c *imaging.Compositor) *Response {
	out, err := imaging.Compose(ctx, req.Images, req.Settings, c)
	if err != nil {
		return failureResponse(err)
	}
	return successResponse(out)
}

// streamWorker talks to a worker over a pair of byte streams. Each worker
// handles exactly one request; stdin is closed after it is sent so the worker
// sees EOF and exits once it has answered.
type streamWorker struct {
	in   io.WriteCloser
	out  io.Reader
	stop func() error

	once    sync.Once
	stopErr error
}

func (w *streamWorker) Roundtrip(ctx context.Context, req *Request) (*Response, error) {
	if err := json.NewEncoder(w.in).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := w.in.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request stream: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(w.out).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &resp, nil
}

func (w *streamWorker) Terminate() error {
	w.once.Do(func() {
		w.stopErr = w.stop()
	})
	return w.stopErr
}
