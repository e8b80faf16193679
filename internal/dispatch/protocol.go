package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

var (
	// ErrWorkerTransport covers every failed exchange with a worker: it could
	// not be started, the stream broke, it reported an error, or its response
	// was malformed. It triggers the inline fallback.
	ErrWorkerTransport = errors.New("worker transport failed")

	// ErrCompositionTimeout is returned when a worker does not answer within
	// the configured bound. It triggers the inline fallback.
	ErrCompositionTimeout = errors.New("composition timed out")
)

// Request is the message sent to a worker.
type Request struct {
	Images   []imaging.Source `json:"images"`
	Settings layout.Settings  `json:"settings"`
}

// Response is the message a worker sends back.
type Response struct {
	Success     bool           `json:"success"`
	ImageData   []byte         `json:"imageData,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	Error       string         `json:"error,omitempty"`
	DecodeError *DecodeFailure `json:"decodeError,omitempty"`
}

// DecodeFailure identifies the input a worker could not decode.
type DecodeFailure struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// successResponse wraps a finished composition.
func successResponse(out *imaging.Output) *Response {
	return &Response{Success: true, ImageData: out.Data, MimeType: out.MimeType}
}

// failureResponse reports err to the caller. Decode failures keep the index
// and name of the offending input.
func failureResponse(err error) *Response {
	resp := &Response{Success: false, Error: err.Error()}
	var de *imaging.DecodeError
	if errors.As(err, &de) {
		resp.DecodeError = &DecodeFailure{Index: de.Index, Name: de.Name, Message: resp.Error}
		if de.Err != nil {
			resp.DecodeError.Message = de.Err.Error()
		}
	}
	return resp
}

// Output validates the response and converts it into an imaging.Output.
//
// A worker-reported decode failure yields an *imaging.DecodeError. Any other
// response that is not a well-formed success yields an error matching
// ErrWorkerTransport.
func (r *Response) Output() (*imaging.Output, error) {
	if !r.Success && r.DecodeError != nil {
		msg := r.DecodeError.Message
		if msg == "" {
			msg = r.Error
		}
		return nil, &imaging.DecodeError{Index: r.DecodeError.Index, Name: r.DecodeError.Name, Err: errors.New(msg)}
	}
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = "worker reported failure without a message"
		}
		return nil, fmt.Errorf("%w: %s", ErrWorkerTransport, msg)
	}
	if len(r.ImageData) == 0 {
		return nil, fmt.Errorf("%w: malformed response: no image data", ErrWorkerTransport)
	}
	if r.MimeType != imaging.MimeType {
		return nil, fmt.Errorf("%w: malformed response: unexpected mime type %q", ErrWorkerTransport, r.MimeType)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(r.ImageData))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrWorkerTransport, err)
	}

	return &imaging.Output{
		Data:     r.ImageData,
		MimeType: r.MimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
