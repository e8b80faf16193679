package imaging

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("image could not be decoded")

	// ErrSurfaceUnavailable is returned when no drawing surface can be
	// allocated for the requested canvas size.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")

	// ErrImageTooLarge is wrapped by a *DecodeError for sources whose header
	// declares more pixels than the decode limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrEncode is matched by every *EncodeError.
	ErrEncode = errors.New("image could not be encoded")
)

// DecodeError reports an input image that could not be turned into pixels.
//
// errors.Is(err, ErrDecode) reports true for any DecodeError; the underlying
// decoder error is also reachable through errors.Is and errors.As.
type DecodeError struct {
	// Index is the position of the source in the composition request.
	Index int

	// Name is the source name, if one was given.
	Name string

	Err error
}

func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("failed to decode image %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("failed to decode image %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// EncodeError reports a failure converting the composed surface to bytes.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode image: %v", e.Err)
}

func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncode, e.Err}
}
