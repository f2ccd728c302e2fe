package sccp

import "errors"

var (
	// ErrMalformed is returned when a buffer cannot be parsed: it is too
	// short, a pointer or length runs outside the buffer, or the mandatory
	// layout of a known message type does not fit.
	ErrMalformed = errors.New("malformed SCCP message")

	// ErrUnexpectedLayout is returned by the to-BSC rewriter when the
	// message does not have the paging layout it patches.
	ErrUnexpectedLayout = errors.New("unexpected message layout")

	// ErrInternalInconsistency means a rewritten buffer failed its own
	// self-check. It signals a bug in the rewriter, not bad input, and must
	// never be handled like the recoverable errors above.
	ErrInternalInconsistency = errors.New("rewritten message failed self-check")

	// ErrUnsupported is returned by builders for procedures the relay does
	// not run.
	ErrUnsupported = errors.New("not supported in relay mode")
)
