package core

import "errors"

// ErrBackpressure is returned by TrySend when the outbound buffer is full.
var ErrBackpressure = errors.New("backpressure")

// ErrClosed is returned by TrySend once the connection has been closed.
var ErrClosed = errors.New("connection closed")

// Frame is an encoded outbound message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend never blocks. It fails when the transport is closed or full.
	TrySend(Frame) error
	Close()
}
