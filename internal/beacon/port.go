package beacon

import (
	"io"
	"time"
)

// BytePort is the serial surface the driver needs. go.bug.st/serial.Port
// satisfies it directly; tests substitute a scripted fake.
//
// Read is expected to block for at most the configured read timeout and
// return n == 0 with a nil error when the timeout elapses without data.
type BytePort interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
	Close() error
}
