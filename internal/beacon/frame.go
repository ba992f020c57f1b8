package beacon

import (
	"fmt"
	"time"
)

const (
	// DefaultMessageTimeout is how long to wait for the first byte of a new
	// frame before concluding the beacon is not sending.
	DefaultMessageTimeout = 10 * time.Second

	// DefaultByteTimeout delimits messages. The beacon emits each message as
	// a tight burst; a gap longer than this between bytes means the current
	// frame is over. 5ms was found experimentally on the original hardware
	// to never cut off a message (inter-message gap is ~37ms).
	DefaultByteTimeout = 5 * time.Millisecond
)

// Accumulator collects timing-delimited frames from a byte port. The wire
// protocol has no length header or start marker, so frame boundaries are
// inferred purely from inter-byte gaps.
type Accumulator struct {
	port           BytePort
	messageTimeout time.Duration
	byteTimeout    time.Duration
}

func NewAccumulator(port BytePort, messageTimeout, byteTimeout time.Duration) *Accumulator {
	if messageTimeout <= 0 {
		messageTimeout = DefaultMessageTimeout
	}
	if byteTimeout <= 0 {
		byteTimeout = DefaultByteTimeout
	}

	return &Accumulator{
		port:           port,
		messageTimeout: messageTimeout,
		byteTimeout:    byteTimeout,
	}
}

// Next reads one frame of at most size bytes. It waits up to the message
// timeout for the first byte, then keeps appending as long as continuation
// bytes arrive within the byte timeout.
//
// The returned slice may be shorter than size:
//   - empty: no data arrived at all (beacon silent)
//   - short: the burst ended early (truncated or misaligned frame)
//
// The caller decides acceptance; a short result is not an error here. A
// non-nil error means the transport itself failed.
func (a *Accumulator) Next(size int) ([]byte, error) {
	buf := make([]byte, size)

	if err := a.port.SetReadTimeout(a.messageTimeout); err != nil {
		return nil, fmt.Errorf("failed to set message timeout: %w", err)
	}

	filled := 0
	for filled < size {
		n, err := a.port.Read(buf[filled:])
		if err != nil {
			return buf[:filled], fmt.Errorf("port read failed: %w", err)
		}
		if n == 0 {
			// Timeout: either nothing arrived or the burst is over.
			break
		}
		filled += n

		if err := a.port.SetReadTimeout(a.byteTimeout); err != nil {
			return buf[:filled], fmt.Errorf("failed to set byte timeout: %w", err)
		}
	}

	return buf[:filled], nil
}
