package beacon

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// portRead scripts one Read result. A nil Data with nil Err models a read
// timeout (n == 0), the frame boundary signal.
type portRead struct {
	Data []byte
	Err  error
}

// scriptedPort implements BytePort for tests, in the style of a mock serial
// port: reads consume a script, writes are recorded. Once the script is
// exhausted every read reports a timeout.
type scriptedPort struct {
	mu       sync.Mutex
	script   []portRead
	pending  []byte
	Written  [][]byte
	Timeouts []time.Duration
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}

	if len(p.script) == 0 {
		// Script exhausted: behave like a silent port. The small sleep
		// keeps spinning driver loops from burning a core.
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		p.mu.Lock()
		return 0, nil
	}

	r := p.script[0]
	p.script = p.script[1:]

	if r.Err != nil {
		return 0, r.Err
	}
	if r.Data == nil {
		return 0, nil
	}

	n := copy(b, r.Data)
	if n < len(r.Data) {
		p.pending = r.Data[n:]
	}
	return n, nil
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	written := make([]byte, len(b))
	copy(written, b)
	p.Written = append(p.Written, written)
	return len(b), nil
}

func (p *scriptedPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Timeouts = append(p.Timeouts, t)
	return nil
}

func (p *scriptedPort) Close() error { return nil }

func (p *scriptedPort) writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]byte, len(p.Written))
	copy(out, p.Written)
	return out
}

func bytesOf(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}

func TestAccumulatorSingleBurst(t *testing.T) {
	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(51, 0xaa)},
	}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.NoError(t, err)
	assert.Equal(t, bytesOf(51, 0xaa), frame)
}

func TestAccumulatorJoinsBurstFragments(t *testing.T) {
	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(20, 0x01)},
		{Data: bytesOf(31, 0x02)},
	}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.NoError(t, err)
	require.Len(t, frame, 51)
	assert.Equal(t, bytesOf(20, 0x01), frame[:20])
	assert.Equal(t, bytesOf(31, 0x02), frame[20:])
}

func TestAccumulatorReturnsPartialFrameOnGap(t *testing.T) {
	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(40, 0x7f)},
		{}, // inter-byte timeout, burst over
	}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.NoError(t, err)
	assert.Len(t, frame, 40)
}

func TestAccumulatorReturnsEmptyWhenSilent(t *testing.T) {
	port := &scriptedPort{script: []portRead{{}}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.NoError(t, err)
	assert.Empty(t, frame)
}

func TestAccumulatorCapsAtTargetSize(t *testing.T) {
	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(60, 0x11)},
		{},
	}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.NoError(t, err)
	assert.Len(t, frame, 51)

	// The burst overflow stays buffered for the next frame.
	rest, err := acc.Next(51)
	require.NoError(t, err)
	assert.Len(t, rest, 9)
}

func TestAccumulatorPropagatesTransportError(t *testing.T) {
	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(10, 0x22)},
		{Err: io.ErrClosedPipe},
	}}
	acc := NewAccumulator(port, time.Second, time.Millisecond)

	frame, err := acc.Next(51)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.Len(t, frame, 10)
}

func TestAccumulatorTimeoutSequencing(t *testing.T) {
	messageTimeout := 10 * time.Second
	byteTimeout := 5 * time.Millisecond

	port := &scriptedPort{script: []portRead{
		{Data: bytesOf(20, 0x01)},
		{Data: bytesOf(31, 0x02)},
	}}
	acc := NewAccumulator(port, messageTimeout, byteTimeout)

	_, err := acc.Next(51)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(port.Timeouts), 2)
	assert.Equal(t, messageTimeout, port.Timeouts[0], "first wait uses the long message timeout")
	for _, timeout := range port.Timeouts[1:] {
		assert.Equal(t, byteTimeout, timeout, "continuation waits use the inter-byte timeout")
	}
}
