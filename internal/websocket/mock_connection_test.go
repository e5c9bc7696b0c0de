package websocket

import (
	"errors"
	"sync"
	"time"
)

type fakeRead struct {
	messageType int
	data        []byte
	err         error
}

type fakeFrame struct {
	messageType int
	data        []byte
}

// fakeConn is a scripted Connection for pump and hub tests. Reads block on
// the reads channel; closing it ends the read pump.
type fakeConn struct {
	mu        sync.Mutex
	written   []fakeFrame
	reads     chan fakeRead
	closeOnce sync.Once
	closed    bool
	readLimit int64
	remote    string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan fakeRead, 8),
		remote: "192.0.2.10:52000",
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, fakeFrame{
		messageType: messageType,
		data:        append([]byte(nil), data...),
	})
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	read, ok := <-c.reads
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return read.messageType, read.data, read.err
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetReadLimit(limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readLimit = limit
}

func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) RemoteAddr() string { return c.remote }

func (c *fakeConn) frames() []fakeFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]fakeFrame, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) limit() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLimit
}
