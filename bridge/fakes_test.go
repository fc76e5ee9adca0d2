package bridge

import (
	"bytes"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
)

type readResult struct {
	data []byte
	err  error
}

// fakeTransport replays scripted reads and records writes. With the script
// exhausted it behaves like a serial port whose read timeout elapsed.
type fakeTransport struct {
	reads      []readResult
	written    []byte
	writeSizes []int
	writeErr   error
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		runtime.Gosched()
		return 0, nil
	}
	r := f.reads[0]
	n := copy(p, r.data)
	if n < len(r.data) {
		f.reads[0].data = r.data[n:]
		return n, nil
	}
	f.reads = f.reads[1:]
	return n, r.err
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	f.writeSizes = append(f.writeSizes, len(p))
	return len(p), nil
}

type fakeSink struct {
	sent [][]byte
	err  error
}

func (s *fakeSink) Send(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, append([]byte(nil), data...))
	return nil
}

// syncBuffer lets the relay goroutine and the test log into one buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Count(substr string) int {
	return strings.Count(b.String(), substr)
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	return newLevelLogger(slog.LevelInfo)
}

func newLevelLogger(level slog.Level) (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})), buf
}

func frames(fs ...[]byte) []readResult {
	out := make([]readResult, 0, len(fs))
	for _, f := range fs {
		out = append(out, readResult{data: f})
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
