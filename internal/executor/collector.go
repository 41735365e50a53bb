package executor

import (
	"bytes"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxOutput is the per-stream capture cap when none is configured.
const DefaultMaxOutput = 1 << 20 // 1MB

// Output is a frozen copy of one captured stream. Data holds at most the cap
// in bytes; a multi-byte character split by the cap is dropped whole, so a
// truncated Data may be up to three bytes short of the cap.
type Output struct {
	Data      string
	Truncated bool
	Total     int64 // bytes the process wrote, stored or not
}

// capBuffer stores up to limit bytes and silently discards the rest.
// Write never fails, so a copy loop keeps draining the pipe after the cap.
type capBuffer struct {
	buf       bytes.Buffer
	limit     int
	total     int64
	truncated bool
}

func newCapBuffer(limit int) *capBuffer {
	if limit <= 0 {
		limit = DefaultMaxOutput
	}
	return &capBuffer{limit: limit}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	b.total += int64(len(p))
	room := b.limit - b.buf.Len()
	if room <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *capBuffer) freeze() Output {
	data := b.buf.Bytes()
	if b.truncated {
		data = trimPartialRune(data)
	}
	return Output{
		Data:      string(data),
		Truncated: b.truncated,
		Total:     b.total,
	}
}

// trimPartialRune drops an incomplete UTF-8 sequence from the end of p.
func trimPartialRune(p []byte) []byte {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return p
			}
			return p[:i]
		}
	}
	return p
}

// collector drains a process's stdout and stderr concurrently. Each stream
// has exactly one reader goroutine that runs until the pipe reports EOF or is
// closed by wait.
type collector struct {
	stdout  *capBuffer
	stderr  *capBuffer
	g       errgroup.Group
	readers []io.Reader
	done    chan struct{}
	err     error
}

func newCollector(limit int) *collector {
	return &collector{
		stdout: newCapBuffer(limit),
		stderr: newCapBuffer(limit),
		done:   make(chan struct{}),
	}
}

// start launches the two readers. It must be called right after the process
// starts so a chatty child never blocks on a full pipe.
func (c *collector) start(stdout, stderr io.Reader) {
	c.readers = []io.Reader{stdout, stderr}
	c.g.Go(func() error { return drain(c.stdout, stdout, "stdout") })
	c.g.Go(func() error { return drain(c.stderr, stderr, "stderr") })
	go func() {
		c.err = c.g.Wait()
		close(c.done)
	}()
}

// wait blocks until both streams hit EOF and returns the frozen captures.
// With linger > 0 it waits at most linger, then closes any reader that is an
// io.Closer and reports cut. Read errors caused by the cut are dropped.
func (c *collector) wait(linger time.Duration) (stdout, stderr Output, cut bool, err error) {
	if linger <= 0 {
		<-c.done
		return c.stdout.freeze(), c.stderr.freeze(), false, c.err
	}

	timer := time.NewTimer(linger)
	defer timer.Stop()
	select {
	case <-c.done:
		return c.stdout.freeze(), c.stderr.freeze(), false, c.err
	case <-timer.C:
	}

	for _, r := range c.readers {
		if cl, ok := r.(io.Closer); ok {
			_ = cl.Close()
		}
	}
	<-c.done
	return c.stdout.freeze(), c.stderr.freeze(), true, nil
}

func drain(dst *capBuffer, src io.Reader, name string) error {
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}
