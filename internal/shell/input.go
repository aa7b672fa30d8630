package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// maxLineBytes bounds a single input line. Longer lines are discarded whole.
const maxLineBytes = 64 * 1024

// errLineTooLong reports a discarded oversized line; reading may continue.
var errLineTooLong = errors.New("input line too long")

type inputLine struct {
	text    string
	tooLong bool
}

// lineReader reads input on its own goroutine so a prompt can be abandoned
// when the context is cancelled.
type lineReader struct {
	lines chan inputLine
	done  chan struct{}
	err   error // set before lines is closed
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan inputLine),
		done:  make(chan struct{}),
	}
	go lr.read(r)
	return lr
}

func (lr *lineReader) read(r io.Reader) {
	defer close(lr.lines)
	br := bufio.NewReader(r)
	for {
		line, n, err := readLine(br)
		if err == nil || n > 0 {
			select {
			case lr.lines <- line:
			case <-lr.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.err = err
			}
			return
		}
	}
}

// readLine reads up to and including the next newline. n counts every byte
// consumed; a line over maxLineBytes is drained and returned as tooLong.
func readLine(br *bufio.Reader) (inputLine, int, error) {
	var sb strings.Builder
	var line inputLine
	n := 0
	for {
		chunk, err := br.ReadSlice('\n')
		n += len(chunk)
		if !line.tooLong {
			if sb.Len()+len(chunk) > maxLineBytes+len("\r\n") {
				line.tooLong = true
				sb.Reset()
			} else {
				sb.Write(chunk)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line.text = sb.String()
		return line, n, err
	}
}

// next returns the next trimmed line. It returns io.EOF once input is
// exhausted and errLineTooLong for a discarded oversized line.
func (lr *lineReader) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lr.lines:
		if !ok {
			if lr.err != nil {
				return "", lr.err
			}
			return "", io.EOF
		}
		if line.tooLong {
			return "", errLineTooLong
		}
		return strings.TrimSpace(line.text), nil
	}
}

func (lr *lineReader) close() {
	close(lr.done)
}
