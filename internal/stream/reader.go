package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Done is the payload of the frame that terminates a stream.
const Done = "[DONE]"

// ErrDone is returned by Reader.Next once the terminating frame is read.
var ErrDone = errors.New("stream done")

// ErrFrameTooLarge is returned by Reader.Next for a frame whose data exceeds
// the size limit. The frame is consumed, so the next call continues after it.
var ErrFrameTooLarge = errors.New("frame too large")

const (
	defaultMaxFrameBytes = 1024 * 1024
	maxReadBufferBytes   = 64 * 1024
)

// Reader splits a server-sent event stream into data payloads. Data lines of
// one frame are joined with newlines; other fields and comments are skipped.
type Reader struct {
	br            *bufio.Reader
	maxFrameBytes int
	done          bool
}

func NewReader(r io.Reader, maxFrameBytes int) *Reader {
	if maxFrameBytes <= 0 {
		maxFrameBytes = defaultMaxFrameBytes
	}
	return &Reader{
		br:            bufio.NewReaderSize(r, min(maxReadBufferBytes, maxFrameBytes)),
		maxFrameBytes: maxFrameBytes,
	}
}

// Next returns the payload of the next frame. It returns ErrDone after the
// terminating frame, ErrFrameTooLarge for a skipped oversized frame and
// io.EOF if the stream ends without a terminating frame.
func (r *Reader) Next() ([]byte, error) {
	if r.done {
		return nil, ErrDone
	}

	var data []string
	size := 0
	oversized := false
	for {
		line, tooLong, err := r.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			if oversized {
				return nil, ErrFrameTooLarge
			}
			if len(data) > 0 {
				return r.dispatch(data)
			}
			return nil, io.EOF
		}

		if !tooLong && line == "" {
			if oversized {
				return nil, ErrFrameTooLarge
			}
			if len(data) == 0 {
				continue
			}
			return r.dispatch(data)
		}
		if oversized {
			continue
		}
		if tooLong {
			oversized, data = true, nil
			continue
		}
		if strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		size += len(payload)
		if size > r.maxFrameBytes {
			oversized, data = true, nil
			continue
		}
		data = append(data, payload)
	}
}

// readLine returns the next line without its terminator. Lines longer than
// the frame limit are consumed but not kept, and reported as tooLong.
func (r *Reader) readLine() (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			if len(buf) > 0 || tooLong {
				break
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > r.maxFrameBytes+len("data: ") {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	return strings.TrimRight(string(buf), "\r"), tooLong, nil
}

func (r *Reader) dispatch(data []string) ([]byte, error) {
	payload := strings.Join(data, "\n")
	if strings.TrimSpace(payload) == Done {
		r.done = true
		return nil, ErrDone
	}
	return []byte(payload), nil
}
