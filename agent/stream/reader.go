package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMalformedFrame = errors.New("malformed stream frame")

// Reader decodes a framed envelope stream. Frames may arrive split across
// any number of underlying reads.
type Reader struct {
	r    *bufio.Reader
	done bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next envelope. It returns io.EOF after the sentinel and
// io.ErrUnexpectedEOF when the stream ends without one.
func (r *Reader) Next() (Envelope, error) {
	if r.done {
		return Envelope{}, io.EOF
	}

	for {
		line, err := r.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Envelope{}, err
		}
		atEOF := errors.Is(err, io.EOF)

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			env, sentinel, perr := parseFrame(line)
			if perr != nil {
				return Envelope{}, perr
			}
			if sentinel {
				r.done = true
				return Envelope{}, io.EOF
			}
			return env, nil
		}

		if atEOF {
			return Envelope{}, io.ErrUnexpectedEOF
		}
	}
}

// ReadAll collects every envelope up to the sentinel.
func ReadAll(r io.Reader) ([]Envelope, error) {
	reader := NewReader(r)
	var out []Envelope
	for {
		env, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, env)
	}
}

func parseFrame(line string) (Envelope, bool, error) {
	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return Envelope{}, false, fmt.Errorf("%w: %q", ErrMalformedFrame, line)
	}
	payload = strings.TrimPrefix(payload, " ")
	if payload == Sentinel {
		return Envelope{}, true, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Envelope{}, false, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return env, false, nil
}
