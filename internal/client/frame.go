package client

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// HeartbeatEvent is the event name of keep-alive frames.
const HeartbeatEvent = "heartbeat"

// Frame is one blank-line terminated server-sent event.
type Frame struct {
	Event string
	Data  string
	ID    string
	Retry int
}

func (f Frame) IsHeartbeat() bool {
	return f.Event == HeartbeatEvent
}

// FrameReader splits an event stream into frames.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next complete frame. A frame cut off by the end of the
// stream is discarded and io.EOF returned.
func (fr *FrameReader) Next() (Frame, error) {
	var (
		f       Frame
		data    []string
		hasData bool
		fields  int
	)
	for {
		line, err := fr.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if fields == 0 {
				continue
			}
			if hasData {
				f.Data = strings.Join(data, "\n")
			}
			return f, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		switch name {
		case "event":
			f.Event = value
		case "data":
			data = append(data, value)
			hasData = true
		case "id":
			f.ID = value
		case "retry":
			if n, err := strconv.Atoi(value); err == nil {
				f.Retry = n
			}
		default:
			continue
		}
		fields++
	}
}
