package openai

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	Type string
	Data string
}

// sseScanner reads server-sent events from a stream. Events are delimited by
// blank lines; "data:" lines carry the payload (multiple lines join with
// newlines), "event:" lines set the type, comments and unknown fields are
// ignored.
type sseScanner struct {
	reader  *bufio.Reader
	current sseEvent
	err     error
}

func newSSEScanner(reader io.Reader) *sseScanner {
	return &sseScanner{
		reader: bufio.NewReaderSize(reader, 64*1024),
	}
}

// next advances to the next event. It returns false on EOF or error; call err
// afterwards to tell the two apart.
func (s *sseScanner) next() bool {
	s.current = sseEvent{}

	var dataLines []string
	var eventType string
	hasData := false

	for {
		line, readErr := s.reader.ReadString('\n')

		if readErr != nil && line == "" {
			if readErr == io.EOF {
				if hasData {
					s.current = sseEvent{Type: eventType, Data: strings.Join(dataLines, "\n")}
					s.err = io.EOF
					return true
				}
				return false
			}
			s.err = readErr
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				s.current = sseEvent{Type: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			eventType = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field = line
			value = ""
		} else {
			// One leading space after the colon is part of the delimiter.
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		}
	}
}

func (s *sseScanner) event() sseEvent {
	return s.current
}

func (s *sseScanner) scanErr() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
