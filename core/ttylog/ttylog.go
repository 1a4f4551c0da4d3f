// Package ttylog records and replays the terminal I/O of shell sessions.
package ttylog

import (
	"bytes"
	"io"
	"regexp"
	"sync"
	"time"
)

var (
	crlf = regexp.MustCompile(`\r?\n`)

	// sleep is replaced in tests.
	sleep = time.Sleep
)

// Stream identifies which standard stream an entry was seen on.
type Stream int

const (
	StreamStdin Stream = iota
	StreamStdout
	StreamStderr
)

func (s Stream) String() string {
	switch s {
	case StreamStdin:
		return "stdin"
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Entry is a single chunk of terminal I/O.
type Entry struct {
	// TimestampMicros is the time of the event in microseconds. Recorders use
	// Unix time, sources may report time relative to the start of the log.
	TimestampMicros int64
	Stream          Stream
	Data            []byte
}

// LogSink receives log entries.
type LogSink func(entry *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback delays each entry by the time since the previous one.
// If idleLimit > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(idleLimit time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(entry *Entry) error {
		once.Do(func() {
			prevTimeMicros = entry.TimestampMicros
		})

		delta := time.Duration(entry.TimestampMicros-prevTimeMicros) * time.Microsecond
		prevTimeMicros = entry.TimestampMicros

		if idleLimit > 0 && delta > idleLimit {
			delta = idleLimit
		}
		if delta > 0 {
			sleep(delta)
		}

		return next(entry)
	}
}

// NewCRLFAdapter rewrites bare line feeds in output to CRLF so logs recorded
// without a PTY don't creep across the screen on playback.
func NewCRLFAdapter(next LogSink) LogSink {
	return func(entry *Entry) error {
		if entry.Stream != StreamStdin {
			entry.Data = crlf.ReplaceAll(entry.Data, []byte("\r\n"))
		}

		return next(entry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(entry *Entry) error {
		if entry.Stream == StreamStdin {
			return nil
		}
		_, err := w.Write(entry.Data)
		return err
	}
}

// NewInputLines calls callback with each complete line the client typed.
// Carriage returns end a line the same way line feeds do.
func NewInputLines(callback func(line string) error) LogSink {
	var buf bytes.Buffer

	return func(entry *Entry) error {
		if entry.Stream != StreamStdin {
			return nil
		}

		for _, b := range entry.Data {
			if b != '\r' && b != '\n' {
				buf.WriteByte(b)
				continue
			}

			line := buf.String()
			buf.Reset()
			if err := callback(line); err != nil {
				return err
			}
		}
		return nil
	}
}

// Replay reads a stream of entries to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		entry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(entry); err != nil {
			return err
		}
	}
}
