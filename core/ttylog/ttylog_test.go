package ttylog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/clam/core/vos"
)

func fakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()

	var slept []time.Duration
	oldSleep := sleep
	sleep = func(d time.Duration) {
		slept = append(slept, d)
	}
	t.Cleanup(func() {
		sleep = oldSleep
	})
	return &slept
}

type sliceSource []*Entry

func (s *sliceSource) Next() (*Entry, error) {
	if len(*s) == 0 {
		return nil, errors.New("EOF marker missing")
	}
	out := (*s)[0]
	*s = (*s)[1:]
	if out == nil {
		return nil, errEndOfTest
	}
	return out, nil
}

var errEndOfTest = errors.New("end of test")

func TestNewRealTimePlayback(t *testing.T) {
	cases := map[string]struct {
		idleLimit time.Duration
		want      []time.Duration
	}{
		"uncapped": {
			want: []time.Duration{1500 * time.Millisecond, 750 * time.Millisecond},
		},
		"capped": {
			idleLimit: time.Second,
			want:      []time.Duration{time.Second, 750 * time.Millisecond},
		},
	}

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			slept := fakeSleep(t)

			var out bytes.Buffer
			sink := NewRealTimePlayback(tc.idleLimit, NewClientOutput(&out))
			for _, entry := range sessionEntries() {
				require.NoError(t, sink(entry))
			}

			assert.Equal(t, tc.want, *slept)
			assert.Equal(t, "$ oops\n", out.String())
		})
	}
}

func TestNewCRLFAdapter(t *testing.T) {
	var out bytes.Buffer
	sink := NewCRLFAdapter(NewClientOutput(&out))

	require.NoError(t, sink(&Entry{Stream: StreamStdout, Data: []byte("a\nb\r\nc\n")}))
	require.NoError(t, sink(&Entry{Stream: StreamStdin, Data: []byte("ignored\n")}))

	assert.Equal(t, "a\r\nb\r\nc\r\n", out.String())
}

func TestNewInputLines(t *testing.T) {
	var lines []string
	sink := NewInputLines(func(line string) error {
		lines = append(lines, line)
		return nil
	})

	for _, entry := range []*Entry{
		{Stream: StreamStdin, Data: []byte("ec")},
		{Stream: StreamStdout, Data: []byte("ec")},
		{Stream: StreamStdin, Data: []byte("ho hi\r")},
		{Stream: StreamStdin, Data: []byte("exit\npartial")},
	} {
		require.NoError(t, sink(entry))
	}

	assert.Equal(t, []string{"echo hi", "exit"}, lines)
}

func TestReplay_error(t *testing.T) {
	source := sliceSource{sessionEntries()[0], nil}

	calls := 0
	err := Replay(&source, func(*Entry) error {
		calls++
		return nil
	})

	assert.Equal(t, errEndOfTest, err)
	assert.Equal(t, 1, calls)
}

func TestReplay_sinkError(t *testing.T) {
	source := sliceSource(sessionEntries())
	sinkErr := errors.New("sink failed")

	err := Replay(&source, func(*Entry) error {
		return sinkErr
	})

	assert.Equal(t, sinkErr, err)
}

func TestRecorder(t *testing.T) {
	var stdout, stderr bytes.Buffer
	wrapped := vos.NewVIOAdapter(strings.NewReader("typed\n"), &stdout, &stderr)

	var entries []*Entry
	recorder := NewRecorder(wrapped, func(entry *Entry) error {
		entries = append(entries, entry)
		return nil
	})

	clock := time.UnixMicro(startMicros)
	recorder.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	buf := make([]byte, 64)
	n, err := recorder.Stdin().Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "typed\n", string(buf[:n]))

	_, err = recorder.Stdout().Write([]byte("out"))
	require.NoError(t, err)
	_, err = recorder.Stderr().Write([]byte("err"))
	require.NoError(t, err)

	// Nothing is recorded at EOF.
	_, err = recorder.Stdin().Read(buf)
	assert.Error(t, err)

	assert.Equal(t, "out", stdout.String())
	assert.Equal(t, "err", stderr.String())
	assert.Equal(t, []*Entry{
		{TimestampMicros: startMicros + 1e6, Stream: StreamStdin, Data: []byte("typed\n")},
		{TimestampMicros: startMicros + 2e6, Stream: StreamStdout, Data: []byte("out")},
		{TimestampMicros: startMicros + 3e6, Stream: StreamStderr, Data: []byte("err")},
	}, entries)
}

func TestRecorder_asciicast(t *testing.T) {
	var stdout, cast bytes.Buffer
	recorder := NewRecorder(vos.NewVIOAdapter(nil, &stdout, nil), NewAsciicastLogSink(&cast, DefaultAsciicastHeader()))

	_, err := recorder.Stdout().Write([]byte("hello\n"))
	require.NoError(t, err)

	source := NewAsciicastLogSource(&cast)
	var out bytes.Buffer
	require.NoError(t, Replay(source, NewClientOutput(&out)))

	assert.Equal(t, "hello\n", out.String())
	assert.Equal(t, "hello\n", stdout.String())
}
