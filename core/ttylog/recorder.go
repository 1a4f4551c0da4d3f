package ttylog

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/josephlewis42/clam/core/vos"
)

// Recorder is a VIO that copies everything passing through it to a LogSink.
type Recorder struct {
	*vos.VIOAdapter
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time
}

var _ vos.VIO = (*Recorder)(nil)

func (r *Recorder) record(stream Stream, data []byte) {
	if len(data) == 0 {
		return
	}

	// Sinks may hold on to the entry, the caller owns data.
	entry := &Entry{
		TimestampMicros: r.now().UnixMicro(),
		Stream:          stream,
		Data:            append([]byte(nil), data...),
	}

	r.mutex.Lock()
	err := r.output(entry)
	r.mutex.Unlock()

	if err != nil {
		log.Printf("ttylog: recording %s: %v", stream, err)
	}
}

type recorderReadCloser struct {
	r       *Recorder
	stream  Stream
	wrapped io.ReadCloser
}

var _ io.ReadCloser = (*recorderReadCloser)(nil)

func (rc *recorderReadCloser) Read(p []byte) (int, error) {
	n, err := rc.wrapped.Read(p)
	rc.r.record(rc.stream, p[:n])
	return n, err
}

func (rc *recorderReadCloser) Close() error {
	return rc.wrapped.Close()
}

type recorderWriteCloser struct {
	r       *Recorder
	stream  Stream
	wrapped io.WriteCloser
}

var _ io.WriteCloser = (*recorderWriteCloser)(nil)

func (rc *recorderWriteCloser) Write(p []byte) (int, error) {
	n, err := rc.wrapped.Write(p)
	rc.r.record(rc.stream, p[:n])
	return n, err
}

func (rc *recorderWriteCloser) Close() error {
	return rc.wrapped.Close()
}

// NewRecorder creates a VIO that forwards all I/O of toWrap to output.
func NewRecorder(toWrap vos.VIO, output LogSink) *Recorder {
	recorder := &Recorder{
		output: output,
		now:    time.Now,
	}

	recorder.VIOAdapter = vos.NewVIOAdapter(
		&recorderReadCloser{stream: StreamStdin, r: recorder, wrapped: toWrap.Stdin()},
		&recorderWriteCloser{stream: StreamStdout, r: recorder, wrapped: toWrap.Stdout()},
		&recorderWriteCloser{stream: StreamStderr, r: recorder, wrapped: toWrap.Stderr()},
	)

	return recorder
}
