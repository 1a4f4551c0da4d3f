package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogEntry is a single line of the event log.
type LogEntry struct {
	TimestampMicros int64
	SessionID       string
	Type            EventType
	Fields          *structpb.Struct
}

// GetString returns the string field named key, or "" if it isn't set.
func (le *LogEntry) GetString(key string) string {
	return le.Fields.GetFields()[key].GetStringValue()
}

// GetStrings returns the list field named key as strings.
func (le *LogEntry) GetStrings(key string) []string {
	var out []string
	for _, v := range le.Fields.GetFields()[key].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// GetBool returns the boolean field named key.
func (le *LogEntry) GetBool(key string) bool {
	return le.Fields.GetFields()[key].GetBoolValue()
}

func (le *LogEntry) toStruct() *structpb.Struct {
	fields := le.Fields
	if fields == nil {
		fields = &structpb.Struct{}
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"timestamp_micros": structpb.NewNumberValue(float64(le.TimestampMicros)),
			"session_id":       structpb.NewStringValue(le.SessionID),
			"type":             structpb.NewStringValue(string(le.Type)),
			"fields":           structpb.NewStructValue(fields),
		},
	}
}

// MarshalJSON implements json.Marshaler.
func (le *LogEntry) MarshalJSON() ([]byte, error) {
	return protojson.Marshal(le.toStruct())
}

// UnmarshalJSON implements json.Unmarshaler.
func (le *LogEntry) UnmarshalJSON(data []byte) error {
	raw := &structpb.Struct{}
	if err := protojson.Unmarshal(data, raw); err != nil {
		return err
	}

	values := raw.GetFields()
	eventType := values["type"].GetStringValue()
	if eventType == "" {
		return fmt.Errorf("log entry has no type")
	}

	le.TimestampMicros = int64(values["timestamp_micros"].GetNumberValue())
	le.SessionID = values["session_id"].GetStringValue()
	le.Type = EventType(eventType)
	le.Fields = values["fields"].GetStructValue()
	if le.Fields == nil {
		le.Fields = &structpb.Struct{}
	}
	return nil
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs for shell sessions.
type Logger struct {
	Record LogRecorder
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. It's safe for concurrent use.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex

	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogger creates a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{
		Record: func(*LogEntry) error { return nil },
	}
}

func (l *Logger) recordEvent(sessionID string, event Event) error {
	fields, err := structpb.NewStruct(event.Fields)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}

	le := &LogEntry{
		TimestampMicros: time.Now().UnixNano() / int64(time.Microsecond),
		SessionID:       sessionID,
		Type:            event.Type,
		Fields:          fields,
	}

	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record logs the event.
func (l *SessionLogger) Record(event Event) error {
	return l.recordEvent(l.sessionID, event)
}
