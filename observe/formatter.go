package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/omniobs/logctx"
)

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// ExcInfoKey holds the rendered ErrorInfo of a record.
const ExcInfoKey = "exc_info"

// ReservedKeys are always present in a log line and are never overwritten by
// caller fields.
var ReservedKeys = []string{
	"ts", "level", "msg", "logger", "service", "version", "env",
	"request_id", "task_id", "step",
}

var reserved = func() map[string]bool {
	m := make(map[string]bool, len(ReservedKeys)+1)
	for _, k := range ReservedKeys {
		m[k] = true
	}
	m[ExcInfoKey] = true
	return m
}()

// IsReservedKey reports whether key is owned by the log schema.
func IsReservedKey(key string) bool {
	return reserved[key]
}

// Record is one log call.
type Record struct {
	Level   Level
	Logger  string
	Message string
	// Args, when non-empty, are applied to Message with fmt.Sprintf.
	Args   []any
	Fields []Field
	Err    *ErrorInfo
}

// Formatter renders records as single-line JSON objects.
type Formatter struct {
	Service string
	Version string
	Env     string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Format renders rec with the ambient fields of the flow on ctx. The result
// has no trailing newline.
func (f *Formatter) Format(ctx context.Context, rec Record) []byte {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	msg := rec.Message
	if len(rec.Args) > 0 {
		msg = fmt.Sprintf(rec.Message, rec.Args...)
	}
	amb := logctx.Snapshot(ctx)

	var b bytes.Buffer
	b.Grow(256)
	b.WriteByte('{')
	writeField(&b, "ts", now().UnixMilli(), true)
	writeField(&b, "level", rec.Level.String(), false)
	writeField(&b, "msg", msg, false)
	writeField(&b, "logger", rec.Logger, false)
	writeField(&b, "service", f.Service, false)
	writeField(&b, "version", f.Version, false)
	writeField(&b, "env", f.Env, false)
	writeField(&b, "request_id", amb.RequestID, false)
	writeField(&b, "task_id", amb.TaskID, false)
	writeField(&b, "step", amb.Step, false)

	for _, fld := range mergeFields(rec.Fields) {
		writeField(&b, fld.Key, fld.Value, false)
	}

	if rec.Err != nil {
		writeField(&b, ExcInfoKey, rec.Err.String(), false)
	}
	b.WriteByte('}')
	return b.Bytes()
}

// mergeFields drops reserved keys and collapses duplicates, keeping the
// position of the first occurrence and the value of the last.
func mergeFields(fields []Field) []Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, fld := range fields {
		if reserved[fld.Key] {
			continue
		}
		if i, ok := index[fld.Key]; ok {
			out[i].Value = fld.Value
			continue
		}
		index[fld.Key] = len(out)
		out = append(out, fld)
	}
	return out
}

func writeField(b *bytes.Buffer, key string, value any, first bool) {
	if !first {
		b.WriteByte(',')
	}
	b.Write(encodeValue(key))
	b.WriteByte(':')
	b.Write(encodeValue(value))
}

// encodeValue marshals v, falling back to its fmt.Sprint text when v cannot be
// represented in JSON.
func encodeValue(v any) []byte {
	if data, err := marshal(v); err == nil {
		return data
	}
	data, _ := marshal(fmt.Sprint(v))
	return data
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
