package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record maps one device's category labels to text, preserving label order.
// The eight canonical labels are guaranteed only for records produced by the builder;
// externally sourced records may carry any key set.
type Record struct {
	Device string
	labels []string
	values map[string]string
}

// NewRecord creates an empty record for a device.
func NewRecord(device string) *Record {
	return &Record{
		Device: device,
		values: make(map[string]string),
	}
}

// Set stores text under label, appending the label if it is new.
func (r *Record) Set(label, text string) {
	if _, ok := r.values[label]; !ok {
		r.labels = append(r.labels, label)
	}
	r.values[label] = text
}

// Get returns the text stored under label.
func (r *Record) Get(label string) (string, bool) {
	v, ok := r.values[label]
	return v, ok
}

// Lookup finds text for a category: the exact label first, then any label that
// parses to the same canonical category.
func (r *Record) Lookup(label string) (string, bool) {
	if v, ok := r.values[label]; ok {
		return v, true
	}
	want, ok := ParseCategory(label)
	if !ok {
		return "", false
	}
	for _, l := range r.labels {
		if c, ok := ParseCategory(l); ok && c == want {
			return r.values[l], true
		}
	}
	return "", false
}

// Labels returns the record's labels in insertion order.
func (r *Record) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Len returns the number of labels.
func (r *Record) Len() int {
	return len(r.labels)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := NewRecord(r.Device)
	for _, l := range r.labels {
		c.Set(l, r.values[l])
	}
	return c
}

// MarshalJSON encodes the record as an object in label order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range r.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, l); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, r.values[l]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of label -> text, keeping key order. Non-string
// values are coerced to text so that loosely shaped competitor files still load.
func (r *Record) UnmarshalJSON(data []byte) error {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		r.Set(key, CoerceText(raw))
		return nil
	})
}

// CoerceText renders an arbitrary JSON value as record text: strings verbatim,
// arrays as bullet lines, null as empty, anything else as its compact JSON.
func CoerceText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			if t := strings.TrimSpace(CoerceText(item)); t != "" {
				lines = append(lines, "• "+t)
			}
		}
		return strings.Join(lines, "\n")
	}
	return string(trimmed)
}

// decodeObject walks a JSON object's members in document order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
