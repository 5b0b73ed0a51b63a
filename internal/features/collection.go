package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateDevice is returned when a device name is added twice to a collection.
var ErrDuplicateDevice = errors.New("duplicate device name")

// Collection holds one vendor's device records in insertion order.
// Device names are unique; references resolve only within a collection.
type Collection struct {
	Vendor  string
	order   []string
	records map[string]*Record
}

// NewCollection creates an empty collection for a vendor.
func NewCollection(vendor string) *Collection {
	return &Collection{
		Vendor:  vendor,
		records: make(map[string]*Record),
	}
}

// Add appends a record; the device name must not already be present.
func (c *Collection) Add(r *Record) error {
	if _, ok := c.records[r.Device]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, r.Device)
	}
	c.order = append(c.order, r.Device)
	c.records[r.Device] = r
	return nil
}

// Put adds a record or replaces an existing one in place.
func (c *Collection) Put(r *Record) {
	if _, ok := c.records[r.Device]; !ok {
		c.order = append(c.order, r.Device)
	}
	c.records[r.Device] = r
}

// Get returns the record for an exact device name.
func (c *Collection) Get(device string) (*Record, bool) {
	r, ok := c.records[device]
	return r, ok
}

// First returns the first record in insertion order.
func (c *Collection) First() (*Record, bool) {
	if len(c.order) == 0 {
		return nil, false
	}
	return c.records[c.order[0]], true
}

// Devices returns device names in insertion order.
func (c *Collection) Devices() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Records returns the records in insertion order.
func (c *Collection) Records() []*Record {
	out := make([]*Record, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.records[name])
	}
	return out
}

// Len returns the number of devices.
func (c *Collection) Len() int {
	return len(c.order)
}

// MarshalJSON encodes the collection as {"device": {label: text}} in insertion order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		data, err := c.records[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes {"device": {label: text}}, keeping device order.
func (c *Collection) UnmarshalJSON(data []byte) error {
	if c.records == nil {
		c.records = make(map[string]*Record)
	}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		r := NewRecord(key)
		if err := r.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("device %q: %w", key, err)
		}
		return c.Add(r)
	})
}
