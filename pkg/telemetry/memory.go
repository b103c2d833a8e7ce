package telemetry

import (
	"fmt"
)

// MemorySource is a Source backed by in-memory columns
type MemorySource struct {
	columns map[string][]Value
	open    map[Handle]string
	next    Handle
	records int
}

// NewMemorySource returns an empty MemorySource
func NewMemorySource() *MemorySource {
	return &MemorySource{
		columns: make(map[string][]Value),
		open:    make(map[Handle]string),
		next:    1,
	}
}

// AddDataset stores values as the named dataset, replacing any previous column
// of the same name.  The record count is the length of the longest column.
func (m *MemorySource) AddDataset(name string, values ...Value) *MemorySource {
	m.columns[name] = values
	if len(values) > m.records {
		m.records = len(values)
	}
	return m
}

// SelectDataset opens the named column
func (m *MemorySource) SelectDataset(name string) (Handle, error) {
	if _, ok := m.columns[name]; !ok {
		return 0, fmt.Errorf("select %s: %w", name, ErrUnknownDataset)
	}
	h := m.next
	m.next++
	m.open[h] = name
	return h, nil
}

// CloseDataset releases h
func (m *MemorySource) CloseDataset(h Handle) error {
	if _, ok := m.open[h]; !ok {
		return fmt.Errorf("close handle %d: %w", h, ErrDatasetNotOpen)
	}
	delete(m.open, h)
	return nil
}

// RecordCount returns the number of frames
func (m *MemorySource) RecordCount() int {
	return m.records
}

// Read returns the value of an open dataset at record
func (m *MemorySource) Read(h Handle, record int) (Value, error) {
	name, ok := m.open[h]
	if !ok {
		return Value{}, fmt.Errorf("read handle %d: %w", h, ErrDatasetNotOpen)
	}
	col := m.columns[name]
	if record < 0 || record >= len(col) {
		return Value{}, fmt.Errorf("read %s[%d]: %w", name, record, ErrRecordRange)
	}
	return col[record], nil
}

// OpenCount returns the number of handles not yet closed
func (m *MemorySource) OpenCount() int {
	return len(m.open)
}
