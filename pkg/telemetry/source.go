// Package telemetry defines the frame source the limit checker reads from and
// the tagged values it reads.
package telemetry

import "errors"

// Handle identifies a dataset selected from a Source
type Handle int

var (
	// ErrUnknownDataset is returned when a Source has no dataset by that name
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrDatasetNotOpen is returned for reads and closes of a handle that is not open
	ErrDatasetNotOpen = errors.New("dataset not open")
	// ErrRecordRange is returned for reads outside [0, RecordCount)
	ErrRecordRange = errors.New("record index out of range")
)

// Source is a sequence of telemetry frames organized as named datasets, one
// value per dataset per record.
type Source interface {
	SelectDataset(name string) (Handle, error)
	CloseDataset(h Handle) error
	RecordCount() int
	Read(h Handle, record int) (Value, error)
}
