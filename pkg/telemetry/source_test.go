package telemetry

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestMemorySource(t *testing.T) {
	src := NewMemorySource().
		AddDataset("mode", Int(14), Int(7)).
		AddDataset("temp", Float(20.5), Float(21), Float(22))
	assert.Equal(t, 3, src.RecordCount())

	_, err := src.SelectDataset("missing")
	assert.True(t, errors.Is(err, ErrUnknownDataset))

	h, err := src.SelectDataset("temp")
	require.NoError(t, err)
	v, err := src.Read(h, 1)
	require.NoError(t, err)
	assert.Equal(t, Float(21), v)

	_, err = src.Read(h, 3)
	assert.True(t, errors.Is(err, ErrRecordRange))

	require.NoError(t, src.CloseDataset(h))
	assert.Equal(t, 0, src.OpenCount())
	_, err = src.Read(h, 0)
	assert.True(t, errors.Is(err, ErrDatasetNotOpen))
	assert.True(t, errors.Is(src.CloseDataset(h), ErrDatasetNotOpen))
}

func writeFrames(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE frames (operational_mode INTEGER, body_current REAL, label TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO frames VALUES (14, 1.5, '3'), (7, 2.25, NULL), (112, 3, '4.5')`)
	require.NoError(t, err)
	return path
}

func TestSQLiteSource(t *testing.T) {
	src, err := OpenSQLite(writeFrames(t), "")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 3, src.RecordCount())

	mode, err := src.SelectDataset("OPERATIONAL_MODE")
	require.NoError(t, err)
	v, err := src.Read(mode, 2)
	require.NoError(t, err)
	assert.Equal(t, Int(112), v)

	cur, err := src.SelectDataset("body_current")
	require.NoError(t, err)
	v, err = src.Read(cur, 1)
	require.NoError(t, err)
	assert.Equal(t, Float(2.25), v)

	label, err := src.SelectDataset("label")
	require.NoError(t, err)
	v, err = src.Read(label, 0)
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
	_, err = src.Read(label, 1)
	assert.True(t, errors.Is(err, ErrNoValue))

	_, err = src.SelectDataset("nope")
	assert.True(t, errors.Is(err, ErrUnknownDataset))

	require.NoError(t, src.CloseDataset(mode))
	_, err = src.Read(mode, 0)
	assert.True(t, errors.Is(err, ErrDatasetNotOpen))
}

func TestSQLiteSourceMissingTable(t *testing.T) {
	_, err := OpenSQLite(writeFrames(t), "telemetry")
	assert.Error(t, err)
}
