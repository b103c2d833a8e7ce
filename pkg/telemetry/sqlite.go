package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table SQLiteSource reads frames from unless told otherwise
const DefaultTable = "frames"

// ErrNoValue is returned when a frame holds NULL for a dataset
var ErrNoValue = errors.New("no value in frame")

// SQLiteSource reads frames from a SQLite table with one row per frame and one
// column per dataset.  Rows are ordered by rowid.  A selected column is loaded
// completely so that per-frame reads do not hit the database.
type SQLiteSource struct {
	db      *sql.DB
	table   string
	columns map[string]string
	records int

	open map[Handle]sqliteColumn
	next Handle
}

type sqliteColumn struct {
	name   string
	values []Value
}

// OpenSQLite opens the database at path and inspects table
func OpenSQLite(path, table string) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLiteSource{
		db:      db,
		table:   table,
		columns: make(map[string]string),
		open:    make(map[Handle]sqliteColumn),
		next:    1,
	}
	if err := s.inspect(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSource) inspect() error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(s.table)))
	if err != nil {
		return fmt.Errorf("table info %s: %w", s.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		s.columns[strings.ToLower(name)] = name
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table info %s: %w", s.table, err)
	}
	if len(s.columns) == 0 {
		return fmt.Errorf("table %s: no such table", s.table)
	}
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(s.table))).Scan(&s.records); err != nil {
		return fmt.Errorf("count %s: %w", s.table, err)
	}
	return nil
}

// SelectDataset loads the column called name.  Column names match case-insensitively.
func (s *SQLiteSource) SelectDataset(name string) (Handle, error) {
	col, ok := s.columns[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("select %s: %w", name, ErrUnknownDataset)
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", quoteIdent(col), quoteIdent(s.table)))
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	values := make([]Value, 0, s.records)
	for rows.Next() {
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return 0, fmt.Errorf("scan %s: %w", name, err)
		}
		v, err := fromSQL(raw)
		if err != nil {
			return 0, fmt.Errorf("dataset %s record %d: %w", name, len(values), err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("select %s: %w", name, err)
	}

	h := s.next
	s.next++
	s.open[h] = sqliteColumn{name: col, values: values}
	return h, nil
}

// CloseDataset releases the column held by h
func (s *SQLiteSource) CloseDataset(h Handle) error {
	if _, ok := s.open[h]; !ok {
		return fmt.Errorf("close handle %d: %w", h, ErrDatasetNotOpen)
	}
	delete(s.open, h)
	return nil
}

// RecordCount returns the number of rows in the frames table
func (s *SQLiteSource) RecordCount() int {
	return s.records
}

// Read returns the value of the dataset behind h at record
func (s *SQLiteSource) Read(h Handle, record int) (Value, error) {
	col, ok := s.open[h]
	if !ok {
		return Value{}, fmt.Errorf("read handle %d: %w", h, ErrDatasetNotOpen)
	}
	if record < 0 || record >= len(col.values) {
		return Value{}, fmt.Errorf("read %s[%d]: %w", col.name, record, ErrRecordRange)
	}
	v := col.values[record]
	if !v.Valid() {
		return Value{}, fmt.Errorf("read %s[%d]: %w", col.name, record, ErrNoValue)
	}
	return v, nil
}

// Close closes the database.  Open handles become invalid.
func (s *SQLiteSource) Close() error {
	s.open = make(map[Handle]sqliteColumn)
	return s.db.Close()
}

func fromSQL(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{}, nil
	case int64:
		return Int(v), nil
	case float64:
		return Float(v), nil
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case []byte:
		return parseText(string(v))
	case string:
		return parseText(v)
	default:
		return Value{}, fmt.Errorf("unsupported column type %T", raw)
	}
}

func parseText(s string) (Value, error) {
	if v, err := ParseValue(KindInt, s); err == nil {
		return v, nil
	}
	return ParseValue(KindFloat, s)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
