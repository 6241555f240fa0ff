package stage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

// TypeSQLiteWriter writes points to an SQLite table.
const TypeSQLiteWriter = "writers.sqlite"

var sqlIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteWriter implements writers.sqlite. Each point becomes one row with a
// column per dimension plus the id of its view. The database is built in a
// temporary file and stored under filename when complete.
type SQLiteWriter struct {
	Base

	filename string
	table    string
}

// NewSQLiteWriter returns an unconfigured writers.sqlite stage.
func NewSQLiteWriter() *SQLiteWriter {
	return &SQLiteWriter{Base: NewBase(TypeSQLiteWriter), table: "points"}
}

// Configure implements Stage.
func (w *SQLiteWriter) Configure(opts *Options) error {
	if err := w.Base.Configure(opts); err != nil {
		return err
	}
	w.filename = opts.String("filename", "")
	if w.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypeSQLiteWriter)
	}
	w.table = opts.String("table", w.table)
	if !sqlIdentRe.MatchString(w.table) {
		return fmt.Errorf("%w: table %q is not a valid identifier", ErrInvalidOption, w.table)
	}
	return nil
}

// Run implements Stage.
func (w *SQLiteWriter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	dir, err := os.MkdirTemp("", "pointflow-sqlite-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "points.sqlite")

	count, err := w.write(ctx, path, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.filename, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := sc.Store.Put(ctx, w.filename, data); err != nil {
		return nil, err
	}
	w.Metadata().Set("filename", metadata.String(w.filename))
	w.Metadata().Set("table", metadata.String(w.table))
	w.Metadata().Set("count", metadata.Int(int64(count)))
	return in, nil
}

func (w *SQLiteWriter) write(ctx context.Context, path string, in []*pointview.View) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	layouts := make([]*layout.Layout, len(in))
	for i, v := range in {
		layouts[i] = v.Layout()
	}
	l := layout.Merge(layouts...)
	details := l.Details()

	cols := make([]string, 0, len(details)+1)
	defs := make([]string, 0, len(details)+1)
	cols = append(cols, "view_id")
	defs = append(defs, "view_id INTEGER NOT NULL")
	for _, d := range details {
		sqlType := "REAL"
		if d.Encoding.Base() != dimension.BaseFloating {
			sqlType = "INTEGER"
		}
		cols = append(cols, `"`+d.ID.Name()+`"`)
		defs = append(defs, fmt.Sprintf(`"%s" %s`, d.ID.Name(), sqlType))
	}
	schema := fmt.Sprintf("CREATE TABLE %s (%s)", w.table, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", w.table, strings.Join(cols, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	count := 0
	for _, v := range in {
		args[0] = v.ID()
		for idx := range v.PointIDs() {
			for i, d := range details {
				args[i+1] = sqlValue(v, d, idx)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return count, fmt.Errorf("insert point %d of view %d: %w", idx, v.ID(), err)
			}
			count++
		}
	}
	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

// sqlValue returns the value of d for point idx, or zero when v lacks d.
func sqlValue(v *pointview.View, d layout.Detail, idx int) any {
	val, err := v.Value(d.ID, idx)
	if err != nil {
		val = pointview.NewValue(d.Encoding, int64(0))
	}
	switch val.Encoding.Base() {
	case dimension.BaseFloating:
		return val.Float64()
	case dimension.BaseUnsigned:
		// SQLite integers are signed 64-bit.
		return int64(val.Uint64())
	default:
		return val.Int64()
	}
}
