// Package sqlite reads and writes mission datasets as single-file SQLite
// containers. Numeric arrays are stored as MessagePack blobs and attributes
// as JSON objects.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/auv-align/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const driverName = "sqlite"

// Store implements pipeline.Reader and pipeline.Writer over container files.
type Store struct{}

// NewStore returns a Store.
func NewStore() *Store { return &Store{} }

// Read loads the container at path.
func (*Store) Read(ctx context.Context, path string) (*domain.Dataset, error) {
	return Open(ctx, path)
}

// Write saves ds to path, replacing any existing file.
func (*Store) Write(ctx context.Context, path string, ds *domain.Dataset) error {
	return Write(ctx, path, ds)
}

// Open loads the container at path. Any failure, from a missing file to a
// malformed array, is reported as domain.ErrInvalidInputFile.
func Open(ctx context.Context, path string) (*domain.Dataset, error) {
	ds, err := open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInputFile, path, err)
	}
	return ds, nil
}

func open(ctx context.Context, path string) (*domain.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("is a directory")
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ds := domain.NewDataset()

	var rawAttrs string
	if err := db.QueryRowContext(ctx, `SELECT attributes FROM dataset WHERE id = 1`).Scan(&rawAttrs); err != nil {
		return nil, fmt.Errorf("read dataset attributes: %w", err)
	}
	if ds.Attrs, err = decodeAttrs(rawAttrs); err != nil {
		return nil, fmt.Errorf("dataset attributes: %w", err)
	}

	if err := readAxes(ctx, db, ds); err != nil {
		return nil, err
	}
	if err := readVariables(ctx, db, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func readAxes(ctx context.Context, db *sql.DB, ds *domain.Dataset) error {
	rows, err := db.QueryContext(ctx, `SELECT name, kind, times FROM axes`)
	if err != nil {
		return fmt.Errorf("read axes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, kind string
			blob       []byte
		)
		if err := rows.Scan(&name, &kind, &blob); err != nil {
			return fmt.Errorf("scan axis: %w", err)
		}
		var times []int64
		if err := msgpack.Unmarshal(blob, &times); err != nil {
			return fmt.Errorf("decode axis %s: %w", name, err)
		}
		if err := ds.AddAxis(&domain.TimeAxis{Name: name, Kind: domain.AxisKind(kind), Times: times}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func readVariables(ctx context.Context, db *sql.DB, ds *domain.Dataset) error {
	rows, err := db.QueryContext(ctx, `SELECT name, axis, attributes, vals FROM variables ORDER BY position`)
	if err != nil {
		return fmt.Errorf("read variables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, axis, rawAttrs string
			blob                 []byte
		)
		if err := rows.Scan(&name, &axis, &rawAttrs, &blob); err != nil {
			return fmt.Errorf("scan variable: %w", err)
		}
		attrs, err := decodeAttrs(rawAttrs)
		if err != nil {
			return fmt.Errorf("variable %s attributes: %w", name, err)
		}
		var values []float64
		if err := msgpack.Unmarshal(blob, &values); err != nil {
			return fmt.Errorf("decode variable %s: %w", name, err)
		}
		if err := ds.AddVariable(&domain.Variable{Name: name, Axis: axis, Values: values, Attrs: attrs}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Write saves ds to path. The container is built in a sibling temporary
// file and renamed over path, so a failed write never leaves a partial
// output behind.
func Write(ctx context.Context, path string, ds *domain.Dataset) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeContainer(ctx, tmpPath, ds); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeContainer(ctx context.Context, path string, ds *domain.Dataset) error {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	attrs, err := json.Marshal(ds.Attrs)
	if err != nil {
		return fmt.Errorf("encode dataset attributes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO dataset (id, attributes) VALUES (1, ?)`, string(attrs)); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	for _, axis := range ds.Axes() {
		blob, err := msgpack.Marshal(axis.Times)
		if err != nil {
			return fmt.Errorf("encode axis %s: %w", axis.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO axes (name, kind, times) VALUES (?, ?, ?)`,
			axis.Name, string(axis.Kind), blob); err != nil {
			return fmt.Errorf("insert axis %s: %w", axis.Name, err)
		}
	}

	for i, v := range ds.Variables() {
		attrs, err := json.Marshal(v.Attrs)
		if err != nil {
			return fmt.Errorf("encode variable %s attributes: %w", v.Name, err)
		}
		blob, err := msgpack.Marshal(v.Values)
		if err != nil {
			return fmt.Errorf("encode variable %s: %w", v.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO variables (position, name, axis, attributes, vals) VALUES (?, ?, ?, ?, ?)`,
			i, v.Name, v.Axis, string(attrs), blob); err != nil {
			return fmt.Errorf("insert variable %s: %w", v.Name, err)
		}
	}

	return tx.Commit()
}

func decodeAttrs(raw string) (domain.Attributes, error) {
	attrs := domain.Attributes{}
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
