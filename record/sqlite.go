package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS pair_records (
		namespace TEXT NOT NULL,
		scan_a TEXT NOT NULL,
		scan_b TEXT NOT NULL,
		qw DOUBLE,
		qx DOUBLE,
		qy DOUBLE,
		qz DOUBLE,
		tx DOUBLE,
		ty DOUBLE,
		tz DOUBLE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, scan_a, scan_b)
	);
`

// SQLiteStore keeps records in a SQLite database. Records of different
// namespaces never collide, so independent chains can share one database.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
func OpenSQLiteStore(path, namespace string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Records are written by a single chain at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db, namespace: namespace}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, key Key) (bool, error) {
	return existsByLoad(ctx, s, key)
}

func (s *SQLiteStore) Load(ctx context.Context, key Key) (Record, error) {
	var v [numValues]sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT qw, qx, qy, qz, tx, ty, tz FROM pair_records
		WHERE namespace = ? AND scan_a = ? AND scan_b = ?`,
		s.namespace, key.A, key.B,
	).Scan(&v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6])
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Record{}, err
	}

	var vals [numValues]float64
	for i, n := range v {
		if !n.Valid {
			return Record{}, &CorruptError{Key: key, Reason: fmt.Sprintf("value %d is missing", i)}
		}
		vals[i] = n.Float64
	}
	return fromValues(vals), nil
}

func (s *SQLiteStore) Save(ctx context.Context, key Key, rec Record) error {
	ok, err := s.Exists(ctx, key)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}

	v := rec.Values()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pair_records (namespace, scan_a, scan_b, qw, qx, qy, qz, tx, ty, tz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.namespace, key.A, key.B, v[0], v[1], v[2], v[3], v[4], v[5], v[6],
	)
	return err
}

func (s *SQLiteStore) Invalidate(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pair_records WHERE namespace = ? AND scan_a = ? AND scan_b = ?`,
		s.namespace, key.A, key.B,
	)
	return err
}
