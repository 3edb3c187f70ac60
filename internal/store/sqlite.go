package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vthunder/chronos/internal/types"
)

// DatabaseFilename is the file the SQLite backend uses inside the data directory
const DatabaseFilename = "chronos.db"

const schema = `
CREATE TABLE IF NOT EXISTS activity_logs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id  TEXT NOT NULL UNIQUE,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reminders (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id  TEXT NOT NULL UNIQUE,
	doc TEXT NOT NULL
);
`

// SQLiteBackend stores each record as a JSON document row, ordered by
// insertion sequence. A Save replaces both tables in one transaction.
type SQLiteBackend struct {
	path     string
	db       *sql.DB
	readOnly bool
	openErr  error // read-only backends report an unopenable file from Load
}

// OpenSQLiteBackend opens (or creates) DatabaseFilename under dataDir. A file
// that is not a readable database is moved aside and a fresh one created.
func OpenSQLiteBackend(dataDir string) (*SQLiteBackend, error) {
	path := filepath.Join(dataDir, DatabaseFilename)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	db, err := openDB(path, "rwc")
	if err != nil && isCorrupt(err) {
		aside := path + ".corrupt-" + time.Now().Format("20060102-150405")
		if rerr := os.Rename(path, aside); rerr != nil {
			return nil, fmt.Errorf("open: move corrupt db aside: %w", rerr)
		}
		log.Printf("[store] %s is not a readable database (%v), moved to %s and starting empty", path, err, aside)
		db, err = openDB(path, "rwc")
	}
	if err != nil {
		return nil, err
	}
	return &SQLiteBackend{path: path, db: db}, nil
}

// OpenSQLiteBackendReadOnly opens DatabaseFilename under dataDir without
// creating or repairing anything. A missing file loads as empty; an
// unreadable one makes Load fail.
func OpenSQLiteBackendReadOnly(dataDir string) *SQLiteBackend {
	path := filepath.Join(dataDir, DatabaseFilename)
	b := &SQLiteBackend{path: path, readOnly: true}
	if _, err := os.Stat(path); err != nil {
		return b
	}
	b.db, b.openErr = openDB(path, "ro")
	return b
}

func openDB(path, mode string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode="+mode+"&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	// A single connection keeps every statement on the same file handle
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if mode == "ro" {
		return db, nil
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return db, nil
}

// SQLite primary result codes for a damaged or foreign file
const (
	sqliteCorrupt   = 11
	sqliteNotADB    = 26
	primaryCodeMask = 0xff
)

func isCorrupt(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & primaryCodeMask {
		case sqliteCorrupt, sqliteNotADB:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}

func (b *SQLiteBackend) Name() string     { return BackendSQLite }
func (b *SQLiteBackend) Location() string { return b.path }

func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Load reads both tables in insertion order
func (b *SQLiteBackend) Load() (Snapshot, error) {
	if b.openErr != nil {
		return emptySnapshot(), b.openErr
	}
	if b.db == nil {
		return emptySnapshot(), nil
	}
	snap := emptySnapshot()

	err := loadDocs(b.db, "activity_logs", func(doc []byte) error {
		var l types.ActivityLog
		if err := json.Unmarshal(doc, &l); err != nil {
			return err
		}
		snap.ActivityLogs = append(snap.ActivityLogs, l)
		return nil
	})
	if err != nil {
		return emptySnapshot(), err
	}

	err = loadDocs(b.db, "reminders", func(doc []byte) error {
		var r types.Reminder
		if err := json.Unmarshal(doc, &r); err != nil {
			return err
		}
		snap.Reminders = append(snap.Reminders, r)
		return nil
	})
	if err != nil {
		return emptySnapshot(), err
	}
	return snap, nil
}

func loadDocs(db *sql.DB, table string, fn func([]byte) error) error {
	rows, err := db.Query("SELECT doc FROM " + table + " ORDER BY seq")
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if err := fn([]byte(doc)); err != nil {
			return fmt.Errorf("failed to parse %s row: %w", table, err)
		}
	}
	return rows.Err()
}

// Save replaces the contents of both tables with snap
func (b *SQLiteBackend) Save(snap Snapshot) error {
	if b.readOnly {
		return errReadOnly
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"activity_logs", "reminders"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, l := range snap.ActivityLogs {
		if err := insertDoc(tx, "activity_logs", l.ActivityID, l); err != nil {
			return err
		}
	}
	for _, r := range snap.Reminders {
		if err := insertDoc(tx, "reminders", r.ReminderID, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertDoc(tx *sql.Tx, table, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", table, err)
	}
	if _, err := tx.Exec("INSERT INTO "+table+" (id, doc) VALUES (?, ?)", id, string(doc)); err != nil {
		return fmt.Errorf("failed to insert %s record %s: %w", table, id, err)
	}
	return nil
}
