// Package store provides SQLite-backed storage for RCS archives.
package store

import (
	"bytes"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"rcskit/internal/util"
	"rcskit/rcs"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragmas.sql
var pragmasSQL string

var (
	ErrArchiveNotFound  = errors.New("archive not found")
	ErrArchiveExists    = errors.New("archive already exists")
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// DB wraps a SQLite connection holding archives.
type DB struct {
	conn *sql.DB
	// mu serializes read-modify-write cycles in Update.
	mu   sync.Mutex
	path string
}

// DefaultBusyTimeout is how long a writer waits for another process's
// lock unless WithBusyTimeout says otherwise.
const DefaultBusyTimeout = 5 * time.Second

type openOptions struct {
	busyTimeout time.Duration
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithBusyTimeout sets how long statements wait for a locked database
// before failing with SQLITE_BUSY.
func WithBusyTimeout(d time.Duration) OpenOption {
	return func(o *openOptions) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// Open opens or creates a store at the given path.
func Open(dbPath string, opts ...OpenOption) (*DB, error) {
	o := openOptions{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}

	for _, pragma := range strings.Split(pragmasSQL, "\n") {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", o.busyTimeout.Milliseconds())); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	log.WithFields(log.Fields{"path": dbPath, "busy_timeout": o.busyTimeout}).Debug("opened archive store")
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// ----- Archives -----

// ArchiveInfo describes a stored archive without loading it.
type ArchiveInfo struct {
	Name      string
	Head      string
	Checksum  []byte
	Size      int64
	UpdatedAt int64
}

// Put stores a, replacing any archive of the same name.
func (db *DB) Put(name, actor string, a *rcs.Archive) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.put(tx, name, actor, a); err != nil {
		return err
	}
	return tx.Commit()
}

// Create stores a under a new name; it fails with ErrArchiveExists if the
// name is taken.
func (db *DB) Create(name, actor string, a *rcs.Archive) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM archives WHERE name = ?`, name).Scan(&count); err != nil {
		return fmt.Errorf("checking archive: %w", err)
	}
	if count > 0 {
		return ErrArchiveExists
	}
	if err := db.put(tx, name, actor, a); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) put(tx *sql.Tx, name, actor string, a *rcs.Archive) error {
	raw := []byte(a.String())
	checksum := util.Blake3Hash(raw)
	blob := encoder.EncodeAll(raw, nil)
	ts := util.NowMs()
	head := a.Head().String()

	_, err := tx.Exec(
		`INSERT INTO archives (name, head, checksum, size, blob, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET head=excluded.head, checksum=excluded.checksum,
		   size=excluded.size, blob=excluded.blob, updated_at=excluded.updated_at`,
		name, head, checksum, len(raw), blob, ts,
	)
	if err != nil {
		return fmt.Errorf("upserting archive: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM revisions WHERE archive = ?`, name); err != nil {
		return fmt.Errorf("clearing revisions: %w", err)
	}
	for _, n := range a.Nodes() {
		_, err := tx.Exec(
			`INSERT INTO revisions (archive, version, author, state, date, log) VALUES (?, ?, ?, ?, ?, ?)`,
			name, n.Version.String(), n.Author, n.State, n.Date.UnixMilli(), n.Log,
		)
		if err != nil {
			return fmt.Errorf("inserting revision %s: %w", n.Version, err)
		}
	}

	if err := appendHistory(tx, name, actor, "put", head, checksum, ts); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"archive":  name,
		"head":     head,
		"size":     len(raw),
		"stored":   len(blob),
		"checksum": util.ShortHex(checksum, 12),
	}).Debug("stored archive")
	return nil
}

// Get loads the archive called name.
func (db *DB) Get(name string, opts ...rcs.Option) (*rcs.Archive, error) {
	raw, err := db.GetRaw(name)
	if err != nil {
		return nil, err
	}
	a, err := rcs.Parse(name, string(raw), opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing stored archive %s: %w", name, err)
	}
	return a, nil
}

// GetRaw returns the archive called name in RCS file format, after
// checking it against its stored checksum.
func (db *DB) GetRaw(name string) ([]byte, error) {
	var checksum, blob []byte
	err := db.conn.QueryRow(
		`SELECT checksum, blob FROM archives WHERE name = ?`, name,
	).Scan(&checksum, &blob)
	if err == sql.ErrNoRows {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}

	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive %s: %w", name, err)
	}
	if !bytes.Equal(util.Blake3Hash(raw), checksum) {
		return nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, name)
	}
	return raw, nil
}

// Update loads name, applies fn and stores the result. Concurrent Updates
// on the same DB are serialized. Nothing is written if fn fails.
func (db *DB) Update(name, actor string, fn func(*rcs.Archive) error, opts ...rcs.Option) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	a, err := db.Get(name, opts...)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	return db.Put(name, actor, a)
}

// List returns every stored archive ordered by name.
func (db *DB) List() ([]*ArchiveInfo, error) {
	rows, err := db.conn.Query(
		`SELECT name, head, checksum, size, updated_at FROM archives ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying archives: %w", err)
	}
	defer rows.Close()

	var out []*ArchiveInfo
	for rows.Next() {
		var info ArchiveInfo
		if err := rows.Scan(&info.Name, &info.Head, &info.Checksum, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning archive: %w", err)
		}
		out = append(out, &info)
	}
	return out, rows.Err()
}

// Delete removes the archive called name.
func (db *DB) Delete(name, actor string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var head string
	err = tx.QueryRow(`SELECT head FROM archives WHERE name = ?`, name).Scan(&head)
	if err == sql.ErrNoRows {
		return ErrArchiveNotFound
	}
	if err != nil {
		return fmt.Errorf("querying archive: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM archives WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting archive: %w", err)
	}
	if err := appendHistory(tx, name, actor, "delete", head, nil, util.NowMs()); err != nil {
		return err
	}
	return tx.Commit()
}

// ----- Revisions -----

// RevisionInfo is the indexed metadata of one revision.
type RevisionInfo struct {
	Version string
	Author  string
	State   string
	Date    int64
	Log     string
}

// Revisions returns the revision metadata of an archive, ordered by
// version.
func (db *DB) Revisions(name string) ([]*RevisionInfo, error) {
	rows, err := db.conn.Query(
		`SELECT version, author, state, date, log FROM revisions WHERE archive = ?`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var out []*RevisionInfo
	for rows.Next() {
		var r RevisionInfo
		if err := rows.Scan(&r.Version, &r.Author, &r.State, &r.Date, &r.Log); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrArchiveNotFound
	}
	sortRevisions(out)
	return out, nil
}

func sortRevisions(revs []*RevisionInfo) {
	versions := make(map[string]rcs.Version, len(revs))
	for _, r := range revs {
		v, err := rcs.ParseVersion(r.Version)
		if err != nil {
			continue
		}
		versions[r.Version] = v
	}
	sort.SliceStable(revs, func(i, j int) bool {
		return versions[revs[i].Version].Less(versions[revs[j].Version])
	})
}

// ----- History -----

// HistoryEntry records one write to the store.
type HistoryEntry struct {
	ID       []byte
	Parent   []byte
	Archive  string
	Time     int64
	Actor    string
	Action   string
	Head     string
	Checksum []byte
}

func appendHistory(tx *sql.Tx, name, actor, action, head string, checksum []byte, ts int64) error {
	var parentID []byte
	err := tx.QueryRow(
		`SELECT id FROM history WHERE archive = ? ORDER BY seq DESC LIMIT 1`, name,
	).Scan(&parentID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("getting parent history: %w", err)
	}

	entry := map[string]interface{}{
		"time":     ts,
		"actor":    actor,
		"archive":  name,
		"action":   action,
		"head":     head,
		"checksum": hex.EncodeToString(checksum),
	}
	if parentID != nil {
		entry["parent"] = hex.EncodeToString(parentID)
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling history entry: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO history (id, parent, archive, time, actor, action, head, checksum) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		util.Blake3Hash(entryJSON), parentID, name, ts, actor, action, head, checksum,
	)
	if err != nil {
		return fmt.Errorf("inserting history: %w", err)
	}
	return nil
}

// History returns the write history of an archive, newest first.
func (db *DB) History(name string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT id, parent, archive, time, actor, action, head, checksum
		 FROM history WHERE archive = ? ORDER BY seq DESC LIMIT ?`,
		name, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Parent, &e.Archive, &e.Time, &e.Actor, &e.Action, &e.Head, &e.Checksum); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
