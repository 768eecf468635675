package structure

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"structfill/internal/world"
)

// SQLiteIndex persists starts and references in a SQLite database so a
// structure pass and later terrain passes can run as separate processes.
type SQLiteIndex struct {
	db     *sql.DB
	margin int
}

func OpenSQLite(path string, margin int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db, margin: margin}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS starts (
			category TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			chunk_x INTEGER NOT NULL,
			chunk_z INTEGER NOT NULL,
			pieces TEXT NOT NULL,
			PRIMARY KEY (category, chunk_id)
		);`,
		`CREATE TABLE IF NOT EXISTS refs (
			category TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			start_id INTEGER NOT NULL,
			PRIMARY KEY (category, chunk_id, start_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteIndex) Put(start Start) error {
	if start.Category == "" {
		return fmt.Errorf("start at %v has no category", start.Chunk)
	}
	pieces := start.Pieces
	if pieces == nil {
		pieces = []Piece{}
	}
	payload, err := json.Marshal(pieces)
	if err != nil {
		return fmt.Errorf("encode pieces: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := start.Chunk.ID()
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO starts (category, chunk_id, chunk_x, chunk_z, pieces) VALUES (?, ?, ?, ?, ?)`,
		start.Category, id, start.Chunk.X, start.Chunk.Z, string(payload),
	); err != nil {
		return fmt.Errorf("insert start %v: %w", start.Chunk, err)
	}
	for _, pos := range referencedChunks(&start, s.margin) {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO refs (category, chunk_id, start_id) VALUES (?, ?, ?)`,
			start.Category, pos.ID(), id,
		); err != nil {
			return fmt.Errorf("insert reference %v: %w", pos, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// StructureReferences returns ids in insertion order. Query failures are
// logged and read as no references.
func (s *SQLiteIndex) StructureReferences(pos world.ChunkPos, category string) []int64 {
	rows, err := s.db.Query(
		`SELECT start_id FROM refs WHERE category = ? AND chunk_id = ? ORDER BY rowid`,
		category, pos.ID(),
	)
	if err != nil {
		log.Printf("structure index references %v %s: %v", pos, category, err)
		return nil
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Printf("structure index scan reference %v %s: %v", pos, category, err)
			return nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Printf("structure index references %v %s: %v", pos, category, err)
		return nil
	}
	return ids
}

// StructureStart reads a start back. Missing rows and undecodable payloads
// both read as absent.
func (s *SQLiteIndex) StructureStart(pos world.ChunkPos, category string) (*Start, bool) {
	var payload string
	err := s.db.QueryRow(
		`SELECT pieces FROM starts WHERE category = ? AND chunk_id = ?`,
		category, pos.ID(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		log.Printf("structure index start %v %s: %v", pos, category, err)
		return nil, false
	}

	var pieces []Piece
	if err := json.Unmarshal([]byte(payload), &pieces); err != nil {
		log.Printf("structure index decode start %v %s: %v", pos, category, err)
		return nil, false
	}
	return &Start{Category: category, Chunk: pos, Pieces: pieces}, true
}

// Len returns the number of recorded starts.
func (s *SQLiteIndex) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM starts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count starts: %w", err)
	}
	return n, nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
