package factstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// similarityThreshold is the Jaccard word-overlap ratio above which a new
// fact counts as a duplicate of a stored one.
const similarityThreshold = 0.7

const schema = `
CREATE TABLE IF NOT EXISTS facts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    topic TEXT NOT NULL,
    fact TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_facts_topic ON facts(topic);
`

// Store persists facts used in previous runs so new scripts avoid repeats.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the fact database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open fact store %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize fact store schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records an accepted fact for a topic.
func (s *Store) Add(ctx context.Context, topic, fact string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (topic, fact, created_at) VALUES (?, ?, ?)`,
		topic, fact, time.Now().UTC().Format(time.RFC3339),
	)
	return errors.Wrap(err, "insert fact")
}

// Recent returns up to limit of the most recently stored facts for a topic,
// newest first.
func (s *Store) Recent(ctx context.Context, topic string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fact FROM facts WHERE topic = ? ORDER BY id DESC LIMIT ?`,
		topic, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query facts")
	}
	defer rows.Close()

	var facts []string
	for rows.Next() {
		var fact string
		if err := rows.Scan(&fact); err != nil {
			return nil, errors.Wrap(err, "scan fact")
		}
		facts = append(facts, fact)
	}
	return facts, errors.Wrap(rows.Err(), "iterate facts")
}

// IsDuplicate reports whether fact is too similar to any stored fact for the
// topic.
func (s *Store) IsDuplicate(ctx context.Context, topic, fact string) (bool, error) {
	existing, err := s.allFacts(ctx, topic)
	if err != nil {
		return false, err
	}
	for _, stored := range existing {
		if Similarity(fact, stored) > similarityThreshold {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) allFacts(ctx context.Context, topic string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fact FROM facts WHERE topic = ?`, topic)
	if err != nil {
		return nil, errors.Wrap(err, "query facts")
	}
	defer rows.Close()

	var facts []string
	for rows.Next() {
		var fact string
		if err := rows.Scan(&fact); err != nil {
			return nil, errors.Wrap(err, "scan fact")
		}
		facts = append(facts, fact)
	}
	return facts, errors.Wrap(rows.Err(), "iterate facts")
}

// Similarity computes the Jaccard similarity between the word sets of two
// facts, case-insensitively.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}
