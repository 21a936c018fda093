// Package store is the durable-store adapter: passages and the
// word-frequency counter table in PostgreSQL. It is the system of record;
// every failure here is fatal to the calling operation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/postgres"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
)

// Store wraps the shared PostgreSQL client with domain queries.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Store on top of the given client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "store"),
	}
}

// CreatePassage persists a new passage and returns it with its assigned
// identity and timestamp.
func (s *Store) CreatePassage(ctx context.Context, content string) (passage.Passage, error) {
	var p passage.Passage
	p.Content = content
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO passages (content) VALUES ($1) RETURNING id, created_at`,
		content,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return passage.Passage{}, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "creating passage: %v", err)
	}
	return p, nil
}

// IncrementWord applies an atomic increment-or-insert on the word's counter
// row and returns the new count. The upsert is a single statement, so
// concurrent ingestions never lose updates.
func (s *Store) IncrementWord(ctx context.Context, word string) (int64, error) {
	var count int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO word_frequencies (word, frequency) VALUES ($1, 1)
		 ON CONFLICT (word) DO UPDATE
		 SET frequency = word_frequencies.frequency + 1, updated_at = now()
		 RETURNING frequency`,
		word,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing word %q: %w", word, err)
	}
	return count, nil
}

// TopWords returns the n most frequent words, count descending with word
// ascending as the deterministic tie-break.
func (s *Store) TopWords(ctx context.Context, n int) ([]passage.WordCount, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT word, frequency FROM word_frequencies
		 ORDER BY frequency DESC, word ASC
		 LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "querying top words: %v", err)
	}
	defer rows.Close()

	words := make([]passage.WordCount, 0, n)
	for rows.Next() {
		var wc passage.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("scanning word frequency row: %w", err)
		}
		words = append(words, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "iterating top words: %v", err)
	}
	return words, nil
}

// PassagesByID loads the given passages and returns them in the order of
// ids. Unknown ids are skipped; the index and the store may briefly
// disagree after a delete or a backfill lag.
func (s *Store) PassagesByID(ctx context.Context, ids []int64) ([]passage.Passage, error) {
	if len(ids) == 0 {
		return []passage.Passage{}, nil
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, content, created_at FROM passages WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "loading passages: %v", err)
	}
	defer rows.Close()

	byID := make(map[int64]passage.Passage, len(ids))
	for rows.Next() {
		var p passage.Passage
		if err := rows.Scan(&p.ID, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "iterating passages: %v", err)
	}

	ordered := make([]passage.Passage, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		} else {
			s.logger.Warn("indexed passage missing from store", "passage_id", id)
		}
	}
	return ordered, nil
}

// PassageByID loads one passage.
func (s *Store) PassageByID(ctx context.Context, id int64) (passage.Passage, error) {
	var p passage.Passage
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, content, created_at FROM passages WHERE id = $1`, id,
	).Scan(&p.ID, &p.Content, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return passage.Passage{}, apperrors.Newf(apperrors.ErrNotFound, 404, "passage %d", id)
	}
	if err != nil {
		return passage.Passage{}, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "loading passage %d: %v", id, err)
	}
	return p, nil
}
