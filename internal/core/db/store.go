package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/factkeeper/internal/types"
)

// DefaultDocumentKey names the workspace document when none is configured.
const DefaultDocumentKey = "default"

// documentRow mirrors one workspace_documents row.
type documentRow struct {
	Key       string `db:"document_key"`
	Facts     string `db:"facts"`
	Rules     string `db:"rules"`
	UpdatedAt string `db:"updated_at"`
}

// DocumentStore persists one workspace document under a key.
// Facts and rules are stored as JSON arrays in separate columns; the whole
// document is replaced on every save.
type DocumentStore struct {
	queries *Queries
	key     string
}

// NewDocumentStore loads the named queries and binds the store to key.
func NewDocumentStore(db *sqlx.DB, key string) (*DocumentStore, error) {
	if key == "" {
		key = DefaultDocumentKey
	}
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{queries: queries, key: key}, nil
}

// Key returns the document key this store reads and writes.
func (s *DocumentStore) Key() string {
	return s.key
}

// Load returns the stored document, or ErrNoDocument when none was saved.
func (s *DocumentStore) Load(ctx context.Context) (*types.Document, error) {
	var row documentRow
	if err := s.queries.Get(ctx, "get-document", &row, s.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNoDocument
		}
		return nil, fmt.Errorf("failed to load document %q: %w", s.key, err)
	}

	doc := &types.Document{}
	if err := json.Unmarshal([]byte(row.Facts), &doc.Facts); err != nil {
		return nil, fmt.Errorf("document %q: failed to decode facts: %w", s.key, err)
	}
	if err := json.Unmarshal([]byte(row.Rules), &doc.Rules); err != nil {
		return nil, fmt.Errorf("document %q: failed to decode rules: %w", s.key, err)
	}
	if doc.Facts == nil {
		doc.Facts = []types.FactDefinition{}
	}
	if doc.Rules == nil {
		doc.Rules = []types.Rule{}
	}
	return doc, nil
}

// Save replaces the stored document.
func (s *DocumentStore) Save(ctx context.Context, doc types.Document) error {
	facts := doc.Facts
	if facts == nil {
		facts = []types.FactDefinition{}
	}
	rules := doc.Rules
	if rules == nil {
		rules = []types.Rule{}
	}

	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return fmt.Errorf("failed to encode facts: %w", err)
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.queries.Exec(ctx, "upsert-document", s.key, string(factsJSON), string(rulesJSON), updatedAt); err != nil {
		return fmt.Errorf("failed to save document %q: %w", s.key, err)
	}
	return nil
}

// Delete removes the stored document. Deleting an absent document is not an
// error.
func (s *DocumentStore) Delete(ctx context.Context) error {
	if _, err := s.queries.Exec(ctx, "delete-document", s.key); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", s.key, err)
	}
	return nil
}

// Keys lists every stored document key.
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.queries.Select(ctx, "list-document-keys", &keys); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return keys, nil
}
