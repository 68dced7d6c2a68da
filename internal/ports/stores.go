// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrConflict, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/taxonomy-service/internal/domain"
)

// VocabularyStore persists vocabularies. Name uniqueness is a storage-level
// constraint so that concurrent creates cannot slip past an application-level
// existence check.
type VocabularyStore interface {
	// Create stores a new vocabulary and returns it with its assigned ID.
	// Returns domain.ErrConflict if the name is already taken.
	Create(ctx context.Context, name string) (*domain.Vocabulary, error)

	// GetByID retrieves a vocabulary by identifier.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Vocabulary, error)

	// GetByName retrieves a vocabulary by exact name.
	// Returns domain.ErrNotFound if it does not exist.
	GetByName(ctx context.Context, name string) (*domain.Vocabulary, error)

	// List returns all vocabularies in store-default order.
	List(ctx context.Context) ([]domain.Vocabulary, error)

	// Delete removes a vocabulary and, by policy, all terms it owns.
	// Returns false when nothing was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}

// TermStore persists terms. Sibling uniqueness - no two terms with the same
// (vocabulary, parent, name) - is a storage-level constraint for the same
// reason as vocabulary names.
type TermStore interface {
	// Create stores a new term and returns it with its assigned ID.
	// Returns domain.ErrConflict if a sibling with the same name exists.
	Create(ctx context.Context, term domain.Term) (*domain.Term, error)

	// GetByID retrieves a term by identifier.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Term, error)

	// FirstByName returns the first term in the vocabulary with the exact
	// name, in store-default order. Returns domain.ErrNotFound on no match.
	FirstByName(ctx context.Context, vocabularyID int64, name string) (*domain.Term, error)

	// ListByVocabulary returns the vocabulary's terms in store-default
	// (identifier) order. afterID and limit page the result: afterID is an
	// exclusive lower bound on term ID, limit <= 0 means no limit.
	ListByVocabulary(ctx context.Context, vocabularyID, afterID int64, limit int) ([]domain.Term, error)

	// ListChildren returns the direct children of parentID within the
	// vocabulary, ordered by weight ascending (ties broken by ID). Pass
	// domain.RootTermID to list tree roots.
	ListChildren(ctx context.Context, vocabularyID, parentID int64) ([]domain.Term, error)

	// CountByVocabulary returns the number of terms in the vocabulary.
	CountByVocabulary(ctx context.Context, vocabularyID int64) (int64, error)

	// HasSibling reports whether a term with the given name already exists
	// under parentID in the vocabulary.
	HasSibling(ctx context.Context, vocabularyID, parentID int64, name string) (bool, error)
}
