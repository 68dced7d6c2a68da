// Package memory provides an in-memory implementation of the storage ports.
// It is the default driver for tests and local development; all data is lost
// when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jsamuelsen/taxonomy-service/internal/domain"
	"github.com/jsamuelsen/taxonomy-service/internal/ports"
)

// Store holds vocabularies and terms behind a single mutex. The sub-stores
// returned by Vocabularies and Terms share it, so cross-entity operations
// such as cascade delete stay consistent.
type Store struct {
	mu           sync.RWMutex
	vocabularies map[int64]domain.Vocabulary
	terms        map[int64]domain.Term
	nextVocabID  int64
	nextTermID   int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		vocabularies: make(map[int64]domain.Vocabulary),
		terms:        make(map[int64]domain.Term),
	}
}

// Vocabularies returns the vocabulary store view.
func (s *Store) Vocabularies() ports.VocabularyStore {
	return &vocabularyStore{store: s}
}

// Terms returns the term store view.
func (s *Store) Terms() ports.TermStore {
	return &termStore{store: s}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

// Check implements ports.HealthChecker. The in-memory store is always
// reachable; only context cancellation can fail the check.
func (s *Store) Check(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op; the in-memory store holds no external resources.
func (s *Store) Close() error {
	return nil
}

type vocabularyStore struct {
	store *Store
}

func (vs *vocabularyStore) Create(_ context.Context, name string) (*domain.Vocabulary, error) {
	s := vs.store

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, vocab := range s.vocabularies {
		if vocab.Name == name {
			return nil, domain.NewConflictError("vocabulary", "name already exists")
		}
	}

	s.nextVocabID++
	vocab := domain.Vocabulary{ID: s.nextVocabID, Name: name}
	s.vocabularies[vocab.ID] = vocab

	return &vocab, nil
}

func (vs *vocabularyStore) GetByID(_ context.Context, id int64) (*domain.Vocabulary, error) {
	s := vs.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	vocab, ok := s.vocabularies[id]
	if !ok {
		return nil, domain.NewNotFoundError("vocabulary", "")
	}

	return &vocab, nil
}

func (vs *vocabularyStore) GetByName(_ context.Context, name string) (*domain.Vocabulary, error) {
	s := vs.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vocab := range s.vocabularies {
		if vocab.Name == name {
			return &vocab, nil
		}
	}

	return nil, domain.NewNotFoundError("vocabulary", name)
}

func (vs *vocabularyStore) List(_ context.Context) ([]domain.Vocabulary, error) {
	s := vs.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	vocabs := make([]domain.Vocabulary, 0, len(s.vocabularies))
	for _, vocab := range s.vocabularies {
		vocabs = append(vocabs, vocab)
	}

	sort.Slice(vocabs, func(i, j int) bool { return vocabs[i].ID < vocabs[j].ID })

	return vocabs, nil
}

// Delete removes the vocabulary and cascades to every term it owns.
func (vs *vocabularyStore) Delete(_ context.Context, id int64) (bool, error) {
	s := vs.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vocabularies[id]; !ok {
		return false, nil
	}

	delete(s.vocabularies, id)

	for termID, term := range s.terms {
		if term.VocabularyID == id {
			delete(s.terms, termID)
		}
	}

	return true, nil
}

type termStore struct {
	store *Store
}

func (ts *termStore) Create(_ context.Context, term domain.Term) (*domain.Term, error) {
	s := ts.store

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.terms {
		if existing.VocabularyID == term.VocabularyID &&
			existing.ParentID == term.ParentID &&
			existing.Name == term.Name {
			return nil, domain.NewConflictError("term", "duplicate sibling")
		}
	}

	s.nextTermID++
	term.ID = s.nextTermID
	s.terms[term.ID] = term

	return &term, nil
}

func (ts *termStore) GetByID(_ context.Context, id int64) (*domain.Term, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	term, ok := s.terms[id]
	if !ok {
		return nil, domain.NewNotFoundError("term", "")
	}

	return &term, nil
}

func (ts *termStore) FirstByName(_ context.Context, vocabularyID int64, name string) (*domain.Term, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *domain.Term

	for _, term := range s.terms {
		if term.VocabularyID != vocabularyID || term.Name != name {
			continue
		}

		if match == nil || term.ID < match.ID {
			copied := term
			match = &copied
		}
	}

	if match == nil {
		return nil, domain.NewNotFoundError("term", name)
	}

	return match, nil
}

func (ts *termStore) ListByVocabulary(_ context.Context, vocabularyID, afterID int64, limit int) ([]domain.Term, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := make([]domain.Term, 0)

	for _, term := range s.terms {
		if term.VocabularyID == vocabularyID && term.ID > afterID {
			terms = append(terms, term)
		}
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].ID < terms[j].ID })

	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}

	return terms, nil
}

func (ts *termStore) ListChildren(_ context.Context, vocabularyID, parentID int64) ([]domain.Term, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	children := make([]domain.Term, 0)

	for _, term := range s.terms {
		if term.VocabularyID == vocabularyID && term.ParentID == parentID {
			children = append(children, term)
		}
	}

	sort.Slice(children, func(i, j int) bool {
		if children[i].Weight != children[j].Weight {
			return children[i].Weight < children[j].Weight
		}

		return children[i].ID < children[j].ID
	})

	return children, nil
}

func (ts *termStore) CountByVocabulary(_ context.Context, vocabularyID int64) (int64, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64

	for _, term := range s.terms {
		if term.VocabularyID == vocabularyID {
			count++
		}
	}

	return count, nil
}

func (ts *termStore) HasSibling(_ context.Context, vocabularyID, parentID int64, name string) (bool, error) {
	s := ts.store

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, term := range s.terms {
		if term.VocabularyID == vocabularyID && term.ParentID == parentID && term.Name == name {
			return true, nil
		}
	}

	return false, nil
}
