// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jsamuelsen/taxonomy-service/internal/domain"
	"github.com/jsamuelsen/taxonomy-service/internal/platform/logging"
	"github.com/jsamuelsen/taxonomy-service/internal/ports"
)

// TaxonomyService orchestrates vocabulary and term use cases.
// It depends on port interfaces, not concrete implementations,
// following the Dependency Inversion Principle.
type TaxonomyService struct {
	vocabularies ports.VocabularyStore
	terms        ports.TermStore
	logger       *slog.Logger
}

// TaxonomyServiceConfig contains dependencies for the taxonomy service.
type TaxonomyServiceConfig struct {
	Vocabularies ports.VocabularyStore
	Terms        ports.TermStore
	Logger       *slog.Logger
}

// NewTaxonomyService creates a new taxonomy service with the provided dependencies.
// Panics if either store is nil; the logger defaults to slog.Default().
func NewTaxonomyService(cfg TaxonomyServiceConfig) *TaxonomyService {
	if cfg.Vocabularies == nil {
		panic("taxonomy service requires a vocabulary store")
	}

	if cfg.Terms == nil {
		panic("taxonomy service requires a term store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TaxonomyService{
		vocabularies: cfg.Vocabularies,
		terms:        cfg.Terms,
		logger:       logger.With(slog.String("component", "app.TaxonomyService")),
	}
}

// ctxLogger returns the context logger, falling back to the service logger.
func (s *TaxonomyService) ctxLogger(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}

	return s.logger
}

// ResolveVocabulary normalizes any vocabulary reference form into a concrete
// entity. An entity reference passes through unchanged; name and ID forms are
// looked up exactly. Returns domain.ErrNotFound when nothing matches or the
// reference is empty.
func (s *TaxonomyService) ResolveVocabulary(ctx context.Context, ref domain.VocabularyRef) (*domain.Vocabulary, error) {
	if entity, ok := ref.Entity(); ok {
		return entity, nil
	}

	if name, ok := ref.Name(); ok {
		vocab, err := s.vocabularies.GetByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving vocabulary by name: %w", err)
		}

		return vocab, nil
	}

	if id, ok := ref.ID(); ok {
		vocab, err := s.vocabularies.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolving vocabulary by id: %w", err)
		}

		return vocab, nil
	}

	return nil, domain.NewNotFoundError("vocabulary", "empty reference")
}

// CreateVocabulary creates a new vocabulary with the given name.
// Returns domain.ErrConflict if a vocabulary with that exact name exists;
// uniqueness is enforced by the store so concurrent creates cannot race.
func (s *TaxonomyService) CreateVocabulary(ctx context.Context, name string) (*domain.Vocabulary, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "cannot be empty")
	}

	vocab, err := s.vocabularies.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("creating vocabulary: %w", err)
	}

	s.ctxLogger(ctx).InfoContext(ctx, "vocabulary created",
		slog.Int64("vocabulary_id", vocab.ID),
		slog.String("name", vocab.Name),
	)

	return vocab, nil
}

// DeleteVocabulary deletes a vocabulary by name. Only the name form is
// accepted; this is a deliberately narrower contract than ResolveVocabulary.
// Returns false without error when no vocabulary has that name. Deletion
// cascades to the vocabulary's terms.
func (s *TaxonomyService) DeleteVocabulary(ctx context.Context, name string) (bool, error) {
	vocab, err := s.vocabularies.GetByName(ctx, name)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("resolving vocabulary for delete: %w", err)
	}

	deleted, err := s.vocabularies.Delete(ctx, vocab.ID)
	if err != nil {
		return false, fmt.Errorf("deleting vocabulary: %w", err)
	}

	if deleted {
		s.ctxLogger(ctx).InfoContext(ctx, "vocabulary deleted",
			slog.Int64("vocabulary_id", vocab.ID),
			slog.String("name", vocab.Name),
		)
	}

	return deleted, nil
}

// VocabularySummary pairs a vocabulary with the number of terms it holds.
type VocabularySummary struct {
	domain.Vocabulary
	TermCount int64
}

// ListVocabularies returns all vocabularies with their term counts.
// Counts are fetched concurrently, one per vocabulary.
func (s *TaxonomyService) ListVocabularies(ctx context.Context) ([]VocabularySummary, error) {
	vocabs, err := s.vocabularies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vocabularies: %w", err)
	}

	fns := make([]func(context.Context) (VocabularySummary, error), len(vocabs))
	for i, vocab := range vocabs {
		fns[i] = func(ctx context.Context) (VocabularySummary, error) {
			count, err := s.terms.CountByVocabulary(ctx, vocab.ID)
			if err != nil {
				return VocabularySummary{}, fmt.Errorf("counting terms of %q: %w", vocab.Name, err)
			}

			return VocabularySummary{Vocabulary: vocab, TermCount: count}, nil
		}
	}

	summaries, err := Parallel(ctx, fns...)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// GetTerm returns the first term in the vocabulary whose name matches exactly.
// Returns domain.ErrNotFound when no term matches, or when the vocabulary
// reference itself does not resolve.
func (s *TaxonomyService) GetTerm(ctx context.Context, ref domain.VocabularyRef, name string) (*domain.Term, error) {
	vocab, err := s.ResolveVocabulary(ctx, ref)
	if err != nil {
		return nil, err
	}

	term, err := s.terms.FirstByName(ctx, vocab.ID, name)
	if err != nil {
		return nil, fmt.Errorf("looking up term %q: %w", name, err)
	}

	return term, nil
}

// TermsQuery selects which terms of a vocabulary to return.
// Exactly one of the three modes applies:
//   - All set: every term of the vocabulary, store-default order.
//   - Parent set: direct children of the named anchor term, weight-ascending;
//     IncludeParent appends the anchor itself after its children.
//   - Neither set: an empty result.
type TermsQuery struct {
	All           bool
	Parent        string
	IncludeParent bool
}

// Terms runs a three-mode term query against a vocabulary.
func (s *TaxonomyService) Terms(ctx context.Context, ref domain.VocabularyRef, q TermsQuery) ([]domain.Term, error) {
	vocab, err := s.ResolveVocabulary(ctx, ref)
	if err != nil {
		return nil, err
	}

	switch {
	case q.All:
		terms, err := s.terms.ListByVocabulary(ctx, vocab.ID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("listing terms: %w", err)
		}

		return terms, nil

	case q.Parent != "":
		anchor, err := s.terms.FirstByName(ctx, vocab.ID, q.Parent)
		if err != nil {
			return nil, fmt.Errorf("resolving anchor term %q: %w", q.Parent, err)
		}

		children, err := s.terms.ListChildren(ctx, vocab.ID, anchor.ID)
		if err != nil {
			return nil, fmt.Errorf("listing children of %q: %w", q.Parent, err)
		}

		if q.IncludeParent {
			children = append(children, *anchor)
		}

		return children, nil

	default:
		return []domain.Term{}, nil
	}
}

// TermsPage returns one page of a vocabulary's terms in identifier order.
// afterID is an exclusive lower bound for cursor paging; limit <= 0 disables
// the page size cap.
func (s *TaxonomyService) TermsPage(ctx context.Context, ref domain.VocabularyRef, afterID int64, limit int) ([]domain.Term, error) {
	vocab, err := s.ResolveVocabulary(ctx, ref)
	if err != nil {
		return nil, err
	}

	terms, err := s.terms.ListByVocabulary(ctx, vocab.ID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}

	return terms, nil
}

// TermNamesByID returns a mapping from term identifier to term name for every
// term in the vocabulary. An unresolvable vocabulary yields an empty map, not
// an error; absence is an expected outcome here.
func (s *TaxonomyService) TermNamesByID(ctx context.Context, ref domain.VocabularyRef) (map[int64]string, error) {
	vocab, err := s.ResolveVocabulary(ctx, ref)
	if err != nil {
		if domain.IsNotFound(err) {
			return map[int64]string{}, nil
		}

		return nil, err
	}

	terms, err := s.terms.ListByVocabulary(ctx, vocab.ID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}

	names := make(map[int64]string, len(terms))
	for _, term := range terms {
		names[term.ID] = term.Name
	}

	return names, nil
}

// OptionsByName flattens the named vocabulary's term tree into a
// display-ordered option list: roots by ascending weight, each root followed
// by its subtree, nested names prefixed with one dash per depth level.
// An unknown vocabulary name yields an empty list. A cyclic or over-deep
// parent chain returns domain.ErrCycle instead of recursing unboundedly.
func (s *TaxonomyService) OptionsByName(ctx context.Context, name string) ([]domain.TermOption, error) {
	vocab, err := s.vocabularies.GetByName(ctx, name)
	if err != nil {
		if domain.IsNotFound(err) {
			return []domain.TermOption{}, nil
		}

		return nil, fmt.Errorf("resolving vocabulary %q: %w", name, err)
	}

	roots, err := s.terms.ListChildren(ctx, vocab.ID, domain.RootTermID)
	if err != nil {
		return nil, fmt.Errorf("listing root terms: %w", err)
	}

	options := make([]domain.TermOption, 0, len(roots))
	visited := make(map[int64]struct{})

	for _, root := range roots {
		options, err = s.appendSubtree(ctx, options, visited, root, 0)
		if err != nil {
			return nil, err
		}
	}

	return options, nil
}

// appendSubtree emits the term at the given depth and recurses into its
// children in weight order.
func (s *TaxonomyService) appendSubtree(
	ctx context.Context,
	options []domain.TermOption,
	visited map[int64]struct{},
	term domain.Term,
	depth int,
) ([]domain.TermOption, error) {
	if _, seen := visited[term.ID]; seen || depth > domain.MaxTreeDepth {
		return nil, domain.NewCycleError(term.VocabularyID, term.ID)
	}

	visited[term.ID] = struct{}{}

	options = append(options, domain.TermOption{
		TermID: term.ID,
		Label:  domain.OptionLabel(term.Name, depth),
	})

	children, err := s.terms.ListChildren(ctx, term.VocabularyID, term.ID)
	if err != nil {
		return nil, fmt.Errorf("listing children of term %d: %w", term.ID, err)
	}

	for _, child := range children {
		options, err = s.appendSubtree(ctx, options, visited, child, depth+1)
		if err != nil {
			return nil, err
		}
	}

	return options, nil
}

// RootOf walks parent references upward from the given term and returns the
// tree root it hangs from. A term that is already a root is returned as-is.
// A dangling parent reference is reported as domain.ErrNotFound; a cyclic
// chain as domain.ErrCycle.
func (s *TaxonomyService) RootOf(ctx context.Context, term *domain.Term) (*domain.Term, error) {
	if term == nil {
		return nil, domain.NewValidationError("term", "cannot be nil")
	}

	current := term
	visited := map[int64]struct{}{current.ID: {}}

	for !current.IsRoot() {
		parent, err := s.terms.GetByID(ctx, current.ParentID)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.NewNotFoundError("parent term", strconv.FormatInt(current.ParentID, 10))
			}

			return nil, fmt.Errorf("fetching parent of term %d: %w", current.ID, err)
		}

		if _, seen := visited[parent.ID]; seen || len(visited) > domain.MaxTreeDepth {
			return nil, domain.NewCycleError(current.VocabularyID, current.ID)
		}

		visited[parent.ID] = struct{}{}
		current = parent
	}

	return current, nil
}

// RootOfID resolves a term by identifier and returns its tree root.
func (s *TaxonomyService) RootOfID(ctx context.Context, termID int64) (*domain.Term, error) {
	term, err := s.terms.GetByID(ctx, termID)
	if err != nil {
		return nil, fmt.Errorf("fetching term %d: %w", termID, err)
	}

	return s.RootOf(ctx, term)
}

// CreateTerm creates a term in the referenced vocabulary. Parent and weight
// default to root and zero when absent from fields. Returns domain.ErrNotFound
// when the vocabulary does not resolve, and domain.ErrConflict when a sibling
// with the same name already exists under the same parent; the store's unique
// index backs the sibling check so concurrent creates cannot race.
func (s *TaxonomyService) CreateTerm(ctx context.Context, ref domain.VocabularyRef, fields domain.TermFields) (*domain.Term, error) {
	vocab, err := s.ResolveVocabulary(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("creating term: %w", err)
	}

	if fields.Name == "" {
		return nil, domain.NewValidationError("name", "cannot be empty")
	}

	term := fields.NewTerm(vocab.ID)

	exists, err := s.terms.HasSibling(ctx, term.VocabularyID, term.ParentID, term.Name)
	if err != nil {
		return nil, fmt.Errorf("checking sibling uniqueness: %w", err)
	}

	if exists {
		return nil, domain.NewConflictErrorWithDetails("term", "duplicate sibling",
			fmt.Sprintf("%q under parent %d", term.Name, term.ParentID))
	}

	created, err := s.terms.Create(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("creating term: %w", err)
	}

	s.ctxLogger(ctx).InfoContext(ctx, "term created",
		slog.Int64("term_id", created.ID),
		slog.Int64("vocabulary_id", created.VocabularyID),
		slog.String("name", created.Name),
		slog.Int64("parent_id", created.ParentID),
	)

	return created, nil
}
