package domain

import "strings"

// RootTermID is the parent identifier denoting "this term has no parent".
const RootTermID int64 = 0

// DefaultWeight is the sibling sort key assigned when none is given.
const DefaultWeight = 0

// MaxTreeDepth bounds recursive tree walks. A well-formed taxonomy never
// approaches this; hitting it means the parent chain is cyclic or corrupt.
const MaxTreeDepth = 64

// Term is a single node in a vocabulary's tree, with a parent reference
// and an ordering weight among siblings.
type Term struct {
	// ID is the store-assigned identifier for this term.
	ID int64

	// VocabularyID identifies the owning vocabulary.
	VocabularyID int64

	// Name is the term name. Unique among siblings under the same parent
	// within one vocabulary.
	Name string

	// ParentID is the identifier of the parent term, or RootTermID for
	// tree roots.
	ParentID int64

	// Weight orders siblings ascending.
	Weight int
}

// IsRoot reports whether the term sits at the top of its tree.
func (t *Term) IsRoot() bool {
	return t.ParentID == RootTermID
}

// TermFields carries the caller-supplied fields for term creation.
// ParentID and Weight are optional; absent values take the documented
// defaults (RootTermID and DefaultWeight).
type TermFields struct {
	Name     string
	ParentID *int64
	Weight   *int
}

// NewTerm builds a Term scoped to the given vocabulary, applying defaults
// for the optional fields. The ID is left unset for the store to assign.
func (f TermFields) NewTerm(vocabularyID int64) Term {
	t := Term{
		VocabularyID: vocabularyID,
		Name:         f.Name,
		ParentID:     RootTermID,
		Weight:       DefaultWeight,
	}

	if f.ParentID != nil {
		t.ParentID = *f.ParentID
	}

	if f.Weight != nil {
		t.Weight = *f.Weight
	}

	return t
}

// TermOption is one entry of a flattened, display-ordered term tree,
// suitable for a single-select control with visual nesting.
type TermOption struct {
	// TermID identifies the term this option selects.
	TermID int64 `json:"termId"`

	// Label is the term name prefixed with one dash per level of depth.
	Label string `json:"label"`
}

// OptionLabel renders a term name at the given tree depth. Depth zero is
// the bare name; each level below prefixes one more dash.
func OptionLabel(name string, depth int) string {
	if depth <= 0 {
		return name
	}

	return strings.Repeat("-", depth) + " " + name
}
