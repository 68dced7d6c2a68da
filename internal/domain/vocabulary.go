// Package domain contains core business entities and rules.
package domain

import "fmt"

// Vocabulary is a named classification scheme containing a tree of terms.
// This is a domain entity - it has no knowledge of external systems.
type Vocabulary struct {
	// ID is the store-assigned identifier for this vocabulary.
	ID int64

	// Name is the vocabulary name, unique across all vocabularies.
	Name string
}

// refKind discriminates the forms a vocabulary reference can take.
type refKind int

const (
	refZero refKind = iota
	refEntity
	refName
	refID
)

// VocabularyRef is a tagged reference to a vocabulary: a live entity,
// a name, or a store identifier. Construct one with VocabularyEntity,
// VocabularyByName, or VocabularyByID and hand it to the taxonomy
// service, which resolves it to a concrete Vocabulary.
//
// The zero value is an empty reference that never resolves.
type VocabularyRef struct {
	kind   refKind
	entity *Vocabulary
	name   string
	id     int64
}

// VocabularyEntity references a vocabulary by an entity already in hand.
// Resolution returns the entity unchanged.
func VocabularyEntity(v *Vocabulary) VocabularyRef {
	return VocabularyRef{kind: refEntity, entity: v}
}

// VocabularyByName references a vocabulary by exact name.
func VocabularyByName(name string) VocabularyRef {
	return VocabularyRef{kind: refName, name: name}
}

// VocabularyByID references a vocabulary by store identifier.
func VocabularyByID(id int64) VocabularyRef {
	return VocabularyRef{kind: refID, id: id}
}

// Entity returns the referenced entity and true when the reference holds one.
func (r VocabularyRef) Entity() (*Vocabulary, bool) {
	return r.entity, r.kind == refEntity && r.entity != nil
}

// Name returns the referenced name and true when the reference is by name.
func (r VocabularyRef) Name() (string, bool) {
	return r.name, r.kind == refName
}

// ID returns the referenced identifier and true when the reference is by ID.
func (r VocabularyRef) ID() (int64, bool) {
	return r.id, r.kind == refID
}

// IsZero reports whether the reference is empty.
func (r VocabularyRef) IsZero() bool {
	return r.kind == refZero || (r.kind == refEntity && r.entity == nil)
}

// String returns a loggable description of the reference.
func (r VocabularyRef) String() string {
	switch r.kind {
	case refEntity:
		if r.entity != nil {
			return fmt.Sprintf("vocabulary<%d:%s>", r.entity.ID, r.entity.Name)
		}
		return "vocabulary<nil>"
	case refName:
		return fmt.Sprintf("vocabulary<name=%s>", r.name)
	case refID:
		return fmt.Sprintf("vocabulary<id=%d>", r.id)
	default:
		return "vocabulary<zero>"
	}
}
