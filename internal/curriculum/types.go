package curriculum

import (
	"time"

	"github.com/google/uuid"
)

// SubConcept is one level of nesting below a Concept; sub-concepts never nest
// further.
type SubConcept struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Examples    []string   `json:"examples"`
	Exercises   []Exercise `json:"exercises,omitempty"`
}

// Concept is a named unit of curriculum content. Names are unique within a
// unified curriculum; sub-concept names are unique within their concept.
type Concept struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Examples    []string     `json:"examples"`
	SubConcepts []SubConcept `json:"sub_concepts"`
	Exercises   []Exercise   `json:"exercises,omitempty"`
}

// Exercise is a flat record produced independently of the concept tree and
// attached to it after the fact by name.
type Exercise struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	ConceptName    string `json:"concept_name"`
	SubConceptName string `json:"sub_concept_name,omitempty"`
}

// UnifiedCurriculum is the persisted artifact for one subject.
type UnifiedCurriculum struct {
	Concepts []Concept `json:"concepts"`
}

// Descriptor is the sidecar metadata pairing a source document with its role.
type Descriptor struct {
	BookType string `json:"book_type"`
}

const (
	BookTypeCurriculum = "curriculum"
	BookTypeExercise   = "exercise"
)

// GenerationJob identifies one in-flight pipeline run. It is never persisted;
// it exists only for logging and the in-flight registry.
type GenerationJob struct {
	ID          uuid.UUID
	SubjectPath string
	StartedAt   time.Time
}

// GradeStructure is the term/subject directory for one grade.
type GradeStructure struct {
	Grade string              `json:"grade"`
	Terms map[string][]string `json:"terms"`
}
