// Package kb holds the medical knowledge base: diseases, symptoms,
// specialties, and departments with their relations, loaded once from a
// SQLite snapshot into immutable in-memory indexes. After Load returns the
// store is strictly read-only, so concurrent readers need no locking.
package kb

import (
	"errors"

	"github.com/medbotorg/medbot/nlp"
)

// ErrSnapshotLoad is returned (wrapped) for a missing, unreadable, or
// structurally invalid snapshot. It is a fatal startup condition, never a
// per-query error.
var ErrSnapshotLoad = errors.New("kb: snapshot load failed")

// Urgency is the triage urgency level of a disease.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency maps a stored urgency string to one of the three levels.
// Unknown or missing values default to medium.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s)
	default:
		return UrgencyMedium
	}
}

// Rank returns the ordinal priority used as a ranking tie-break:
// high > medium > low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyLow:
		return 1
	default:
		return 2
	}
}

// Disease is a condition in the knowledge base. A disease always has at
// least one symptom; SpecialtyID may be empty. Precautions are ordered
// free-text recommendations, possibly none.
type Disease struct {
	ID          string
	Name        string
	Urgency     Urgency
	SymptomIDs  []string
	SpecialtyID string
	Precautions []string
}

// Symptom is a single symptom. Name is the display form; the canonical
// token is nlp.Normalize(Name). Severity (1-7) is stored for future
// weighting and is not consumed by ranking.
type Symptom struct {
	ID       string
	Name     string
	Severity int
}

// Specialty is a medical specialty; DepartmentID may be empty.
type Specialty struct {
	ID           string
	Name         string
	DepartmentID string
}

// Department is a hospital department.
type Department struct {
	ID             string
	Name           string
	Location       string
	Floor          string
	AvailableSlots int
}

// Stats are aggregate counts over the loaded snapshot, computed once at
// load time.
type Stats struct {
	Diseases    int `json:"diseases"`
	Symptoms    int `json:"symptoms"`
	Specialties int `json:"specialties"`
	Departments int `json:"departments"`
	Relations   int `json:"relations"`
}

// Store is the in-memory knowledge base. All fields are populated by Load
// and never mutated afterwards.
type Store struct {
	diseases        map[string]*Disease
	diseaseOrder    []string
	symptoms        map[string]*Symptom
	specialties     map[string]*Specialty
	specialtyOrder  []string
	departments     map[string]*Department
	departmentOrder []string

	tokenSymptom    map[string]string   // canonical token -> symptom id
	symptomDiseases map[string][]string // symptom id -> disease ids, load order

	stats Stats
}

// Stats returns the aggregate counts captured at load time.
func (s *Store) Stats() Stats { return s.stats }

// Vocabulary returns a fresh canonical-token -> display-name map covering
// every symptom in the store. This is the extraction vocabulary; deriving it
// here guarantees extracted tokens always resolve during ranking.
func (s *Store) Vocabulary() map[string]string {
	vocab := make(map[string]string, len(s.tokenSymptom))
	for tok, id := range s.tokenSymptom {
		vocab[tok] = s.symptoms[id].Name
	}
	return vocab
}

// SymptomIDForToken resolves a canonical token to its symptom id.
func (s *Store) SymptomIDForToken(token string) (string, bool) {
	id, ok := s.tokenSymptom[token]
	return id, ok
}

// DiseasesWithSymptom returns the ids of diseases linked to the symptom, in
// load order. The returned slice is shared store state; callers must not
// modify it.
func (s *Store) DiseasesWithSymptom(symptomID string) []string {
	return s.symptomDiseases[symptomID]
}

// Disease returns the disease with the given id.
func (s *Store) Disease(id string) (*Disease, bool) {
	d, ok := s.diseases[id]
	return d, ok
}

// DiseaseIDs returns all disease ids in load order.
func (s *Store) DiseaseIDs() []string { return s.diseaseOrder }

// Symptom returns the symptom with the given id.
func (s *Store) Symptom(id string) (*Symptom, bool) {
	sym, ok := s.symptoms[id]
	return sym, ok
}

// Specialty returns the specialty with the given id.
func (s *Store) Specialty(id string) (*Specialty, bool) {
	sp, ok := s.specialties[id]
	return sp, ok
}

// SpecialtyIDs returns all specialty ids in load order.
func (s *Store) SpecialtyIDs() []string { return s.specialtyOrder }

// Department returns the department with the given id.
func (s *Store) Department(id string) (*Department, bool) {
	d, ok := s.departments[id]
	return d, ok
}

// DepartmentIDs returns all department ids in load order.
func (s *Store) DepartmentIDs() []string { return s.departmentOrder }

// Entity id derivation. Ids are stable functions of the cleaned display
// name so the ingestion step and test fixtures produce identical snapshots.

func DiseaseID(name string) string    { return "disease_" + nlp.Normalize(name) }
func SymptomID(name string) string    { return "symptom_" + nlp.Normalize(name) }
func SpecialtyID(name string) string  { return "specialty_" + nlp.Normalize(name) }
func DepartmentID(name string) string { return "department_" + nlp.Normalize(name) }
