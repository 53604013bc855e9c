// Package triage ranks diseases against a set of extracted symptom tokens
// and resolves referral detail from the knowledge base. All operations are
// deterministic, read-only views over an immutable kb.Store.
package triage

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/medbotorg/medbot/kb"
)

// ErrDiseaseNotFound is returned by enrichment lookups for an unknown
// disease id. It is a caller error, never a crash.
var ErrDiseaseNotFound = errors.New("triage: disease not found")

// maxNameResults caps SearchByName output.
const maxNameResults = 10

// RankedDisease is one candidate condition with its match score against the
// user's reported symptoms. Referral and precaution detail is deliberately
// not populated here; callers enrich only the results they present.
type RankedDisease struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Urgency         kb.Urgency `json:"urgency"`
	Symptoms        []string   `json:"symptoms"`         // full symptom profile, display names
	MatchedSymptoms []string   `json:"matched_symptoms"` // input tokens that matched
	MatchScore      float64    `json:"match_score"`      // 0..10
	MatchPercentage float64    `json:"match_percentage"` // 0..100
}

// Referral is the care pathway for a disease: treating specialty and, when
// known, the hospital department handling it.
type Referral struct {
	Specialty  string `json:"specialty"`
	Department string `json:"department"`
	Location   string `json:"location"`
}

// Details is the fully resolved record for a single disease.
type Details struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Urgency     kb.Urgency `json:"urgency"`
	Symptoms    []string   `json:"symptoms"`
	Referral    *Referral  `json:"referral,omitempty"`
	Precautions []string   `json:"precautions,omitempty"`
}

// NameMatch is a disease found by name search.
type NameMatch struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Urgency kb.Urgency `json:"urgency"`
}

// Engine executes symptom queries against the store.
type Engine struct {
	store *kb.Store
}

// New returns an engine over the given store.
func New(s *kb.Store) *Engine {
	return &Engine{store: s}
}

// FindDiseases returns every disease sharing at least one symptom with the
// input token set, scored and ordered. The score measures what fraction of
// the *reported* symptoms the disease accounts for: matched/|input| scaled
// to 0..10. Ordering is score descending, then urgency rank descending,
// then candidate encounter order (stable). An empty input yields an empty
// result, not an error.
func (e *Engine) FindDiseases(tokens []string) []RankedDisease {
	input := dedupeTokens(tokens)
	if len(input) == 0 {
		return nil
	}

	// Candidate generation: union of diseases linked to any input symptom,
	// in first-encounter order. Diseases unrelated to every input symptom
	// never appear: a recall filter, not a ranking penalty.
	seen := make(map[string]bool)
	var candidates []string
	for _, tok := range input {
		symID, ok := e.store.SymptomIDForToken(tok)
		if !ok {
			continue
		}
		for _, diseaseID := range e.store.DiseasesWithSymptom(symID) {
			if !seen[diseaseID] {
				seen[diseaseID] = true
				candidates = append(candidates, diseaseID)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	results := make([]RankedDisease, 0, len(candidates))
	for _, diseaseID := range candidates {
		d, _ := e.store.Disease(diseaseID)

		profile := make(map[string]bool, len(d.SymptomIDs))
		names := make([]string, 0, len(d.SymptomIDs))
		for _, symID := range d.SymptomIDs {
			sym, _ := e.store.Symptom(symID)
			names = append(names, sym.Name)
			profile[symID] = true
		}

		var matched []string
		for _, tok := range input {
			if symID, ok := e.store.SymptomIDForToken(tok); ok && profile[symID] {
				matched = append(matched, tok)
			}
		}

		score := float64(len(matched)) / float64(len(input)) * 10
		if score > 10 {
			score = 10
		}

		results = append(results, RankedDisease{
			ID:              d.ID,
			Name:            d.Name,
			Urgency:         d.Urgency,
			Symptoms:        names,
			MatchedSymptoms: matched,
			MatchScore:      score,
			MatchPercentage: score * 10,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].Urgency.Rank() > results[j].Urgency.Rank()
	})

	slog.Debug("triage: ranked diseases", "input_tokens", len(input), "candidates", len(results))
	return results
}

// SearchByName returns up to 10 diseases whose name contains the query as a
// case-insensitive substring, in store order. Independent of symptom
// matching.
func (e *Engine) SearchByName(query string) []NameMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []NameMatch
	for _, id := range e.store.DiseaseIDs() {
		d, _ := e.store.Disease(id)
		if strings.Contains(strings.ToLower(d.Name), q) {
			matches = append(matches, NameMatch{ID: d.ID, Name: d.Name, Urgency: d.Urgency})
			if len(matches) == maxNameResults {
				break
			}
		}
	}
	return matches
}

// Details resolves the complete record for a disease id: full symptom list,
// referral (when a specialty is linked), and ordered precautions. Unknown
// ids return ErrDiseaseNotFound.
func (e *Engine) Details(id string) (*Details, error) {
	d, ok := e.store.Disease(id)
	if !ok {
		return nil, ErrDiseaseNotFound
	}

	names := make([]string, 0, len(d.SymptomIDs))
	for _, symID := range d.SymptomIDs {
		sym, _ := e.store.Symptom(symID)
		names = append(names, sym.Name)
	}

	referral, err := e.Specialty(id)
	if err != nil {
		return nil, err
	}
	precautions, err := e.Precautions(id)
	if err != nil {
		return nil, err
	}

	return &Details{
		ID:          d.ID,
		Name:        d.Name,
		Urgency:     d.Urgency,
		Symptoms:    names,
		Referral:    referral,
		Precautions: precautions,
	}, nil
}

// Specialty returns the referral for a disease, or nil when the disease has
// no linked specialty (valid data, not a fault). A specialty without a
// department falls back to the general outpatient placement.
func (e *Engine) Specialty(id string) (*Referral, error) {
	d, ok := e.store.Disease(id)
	if !ok {
		return nil, ErrDiseaseNotFound
	}
	if d.SpecialtyID == "" {
		return nil, nil
	}

	sp, _ := e.store.Specialty(d.SpecialtyID)
	ref := &Referral{
		Specialty:  sp.Name,
		Department: "General",
		Location:   "Main Building",
	}
	if sp.DepartmentID != "" {
		if dept, ok := e.store.Department(sp.DepartmentID); ok {
			ref.Department = dept.Name
			if dept.Location != "" {
				ref.Location = dept.Location
			}
		}
	}
	return ref, nil
}

// Precautions returns the ordered precaution list for a disease; an empty
// list is valid data.
func (e *Engine) Precautions(id string) ([]string, error) {
	d, ok := e.store.Disease(id)
	if !ok {
		return nil, ErrDiseaseNotFound
	}
	return d.Precautions, nil
}

// DepartmentInfo is a hospital department with the specialties it hosts,
// for directory listings.
type DepartmentInfo struct {
	Name           string   `json:"name"`
	Location       string   `json:"location"`
	Floor          string   `json:"floor,omitempty"`
	AvailableSlots int      `json:"available_slots"`
	Specialties    []string `json:"specialties,omitempty"`
}

// Specialties lists all specialty names in store order.
func (e *Engine) Specialties() []string {
	ids := e.store.SpecialtyIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		sp, _ := e.store.Specialty(id)
		names = append(names, sp.Name)
	}
	return names
}

// Departments lists all departments in store order, each with its hosted
// specialties in store order.
func (e *Engine) Departments() []DepartmentInfo {
	var out []DepartmentInfo
	for _, id := range e.store.DepartmentIDs() {
		dept, _ := e.store.Department(id)
		info := DepartmentInfo{
			Name:           dept.Name,
			Location:       dept.Location,
			Floor:          dept.Floor,
			AvailableSlots: dept.AvailableSlots,
		}
		for _, spID := range e.store.SpecialtyIDs() {
			sp, _ := e.store.Specialty(spID)
			if sp.DepartmentID == id {
				info.Specialties = append(info.Specialties, sp.Name)
			}
		}
		out = append(out, info)
	}
	return out
}

// dedupeTokens removes duplicates while preserving first-seen order.
func dedupeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
