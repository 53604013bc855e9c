// Package ingest builds a knowledge base snapshot from the raw dataset
// tables: the disease/symptom grid, the symptom severity table, the
// disease-to-specialty mapping, the department list, and an optional
// precautions table. It runs offline; the serving path only ever reads the
// snapshot it produces.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/medbotorg/medbot/kb"
)

// ErrBadInput is returned when an input table is missing required columns
// or otherwise unusable.
var ErrBadInput = errors.New("ingest: bad input table")

// defaultSeverity is assigned to symptoms absent from the severity table.
const defaultSeverity = 3

// Sources names the input tables. DiseaseGrid, Severity, Specialties, and
// Departments are required; Precautions is optional.
type Sources struct {
	DiseaseGrid string
	Severity    string
	Specialties string
	Departments string
	Precautions string
}

// typoCorrections fixes known misspellings in the source dataset so the
// same disease never appears under two names.
var typoCorrections = map[string]string{
	"peptic ulcer diseae":                    "peptic ulcer disease",
	"dimorphic hemmorhoids(piles)":           "dimorphic hemmorhoids",
	"paroymsal positional vertigo":           "paroxysmal positional vertigo",
	"(vertigo) paroymsal positional vertigo": "paroxysmal positional vertigo",
}

// cleanText canonicalizes a cell value: lowercase, underscores to spaces,
// collapsed whitespace, then known typo corrections. Empty cells map to "".
func cleanText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	if fixed, ok := typoCorrections[s]; ok {
		return fixed
	}
	return s
}

// Build reads the source tables and assembles a snapshot. Diseases keep the
// order of their first appearance in the grid; diseases without a specialty
// row are dropped with a warning, matching how the dataset is curated.
func Build(src Sources) (*kb.Snapshot, error) {
	severity, err := loadSeverity(src.Severity)
	if err != nil {
		return nil, err
	}

	specs, specOrder, err := loadSpecialties(src.Specialties)
	if err != nil {
		return nil, err
	}

	departments, err := loadDepartments(src.Departments, specs, specOrder)
	if err != nil {
		return nil, err
	}

	var precautions map[string][]string
	if src.Precautions != "" {
		precautions, err = loadPrecautions(src.Precautions)
		if err != nil {
			return nil, err
		}
	}

	grid, err := readTable(src.DiseaseGrid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("%w: disease grid has no data rows", ErrBadInput)
	}

	// Group grid rows by cleaned disease name, first appearance first.
	// Symptoms keep first-encounter order within a disease so repeated
	// builds produce identical snapshots.
	diseaseSymptoms := make(map[string][]string)
	var diseaseOrder []string
	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		name := cleanText(row[0])
		if name == "" {
			continue
		}
		if _, ok := diseaseSymptoms[name]; !ok {
			diseaseOrder = append(diseaseOrder, name)
		}
		for _, cell := range row[1:] {
			sym := cleanText(cell)
			if sym == "" {
				continue
			}
			if !contains(diseaseSymptoms[name], sym) {
				diseaseSymptoms[name] = append(diseaseSymptoms[name], sym)
			}
		}
	}

	snap := &kb.Snapshot{Departments: departments}

	// Specialties in first-encounter order over the kept diseases.
	specSeen := make(map[string]bool)

	// Global symptom list in first-encounter order.
	symSeen := make(map[string]bool)

	var skipped int
	for _, name := range diseaseOrder {
		spec, ok := specs[name]
		if !ok || spec.Specialty == "" {
			slog.Warn("ingest: no specialty for disease, skipping", "disease", name)
			skipped++
			continue
		}

		symptoms := diseaseSymptoms[name]
		symIDs := make([]string, 0, len(symptoms))
		for _, sym := range symptoms {
			if !symSeen[sym] {
				symSeen[sym] = true
				sev := defaultSeverity
				if w, ok := severity[sym]; ok {
					sev = w
				}
				snap.Symptoms = append(snap.Symptoms, kb.Symptom{
					ID:       kb.SymptomID(sym),
					Name:     sym,
					Severity: sev,
				})
			}
			symIDs = append(symIDs, kb.SymptomID(sym))
		}

		specID := kb.SpecialtyID(spec.Specialty)
		if !specSeen[specID] {
			specSeen[specID] = true
			sp := kb.Specialty{ID: specID, Name: spec.Specialty}
			if spec.Department != "" {
				sp.DepartmentID = kb.DepartmentID(spec.Department)
			}
			snap.Specialties = append(snap.Specialties, sp)
		}

		snap.Diseases = append(snap.Diseases, kb.Disease{
			ID:          kb.DiseaseID(name),
			Name:        name,
			Urgency:     kb.ParseUrgency(spec.Urgency),
			SymptomIDs:  symIDs,
			SpecialtyID: specID,
			Precautions: precautions[name],
		})
	}

	if len(snap.Diseases) == 0 {
		return nil, fmt.Errorf("%w: no diseases survived ingestion", ErrBadInput)
	}

	slog.Info("ingest: snapshot assembled",
		"diseases", len(snap.Diseases),
		"symptoms", len(snap.Symptoms),
		"specialties", len(snap.Specialties),
		"departments", len(snap.Departments),
		"skipped", skipped)

	return snap, nil
}

// Run builds the snapshot and writes it to outPath.
func Run(src Sources, outPath string) error {
	snap, err := Build(src)
	if err != nil {
		return err
	}
	if err := kb.WriteSnapshot(outPath, *snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("ingest: snapshot written", "path", outPath)
	return nil
}

// specRow is one disease's row from the specialty mapping.
type specRow struct {
	Specialty      string
	Department     string
	Urgency        string
	AvailableSlots int
}

func loadSeverity(path string) (map[string]int, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	out := make(map[string]int)
	for _, row := range skipHeader(rows) {
		if len(row) < 2 {
			continue
		}
		sym := cleanText(row[0])
		if sym == "" {
			continue
		}
		w, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			slog.Warn("ingest: bad severity weight", "symptom", sym, "value", row[1])
			continue
		}
		out[sym] = w
	}
	return out, nil
}

// loadSpecialties returns the mapping keyed by cleaned disease name plus
// the row order, which later steps need for deterministic output.
func loadSpecialties(path string) (map[string]specRow, []string, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	out := make(map[string]specRow)
	var order []string
	for _, row := range skipHeader(rows) {
		if len(row) < 4 {
			continue
		}
		name := cleanText(row[0])
		if name == "" {
			continue
		}
		// First row wins when a disease appears twice.
		if _, ok := out[name]; ok {
			continue
		}
		r := specRow{
			Specialty:  strings.TrimSpace(row[1]),
			Department: strings.TrimSpace(row[2]),
			Urgency:    strings.TrimSpace(row[3]),
		}
		if len(row) > 4 {
			if n, err := strconv.Atoi(strings.TrimSpace(row[4])); err == nil {
				r.AvailableSlots = n
			}
		}
		out[name] = r
		order = append(order, name)
	}
	return out, order, nil
}

// loadDepartments reads the department table. Available slots live in the
// specialty mapping; each department takes the slots of the first specialty
// row that references it.
func loadDepartments(path string, specs map[string]specRow, specOrder []string) ([]kb.Department, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	slots := make(map[string]int)
	for _, name := range specOrder {
		s := specs[name]
		id := kb.DepartmentID(s.Department)
		if _, ok := slots[id]; !ok {
			slots[id] = s.AvailableSlots
		}
	}

	var out []kb.Department
	seen := make(map[string]bool)
	for _, row := range skipHeader(rows) {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		id := kb.DepartmentID(name)
		if seen[id] {
			continue
		}
		seen[id] = true

		d := kb.Department{ID: id, Name: name, AvailableSlots: slots[id]}
		if len(row) > 1 {
			d.Location = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			d.Floor = strings.TrimSpace(row[2])
		}
		out = append(out, d)
	}
	return out, nil
}

// loadPrecautions reads the optional precautions table: one row per disease
// with precaution columns in priority order.
func loadPrecautions(path string) (map[string][]string, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	out := make(map[string][]string)
	for _, row := range skipHeader(rows) {
		if len(row) < 2 {
			continue
		}
		name := cleanText(row[0])
		if name == "" {
			continue
		}
		if _, ok := out[name]; ok {
			continue
		}
		var list []string
		for _, cell := range row[1:] {
			p := cleanText(cell)
			if p != "" {
				list = append(list, p)
			}
		}
		if len(list) > 0 {
			out[name] = list
		}
	}
	return out, nil
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
