package kb

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/medbotorg/medbot/nlp"
)

// Load reads the snapshot at path into memory and returns an immutable
// Store. Every failure mode (missing file, unreadable database, wrong
// schema version, empty or inconsistent data) wraps ErrSnapshotLoad so
// the caller can abort startup with errors.Is.
func Load(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrSnapshotLoad, path, err)
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("%w: reading schema version: %v", ErrSnapshotLoad, err)
	}
	if version != schemaVersion {
		return nil, fmt.Errorf("%w: schema version %s, want %s", ErrSnapshotLoad, version, schemaVersion)
	}

	s := &Store{
		diseases:        make(map[string]*Disease),
		symptoms:        make(map[string]*Symptom),
		specialties:     make(map[string]*Specialty),
		departments:     make(map[string]*Department),
		tokenSymptom:    make(map[string]string),
		symptomDiseases: make(map[string][]string),
	}

	if err := s.loadDepartments(db); err != nil {
		return nil, fmt.Errorf("%w: departments: %v", ErrSnapshotLoad, err)
	}
	if err := s.loadSpecialties(db); err != nil {
		return nil, fmt.Errorf("%w: specialties: %v", ErrSnapshotLoad, err)
	}
	if err := s.loadSymptoms(db); err != nil {
		return nil, fmt.Errorf("%w: symptoms: %v", ErrSnapshotLoad, err)
	}
	if err := s.loadDiseases(db); err != nil {
		return nil, fmt.Errorf("%w: diseases: %v", ErrSnapshotLoad, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}

	s.stats = Stats{
		Diseases:    len(s.diseases),
		Symptoms:    len(s.symptoms),
		Specialties: len(s.specialties),
		Departments: len(s.departments),
	}
	for _, d := range s.diseases {
		s.stats.Relations += len(d.SymptomIDs)
		if d.SpecialtyID != "" {
			s.stats.Relations++
		}
	}
	for _, sp := range s.specialties {
		if sp.DepartmentID != "" {
			s.stats.Relations++
		}
	}

	slog.Info("kb: snapshot loaded",
		"path", path,
		"diseases", s.stats.Diseases,
		"symptoms", s.stats.Symptoms,
		"specialties", s.stats.Specialties,
		"departments", s.stats.Departments,
		"relations", s.stats.Relations)
	return s, nil
}

func (s *Store) loadDepartments(db *sql.DB) error {
	rows, err := db.Query("SELECT id, name, location, floor, available_slots FROM departments ORDER BY rowid")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Location, &d.Floor, &d.AvailableSlots); err != nil {
			return err
		}
		s.departments[d.ID] = &d
		s.departmentOrder = append(s.departmentOrder, d.ID)
	}
	return rows.Err()
}

func (s *Store) loadSpecialties(db *sql.DB) error {
	rows, err := db.Query("SELECT id, name, COALESCE(department_id, '') FROM specialties ORDER BY rowid")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.DepartmentID); err != nil {
			return err
		}
		if sp.DepartmentID != "" {
			if _, ok := s.departments[sp.DepartmentID]; !ok {
				return fmt.Errorf("specialty %s references unknown department %s", sp.ID, sp.DepartmentID)
			}
		}
		s.specialties[sp.ID] = &sp
		s.specialtyOrder = append(s.specialtyOrder, sp.ID)
	}
	return rows.Err()
}

func (s *Store) loadSymptoms(db *sql.DB) error {
	rows, err := db.Query("SELECT id, name, severity FROM symptoms ORDER BY rowid")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sym Symptom
		if err := rows.Scan(&sym.ID, &sym.Name, &sym.Severity); err != nil {
			return err
		}
		token := nlp.Normalize(sym.Name)
		if other, dup := s.tokenSymptom[token]; dup {
			return fmt.Errorf("symptoms %s and %s share canonical token %q", other, sym.ID, token)
		}
		s.symptoms[sym.ID] = &sym
		s.tokenSymptom[token] = sym.ID
	}
	return rows.Err()
}

func (s *Store) loadDiseases(db *sql.DB) error {
	rows, err := db.Query("SELECT id, name, urgency, COALESCE(specialty_id, '') FROM diseases ORDER BY position")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d Disease
		var urgency string
		if err := rows.Scan(&d.ID, &d.Name, &urgency, &d.SpecialtyID); err != nil {
			return err
		}
		d.Urgency = ParseUrgency(urgency)
		if d.SpecialtyID != "" {
			if _, ok := s.specialties[d.SpecialtyID]; !ok {
				return fmt.Errorf("disease %s references unknown specialty %s", d.ID, d.SpecialtyID)
			}
		}
		s.diseases[d.ID] = &d
		s.diseaseOrder = append(s.diseaseOrder, d.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	linkRows, err := db.Query("SELECT disease_id, symptom_id FROM disease_symptoms ORDER BY rowid")
	if err != nil {
		return err
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var diseaseID, symptomID string
		if err := linkRows.Scan(&diseaseID, &symptomID); err != nil {
			return err
		}
		d, ok := s.diseases[diseaseID]
		if !ok {
			return fmt.Errorf("relation references unknown disease %s", diseaseID)
		}
		if _, ok := s.symptoms[symptomID]; !ok {
			return fmt.Errorf("relation references unknown symptom %s", symptomID)
		}
		d.SymptomIDs = append(d.SymptomIDs, symptomID)
		s.symptomDiseases[symptomID] = append(s.symptomDiseases[symptomID], diseaseID)
	}
	if err := linkRows.Err(); err != nil {
		return err
	}

	precRows, err := db.Query("SELECT disease_id, precaution FROM precautions ORDER BY disease_id, seq")
	if err != nil {
		return err
	}
	defer precRows.Close()

	for precRows.Next() {
		var diseaseID, precaution string
		if err := precRows.Scan(&diseaseID, &precaution); err != nil {
			return err
		}
		d, ok := s.diseases[diseaseID]
		if !ok {
			return fmt.Errorf("precaution references unknown disease %s", diseaseID)
		}
		d.Precautions = append(d.Precautions, precaution)
	}
	return precRows.Err()
}

// validate enforces the structural invariants the query layer relies on.
func (s *Store) validate() error {
	if len(s.diseases) == 0 {
		return fmt.Errorf("snapshot contains no diseases")
	}
	for _, id := range s.diseaseOrder {
		if len(s.diseases[id].SymptomIDs) == 0 {
			return fmt.Errorf("disease %s has no symptoms", id)
		}
	}
	return nil
}
