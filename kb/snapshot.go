package kb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is recorded in the meta table at write time and verified at
// load time.
const schemaVersion = "1"

const schemaSQL = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE departments (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	location        TEXT NOT NULL DEFAULT '',
	floor           TEXT NOT NULL DEFAULT '',
	available_slots INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE specialties (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	department_id TEXT REFERENCES departments(id)
);

CREATE TABLE symptoms (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	severity INTEGER NOT NULL DEFAULT 3
);

CREATE TABLE diseases (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	urgency      TEXT NOT NULL DEFAULT 'medium',
	specialty_id TEXT REFERENCES specialties(id),
	position     INTEGER NOT NULL
);

CREATE TABLE disease_symptoms (
	disease_id TEXT NOT NULL REFERENCES diseases(id),
	symptom_id TEXT NOT NULL REFERENCES symptoms(id),
	PRIMARY KEY (disease_id, symptom_id)
);

CREATE TABLE precautions (
	disease_id TEXT NOT NULL REFERENCES diseases(id),
	seq        INTEGER NOT NULL,
	precaution TEXT NOT NULL,
	PRIMARY KEY (disease_id, seq)
);
`

// Snapshot is the full content of a knowledge base snapshot, in the order
// it will be persisted. Disease order is preserved and becomes the stable
// encounter order used by ranking tie-breaks.
type Snapshot struct {
	Departments []Department
	Specialties []Specialty
	Symptoms    []Symptom
	Diseases    []Disease
}

// WriteSnapshot creates a snapshot file at path, replacing any existing
// file, and populates it in a single transaction. Used by the offline
// ingestion step and by tests; the serving path never writes.
func WriteSnapshot(path string, snap Snapshot) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := writeAll(tx, snap); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func writeAll(tx *sql.Tx, snap Snapshot) error {
	if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		return err
	}

	deptStmt, err := tx.Prepare("INSERT INTO departments (id, name, location, floor, available_slots) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer deptStmt.Close()
	for _, d := range snap.Departments {
		if _, err := deptStmt.Exec(d.ID, d.Name, d.Location, d.Floor, d.AvailableSlots); err != nil {
			return fmt.Errorf("inserting department %q: %w", d.Name, err)
		}
	}

	specStmt, err := tx.Prepare("INSERT INTO specialties (id, name, department_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer specStmt.Close()
	for _, sp := range snap.Specialties {
		if _, err := specStmt.Exec(sp.ID, sp.Name, nullable(sp.DepartmentID)); err != nil {
			return fmt.Errorf("inserting specialty %q: %w", sp.Name, err)
		}
	}

	symStmt, err := tx.Prepare("INSERT INTO symptoms (id, name, severity) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer symStmt.Close()
	for _, sym := range snap.Symptoms {
		if _, err := symStmt.Exec(sym.ID, sym.Name, sym.Severity); err != nil {
			return fmt.Errorf("inserting symptom %q: %w", sym.Name, err)
		}
	}

	disStmt, err := tx.Prepare("INSERT INTO diseases (id, name, urgency, specialty_id, position) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer disStmt.Close()
	linkStmt, err := tx.Prepare("INSERT INTO disease_symptoms (disease_id, symptom_id) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer linkStmt.Close()
	precStmt, err := tx.Prepare("INSERT INTO precautions (disease_id, seq, precaution) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer precStmt.Close()

	for pos, d := range snap.Diseases {
		if _, err := disStmt.Exec(d.ID, d.Name, string(ParseUrgency(string(d.Urgency))), nullable(d.SpecialtyID), pos); err != nil {
			return fmt.Errorf("inserting disease %q: %w", d.Name, err)
		}
		for _, symID := range d.SymptomIDs {
			if _, err := linkStmt.Exec(d.ID, symID); err != nil {
				return fmt.Errorf("linking disease %q to symptom %s: %w", d.Name, symID, err)
			}
		}
		for seq, p := range d.Precautions {
			if _, err := precStmt.Exec(d.ID, seq, p); err != nil {
				return fmt.Errorf("inserting precaution for %q: %w", d.Name, err)
			}
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
