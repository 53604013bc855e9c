package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/medbotorg/medbot/kb"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func fixtureSources(t *testing.T) Sources {
	t.Helper()
	dir := t.TempDir()

	grid := `Disease,Symptom_1,Symptom_2,Symptom_3
Fungal infection, itching, skin_rash,nodal_skin_eruptions
Fungal infection, itching, skin_rash,
Peptic ulcer diseae, internal_itching, abdominal_pain,
Orphan disease, fever,,
`
	severity := `Symptom,weight
itching,1
skin rash,3
abdominal pain,4
`
	specialties := `Disease,Specialty,Department,Urgency,AvailableSlots
Fungal infection,Dermatology,Skin Department,low,12
peptic ulcer disease,Gastroenterology,Digestive Department,medium,8
`
	departments := `Department,Location,Floor
Skin Department,"Building A",3
Digestive Department,"Building C",2
`
	precautions := `Disease,Precaution_1,Precaution_2,Precaution_3,Precaution_4
Fungal infection,bath twice,use detol or neem in bathing water,keep infected area dry,use clean cloths
`

	return Sources{
		DiseaseGrid: writeFile(t, dir, "dataset.csv", grid),
		Severity:    writeFile(t, dir, "severity.csv", severity),
		Specialties: writeFile(t, dir, "specialties.csv", specialties),
		Departments: writeFile(t, dir, "departments.csv", departments),
		Precautions: writeFile(t, dir, "precautions.csv", precautions),
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" Skin_Rash ", "skin rash"},
		{"FUNGAL  INFECTION", "fungal infection"},
		{"peptic ulcer diseae", "peptic ulcer disease"},
		{"dimorphic hemmorhoids(piles)", "dimorphic hemmorhoids"},
		{"paroymsal  positional vertigo", "paroxysmal positional vertigo"},
		{"(vertigo) paroymsal positional vertigo", "paroxysmal positional vertigo"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	snap, err := Build(fixtureSources(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// "Orphan disease" has no specialty row and is dropped.
	if len(snap.Diseases) != 2 {
		t.Fatalf("diseases = %d, want 2", len(snap.Diseases))
	}

	fungal := snap.Diseases[0]
	if fungal.Name != "fungal infection" {
		t.Errorf("first disease = %q", fungal.Name)
	}
	if fungal.Urgency != kb.UrgencyLow {
		t.Errorf("urgency = %s, want low", fungal.Urgency)
	}
	// Rows for the same disease merge; symptoms dedupe in encounter order.
	wantSymptoms := []string{
		kb.SymptomID("itching"),
		kb.SymptomID("skin rash"),
		kb.SymptomID("nodal skin eruptions"),
	}
	if !reflect.DeepEqual(fungal.SymptomIDs, wantSymptoms) {
		t.Errorf("SymptomIDs = %v, want %v", fungal.SymptomIDs, wantSymptoms)
	}
	if len(fungal.Precautions) != 4 || fungal.Precautions[0] != "bath twice" {
		t.Errorf("precautions = %v", fungal.Precautions)
	}

	// The typo in the grid and the corrected spelling in the specialty
	// table land on the same disease.
	ulcer := snap.Diseases[1]
	if ulcer.Name != "peptic ulcer disease" {
		t.Errorf("second disease = %q", ulcer.Name)
	}
	if ulcer.SpecialtyID != kb.SpecialtyID("Gastroenterology") {
		t.Errorf("specialty = %q", ulcer.SpecialtyID)
	}

	// Severity from the table where present, default 3 elsewhere.
	sev := make(map[string]int)
	for _, s := range snap.Symptoms {
		sev[s.Name] = s.Severity
	}
	if sev["itching"] != 1 || sev["skin rash"] != 3 {
		t.Errorf("severities = %v", sev)
	}
	if sev["nodal skin eruptions"] != defaultSeverity {
		t.Errorf("default severity = %d, want %d", sev["nodal skin eruptions"], defaultSeverity)
	}
	if sev["internal itching"] != defaultSeverity {
		t.Errorf("internal itching severity = %d, want %d", sev["internal itching"], defaultSeverity)
	}

	// Departments carry location and the slots of the referencing
	// specialty row.
	if len(snap.Departments) != 2 {
		t.Fatalf("departments = %d, want 2", len(snap.Departments))
	}
	if snap.Departments[0].Name != "Skin Department" || snap.Departments[0].Location != "Building A" {
		t.Errorf("department = %+v", snap.Departments[0])
	}
	if snap.Departments[0].AvailableSlots != 12 {
		t.Errorf("slots = %d, want 12", snap.Departments[0].AvailableSlots)
	}
}

// The assembled snapshot must survive a write/load roundtrip, proving ingest
// output satisfies the loader's invariants.
func TestRunRoundtrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "medbot.db")
	if err := Run(fixtureSources(t), out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s, err := kb.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Stats().Diseases != 2 {
		t.Errorf("diseases = %d, want 2", s.Stats().Diseases)
	}
	if _, ok := s.SymptomIDForToken("skin_rash"); !ok {
		t.Error("skin_rash not in token index")
	}
}

func TestBuildMissingInput(t *testing.T) {
	src := fixtureSources(t)
	src.Severity = filepath.Join(t.TempDir(), "missing.csv")

	if _, err := Build(src); !errors.Is(err, ErrBadInput) {
		t.Errorf("err = %v, want ErrBadInput", err)
	}
}

func TestBuildEmptyGrid(t *testing.T) {
	src := fixtureSources(t)
	src.DiseaseGrid = writeFile(t, t.TempDir(), "empty.csv", "Disease,Symptom_1\n")

	if _, err := Build(src); !errors.Is(err, ErrBadInput) {
		t.Errorf("err = %v, want ErrBadInput", err)
	}
}

func TestBuildWithoutPrecautions(t *testing.T) {
	src := fixtureSources(t)
	src.Precautions = ""

	snap, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, d := range snap.Diseases {
		if len(d.Precautions) != 0 {
			t.Errorf("%s has precautions without a table: %v", d.ID, d.Precautions)
		}
	}
}

func TestReadTableUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.txt", "hi")
	if _, err := readTable(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
