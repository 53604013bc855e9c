package triage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/medbotorg/medbot/kb"
)

func fixtureStore(t *testing.T) *kb.Store {
	t.Helper()

	snap := kb.Snapshot{
		Departments: []kb.Department{
			{ID: kb.DepartmentID("Skin Department"), Name: "Skin Department", Location: "Building A, 3rd Floor", AvailableSlots: 12},
			{ID: kb.DepartmentID("Cardiology Department"), Name: "Cardiology Department", Location: "Building B", AvailableSlots: 5},
		},
		Specialties: []kb.Specialty{
			{ID: kb.SpecialtyID("Dermatology"), Name: "Dermatology", DepartmentID: kb.DepartmentID("Skin Department")},
			{ID: kb.SpecialtyID("Cardiology"), Name: "Cardiology", DepartmentID: kb.DepartmentID("Cardiology Department")},
			{ID: kb.SpecialtyID("Gastroenterology"), Name: "Gastroenterology"},
		},
		Symptoms: []kb.Symptom{
			{ID: kb.SymptomID("skin rash"), Name: "skin rash", Severity: 3},
			{ID: kb.SymptomID("itching"), Name: "itching", Severity: 1},
			{ID: kb.SymptomID("nodal skin eruptions"), Name: "nodal skin eruptions", Severity: 4},
			{ID: kb.SymptomID("fever"), Name: "fever", Severity: 3},
			{ID: kb.SymptomID("chest pain"), Name: "chest pain", Severity: 7},
			{ID: kb.SymptomID("vomiting"), Name: "vomiting", Severity: 5},
			{ID: kb.SymptomID("stomach pain"), Name: "stomach pain", Severity: 5},
		},
		Diseases: []kb.Disease{
			{
				ID:          kb.DiseaseID("fungal infection"),
				Name:        "fungal infection",
				Urgency:     kb.UrgencyLow,
				SymptomIDs:  []string{kb.SymptomID("skin rash"), kb.SymptomID("itching"), kb.SymptomID("nodal skin eruptions")},
				SpecialtyID: kb.SpecialtyID("Dermatology"),
				Precautions: []string{"bath twice", "use detol or neem in bathing water", "keep infected area dry", "use clean cloths"},
			},
			{
				ID:          kb.DiseaseID("drug reaction"),
				Name:        "drug reaction",
				Urgency:     kb.UrgencyLow,
				SymptomIDs:  []string{kb.SymptomID("itching"), kb.SymptomID("skin rash"), kb.SymptomID("stomach pain")},
				SpecialtyID: kb.SpecialtyID("Dermatology"),
			},
			{
				ID:          kb.DiseaseID("heart attack"),
				Name:        "heart attack",
				Urgency:     kb.UrgencyHigh,
				SymptomIDs:  []string{kb.SymptomID("chest pain"), kb.SymptomID("vomiting")},
				SpecialtyID: kb.SpecialtyID("Cardiology"),
			},
			{
				ID:          kb.DiseaseID("gastroenteritis"),
				Name:        "gastroenteritis",
				Urgency:     kb.UrgencyMedium,
				SymptomIDs:  []string{kb.SymptomID("vomiting"), kb.SymptomID("stomach pain"), kb.SymptomID("fever")},
				SpecialtyID: kb.SpecialtyID("Gastroenterology"),
			},
		},
	}

	path := filepath.Join(t.TempDir(), "kb.db")
	if err := kb.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	s, err := kb.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestFindDiseasesFullMatch(t *testing.T) {
	e := New(fixtureStore(t))

	got := e.FindDiseases([]string{"skin_rash", "itching"})
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}

	top := got[0]
	if top.ID != kb.DiseaseID("fungal infection") {
		t.Errorf("top = %s, want fungal infection", top.ID)
	}
	if top.MatchScore != 10 {
		t.Errorf("score = %v, want 10", top.MatchScore)
	}
	if top.MatchPercentage != 100 {
		t.Errorf("percentage = %v, want 100", top.MatchPercentage)
	}
	if !reflect.DeepEqual(top.MatchedSymptoms, []string{"skin_rash", "itching"}) {
		t.Errorf("matched = %v", top.MatchedSymptoms)
	}
	if !reflect.DeepEqual(top.Symptoms, []string{"skin rash", "itching", "nodal skin eruptions"}) {
		t.Errorf("symptoms = %v", top.Symptoms)
	}

	// Drug reaction also matches both tokens against a three-symptom
	// profile. The score measures input coverage, so it ties at 10 with
	// equal urgency, and encounter order keeps it second.
	if got[1].ID != kb.DiseaseID("drug reaction") {
		t.Errorf("second = %s, want drug reaction", got[1].ID)
	}
}

func TestFindDiseasesPartialMatch(t *testing.T) {
	e := New(fixtureStore(t))

	got := e.FindDiseases([]string{"skin_rash", "fever"})

	// fever drags in gastroenteritis (1/2) alongside the two rash
	// diseases (1/2 each).
	if len(got) != 3 {
		t.Fatalf("results = %d, want 3", len(got))
	}
	for _, r := range got {
		if r.MatchScore != 5 {
			t.Errorf("%s score = %v, want 5", r.ID, r.MatchScore)
		}
		if r.MatchPercentage != 50 {
			t.Errorf("%s percentage = %v, want 50", r.ID, r.MatchPercentage)
		}
	}
}

// Diseases sharing no symptom with the input never appear, whatever their
// urgency.
func TestFindDiseasesRecallFilter(t *testing.T) {
	e := New(fixtureStore(t))

	got := e.FindDiseases([]string{"skin_rash"})
	for _, r := range got {
		if r.ID == kb.DiseaseID("heart attack") {
			t.Errorf("heart attack returned without a shared symptom")
		}
	}
}

func TestFindDiseasesUrgencyTieBreak(t *testing.T) {
	e := New(fixtureStore(t))

	// vomiting matches heart attack (high) and gastroenteritis (medium)
	// equally; urgency decides.
	got := e.FindDiseases([]string{"vomiting"})
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got[0].ID != kb.DiseaseID("heart attack") {
		t.Errorf("top = %s, want heart attack", got[0].ID)
	}
	if got[1].ID != kb.DiseaseID("gastroenteritis") {
		t.Errorf("second = %s, want gastroenteritis", got[1].ID)
	}
}

// Urgency only breaks exact score ties; a better-matching low-urgency
// disease still outranks a high-urgency partial match.
func TestFindDiseasesScoreBeatsUrgency(t *testing.T) {
	e := New(fixtureStore(t))

	got := e.FindDiseases([]string{"vomiting", "stomach_pain", "fever"})
	if got[0].ID != kb.DiseaseID("gastroenteritis") {
		t.Errorf("top = %s, want gastroenteritis", got[0].ID)
	}
	if got[0].MatchScore != 10 {
		t.Errorf("score = %v, want 10", got[0].MatchScore)
	}
}

func TestFindDiseasesInputHygiene(t *testing.T) {
	e := New(fixtureStore(t))

	if got := e.FindDiseases(nil); got != nil {
		t.Errorf("nil input: %v, want nil", got)
	}
	if got := e.FindDiseases([]string{"", ""}); got != nil {
		t.Errorf("empty tokens: %v, want nil", got)
	}
	if got := e.FindDiseases([]string{"totally_unknown"}); got != nil {
		t.Errorf("unknown token: %v, want nil", got)
	}

	// Duplicates collapse: the score denominator counts distinct tokens.
	got := e.FindDiseases([]string{"skin_rash", "skin_rash", "itching"})
	if len(got) == 0 || got[0].MatchScore != 10 {
		t.Fatalf("duplicate input not collapsed: %+v", got)
	}
}

func TestFindDiseasesDeterministic(t *testing.T) {
	e := New(fixtureStore(t))
	input := []string{"skin_rash", "itching", "vomiting", "fever"}

	first := e.FindDiseases(input)
	for i := 0; i < 10; i++ {
		if again := e.FindDiseases(input); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestSearchByName(t *testing.T) {
	e := New(fixtureStore(t))

	got := e.SearchByName("Infection")
	if len(got) != 1 || got[0].ID != kb.DiseaseID("fungal infection") {
		t.Fatalf("results = %+v", got)
	}

	if got := e.SearchByName("  "); got != nil {
		t.Errorf("blank query: %v, want nil", got)
	}
	if got := e.SearchByName("xyz"); got != nil {
		t.Errorf("no match: %v, want nil", got)
	}
}

func TestDetails(t *testing.T) {
	e := New(fixtureStore(t))

	d, err := e.Details(kb.DiseaseID("fungal infection"))
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if d.Name != "fungal infection" || d.Urgency != kb.UrgencyLow {
		t.Errorf("details = %+v", d)
	}
	if d.Referral == nil || d.Referral.Specialty != "Dermatology" {
		t.Fatalf("referral = %+v", d.Referral)
	}
	if d.Referral.Department != "Skin Department" || d.Referral.Location != "Building A, 3rd Floor" {
		t.Errorf("referral = %+v", d.Referral)
	}
	if len(d.Precautions) != 4 || d.Precautions[0] != "bath twice" {
		t.Errorf("precautions = %v", d.Precautions)
	}

	if _, err := e.Details("disease_unknown"); !errors.Is(err, ErrDiseaseNotFound) {
		t.Errorf("err = %v, want ErrDiseaseNotFound", err)
	}
}

// A specialty without a department falls back to the general outpatient
// placement.
func TestSpecialtyDefaults(t *testing.T) {
	e := New(fixtureStore(t))

	ref, err := e.Specialty(kb.DiseaseID("gastroenteritis"))
	if err != nil {
		t.Fatalf("Specialty: %v", err)
	}
	if ref == nil {
		t.Fatal("referral is nil")
	}
	if ref.Specialty != "Gastroenterology" {
		t.Errorf("specialty = %q", ref.Specialty)
	}
	if ref.Department != "General" || ref.Location != "Main Building" {
		t.Errorf("defaults not applied: %+v", ref)
	}
}

func TestPrecautionsUnknownDisease(t *testing.T) {
	e := New(fixtureStore(t))

	if _, err := e.Precautions("disease_unknown"); !errors.Is(err, ErrDiseaseNotFound) {
		t.Errorf("err = %v, want ErrDiseaseNotFound", err)
	}
	if _, err := e.Specialty("disease_unknown"); !errors.Is(err, ErrDiseaseNotFound) {
		t.Errorf("err = %v, want ErrDiseaseNotFound", err)
	}
}

func TestDirectoryListings(t *testing.T) {
	e := New(fixtureStore(t))

	specs := e.Specialties()
	if !reflect.DeepEqual(specs, []string{"Dermatology", "Cardiology", "Gastroenterology"}) {
		t.Errorf("specialties = %v", specs)
	}

	depts := e.Departments()
	if len(depts) != 2 {
		t.Fatalf("departments = %d, want 2", len(depts))
	}
	skin := depts[0]
	if skin.Name != "Skin Department" || skin.Location != "Building A, 3rd Floor" || skin.AvailableSlots != 12 {
		t.Errorf("skin department = %+v", skin)
	}
	if !reflect.DeepEqual(skin.Specialties, []string{"Dermatology"}) {
		t.Errorf("skin specialties = %v", skin.Specialties)
	}
	if depts[1].Name != "Cardiology Department" {
		t.Errorf("second department = %q", depts[1].Name)
	}
}
