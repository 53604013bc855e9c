package nlp

import "strings"

// Normalize maps a symptom surface form to its canonical token: lowercase,
// trimmed, internal whitespace collapsed, then spaces and hyphens replaced
// with underscores. Pure and idempotent; unknown input normalizes to itself.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// Synonym maps an alternate-language or colloquial phrase to the canonical
// symptom it stands for. Matching is substring containment against the
// lowercased input, so multi-word phrases embedded in longer sentences are
// detected.
type Synonym struct {
	Phrase string
	Target string
}

// DefaultSynonyms is the built-in French/English synonym table. Entries are
// ordered so extraction output is deterministic. Accent-less variants are
// listed because chat input frequently omits diacritics.
func DefaultSynonyms() []Synonym {
	return []Synonym{
		// French -> English
		{"fièvre", "fever"},
		{"toux", "cough"},
		{"mal de tête", "headache"},
		{"maux de tête", "headache"},
		{"céphalée", "headache"},
		{"douleur thoracique", "chest_pain"},
		{"douleur abdominale", "stomach_pain"},
		{"mal de ventre", "stomach_pain"},
		{"mal au ventre", "stomach_pain"},
		{"douleur", "pain"},
		{"fatigué", "fatigue"},
		{"fatigue", "fatigue"},
		{"nausées", "nausea"},
		{"nausée", "nausea"},
		{"vomissements", "vomiting"},
		{"vomissement", "vomiting"},
		{"diarrhée", "diarrhoea"},
		{"diarrhee", "diarrhoea"},
		{"déshydratation", "dehydration"},
		{"déshydraté", "dehydration"},
		{"deshydrate", "dehydration"},
		{"constipation", "constipation"},
		{"éruption cutanée", "skin_rash"},
		{"eruption cutanee", "skin_rash"},
		{"démangeaisons", "itching"},
		{"démangeaison", "itching"},
		{"demangeaison", "itching"},
		{"essoufflement", "breathlessness"},
		{"difficulté à respirer", "breathlessness"},
		{"difficulte a respirer", "breathlessness"},
		{"vertiges", "dizziness"},
		{"vertige", "dizziness"},

		// English variants -> canonical
		{"headaches", "headache"},
		{"coughing", "cough"},
		{"painful", "pain"},
		{"stomach ache", "stomach_pain"},
		{"belly pain", "stomach_pain"},
		{"chest pain", "chest_pain"},
		{"skin rash", "skin_rash"},
		{"difficulty breathing", "breathlessness"},
		{"shortness of breath", "breathlessness"},
		{"dehydrated", "dehydration"},
		{"diarrhea", "diarrhoea"},
	}
}
