package nlp

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"french sentence", "j'ai de la fièvre et je suis fatigué", LangFrench},
		{"french symptoms", "il y a une éruption sur la peau et des démangeaisons", LangFrench},
		{"english sentence", "i have a fever and i am tired", LangEnglish},
		{"english symptoms", "my skin is itchy and i feel dizzy", LangEnglish},
		{"empty", "", DefaultLanguage},
		{"bare keywords", "fever cough", DefaultLanguage},
		{"single word", "fièvre", DefaultLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// Mixed input with enough evidence for both languages resolves in
// declaration order, French first.
func TestDetectLanguageMixedPrefersFrench(t *testing.T) {
	text := "je suis tired and the la fever est is"
	if got := DetectLanguage(text); got != LangFrench {
		t.Errorf("DetectLanguage(%q) = %q, want %q", text, got, LangFrench)
	}
}

// Repeated function words count once; two occurrences of the same word are
// not enough to clear the threshold.
func TestDetectLanguageDistinctWords(t *testing.T) {
	text := "je je je fever rash"
	if got := DetectLanguage(text); got != DefaultLanguage {
		t.Errorf("DetectLanguage(%q) = %q, want %q", text, got, DefaultLanguage)
	}
}

// The fallback only applies when no language clears the threshold; clear
// evidence still wins over it.
func TestDetectLanguageOrFallback(t *testing.T) {
	if got := DetectLanguageOr("fièvre", LangFrench); got != LangFrench {
		t.Errorf("DetectLanguageOr(no evidence) = %q, want %q", got, LangFrench)
	}
	if got := DetectLanguageOr("i have a fever", LangFrench); got != LangEnglish {
		t.Errorf("DetectLanguageOr(english evidence) = %q, want %q", got, LangEnglish)
	}
}
