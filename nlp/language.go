package nlp

import "strings"

// Language identifies one of the supported input languages.
type Language string

const (
	LangFrench  Language = "fr"
	LangEnglish Language = "en"
)

// DefaultLanguage is returned when no language clears the detection
// threshold.
const DefaultLanguage = LangEnglish

// functionWords holds a closed set of common function words per language.
// Declaration order is the tie-break order for detection.
var functionWords = []struct {
	lang  Language
	words map[string]struct{}
}{
	{LangFrench, wordSet(
		"je", "tu", "il", "elle", "nous", "vous", "ils", "elles",
		"le", "la", "les", "de", "du", "des", "un", "une",
		"ai", "as", "avons", "suis", "est", "sont",
	)},
	{LangEnglish, wordSet(
		"i", "you", "he", "she", "we", "they", "it",
		"the", "a", "an", "of", "and", "have", "has", "am",
		"is", "are", "my", "feel", "with",
	)},
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// detectThreshold is the minimum function-word overlap for a language to be
// selected.
const detectThreshold = 2

// DetectLanguage classifies text by counting distinct function words from
// each supported language. The first language (in declaration order) whose
// overlap reaches the threshold wins; otherwise DefaultLanguage is returned.
// This is a heuristic, not a classifier; short or ambiguous input may be
// misdetected and callers must tolerate that.
func DetectLanguage(text string) Language {
	return DetectLanguageOr(text, DefaultLanguage)
}

// DetectLanguageOr is DetectLanguage with a caller-chosen fallback for input
// where no language clears the threshold.
func DetectLanguageOr(text string, fallback Language) Language {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		seen[w] = struct{}{}
	}

	for _, fw := range functionWords {
		count := 0
		for w := range seen {
			if _, ok := fw.words[w]; ok {
				count++
			}
		}
		if count >= detectThreshold {
			return fw.lang
		}
	}
	return fallback
}
