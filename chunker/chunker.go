// Package chunker extracts candidate noun phrases from free text. It stands
// in for a full linguistic parser: phrases are maximal runs of content words
// between stopwords and punctuation, which is enough to surface multi-word
// symptom names ("skin rash", "douleur abdominale") for vocabulary lookup.
package chunker

import (
	"strings"
	"unicode"

	"github.com/medbotorg/medbot/nlp"
)

// maxPhraseWords caps emitted sub-phrases; symptom names in the knowledge
// base are at most a few words long.
const maxPhraseWords = 3

// Chunker splits text into candidate noun phrases for one language.
type Chunker struct {
	stopwords map[string]struct{}
}

// New returns a chunker using the given stopword list.
func New(stopwords []string) *Chunker {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[w] = struct{}{}
	}
	return &Chunker{stopwords: set}
}

// Available builds the chunker table for all languages with stopword lists.
// Languages absent from the table make the extractor run in fallback mode.
func Available() map[nlp.Language]nlp.Chunker {
	return map[nlp.Language]nlp.Chunker{
		nlp.LangEnglish: New(englishStopwords),
		nlp.LangFrench:  New(frenchStopwords),
	}
}

// Chunks returns candidate phrases from text: each maximal run of content
// words plus its contiguous sub-spans up to maxPhraseWords, in reading
// order, deduplicated. Runs end at stopwords and at punctuation, so a
// phrase never spans a clause boundary.
func (c *Chunker) Chunks(text string) []string {
	var runs [][]string
	var run []string
	flush := func() {
		if len(run) > 0 {
			runs = append(runs, run)
			run = nil
		}
	}
	for _, segment := range splitClauses(text) {
		for _, w := range tokenize(segment) {
			if _, stop := c.stopwords[w]; stop {
				flush()
				continue
			}
			run = append(run, w)
		}
		flush()
	}

	seen := make(map[string]struct{})
	var phrases []string
	emit := func(p string) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			phrases = append(phrases, p)
		}
	}
	for _, r := range runs {
		emit(strings.Join(r, " "))
		for width := 1; width <= maxPhraseWords && width < len(r); width++ {
			for start := 0; start+width <= len(r); start++ {
				emit(strings.Join(r[start:start+width], " "))
			}
		}
	}
	return phrases
}

// splitClauses cuts text at punctuation that marks a clause or sentence
// boundary.
func splitClauses(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', ',', ';', ':', '!', '?', '(', ')':
			return true
		}
		return false
	})
}

// tokenize lowercases and splits text into word tokens. Letters and digits
// are kept; apostrophes split words so French elisions ("j'ai") separate
// cleanly into their function-word parts.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var englishStopwords = []string{
	"i", "me", "my", "we", "our", "you", "your", "he", "she", "it", "they",
	"them", "a", "an", "the", "and", "or", "but", "if", "of", "in", "on",
	"at", "to", "for", "with", "from", "by", "about", "as", "into", "so",
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has",
	"had", "do", "does", "did", "will", "would", "can", "could", "should",
	"feel", "feels", "feeling", "felt", "get", "got", "getting", "also",
	"very", "really", "quite", "some", "any", "lot", "since", "because",
	"that", "this", "these", "those", "not", "no",
}

var frenchStopwords = []string{
	"je", "j", "tu", "il", "elle", "on", "nous", "vous", "ils", "elles",
	"me", "m", "te", "t", "se", "s", "le", "la", "l", "les", "un", "une",
	"des", "de", "d", "du", "au", "aux", "et", "ou", "mais", "donc", "or",
	"ni", "car", "que", "qu", "qui", "quoi", "dans", "sur", "sous", "avec",
	"sans", "pour", "par", "en", "y", "ai", "as", "a", "avons", "avez",
	"ont", "suis", "es", "est", "sommes", "êtes", "sont", "été", "être",
	"avoir", "fais", "fait", "depuis", "très", "trop", "beaucoup", "peu",
	"aussi", "encore", "alors", "comme", "si", "ne", "n", "pas", "plus",
	"mon", "ma", "mes", "ton", "ta", "tes", "son", "sa", "ses", "notre",
	"votre", "leur", "ce", "cet", "cette", "ces", "ça",
}
