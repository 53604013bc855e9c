package nlp

import (
	"log/slog"
	"sort"
	"strings"
)

// Extraction is one symptom candidate found in user text.
type Extraction struct {
	Token      string  `json:"token"`      // canonical vocabulary token
	Display    string  `json:"display"`    // human-readable symptom name
	Confidence float64 `json:"confidence"` // 0..1
	Method     string  `json:"method"`
}

// Extraction method labels, reported on each candidate.
const (
	MethodExact          = "exact_match"
	MethodSynonym        = "synonym_match"
	MethodChunk          = "noun_chunk"
	MethodKeyword        = "keyword_match"   // exact match in fallback mode
	MethodSynonymKeyword = "synonym_keyword" // synonym match in fallback mode
)

// Confidence assigned per method. Fallback mode (no chunker for the
// language) uses slightly lower values and skips the chunk stage entirely.
const (
	confExact           = 0.9
	confSynonym         = 0.85
	confChunk           = 0.7
	confExactFallback   = 0.8
	confSynonymFallback = 0.75
)

// Chunker produces candidate noun phrases from raw text for one language.
type Chunker interface {
	Chunks(text string) []string
}

// Extractor finds known symptoms in free text. It is built once from the
// store vocabulary and is safe for concurrent use: all state is read-only
// after construction.
type Extractor struct {
	vocab    map[string]string // canonical token -> display form
	tokens   []string          // sorted keys of vocab, for deterministic scans
	synonyms []Synonym
	chunkers map[Language]Chunker
}

// NewExtractor builds an extractor over the given vocabulary (canonical
// token -> display form). chunkers may be nil or miss languages; extraction
// then degrades to the keyword-only fallback mode for those languages.
func NewExtractor(vocab map[string]string, synonyms []Synonym, chunkers map[Language]Chunker) *Extractor {
	tokens := make([]string, 0, len(vocab))
	for tok := range vocab {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	return &Extractor{
		vocab:    vocab,
		tokens:   tokens,
		synonyms: synonyms,
		chunkers: chunkers,
	}
}

// Vocabulary returns the number of known symptom tokens.
func (e *Extractor) Vocabulary() int { return len(e.tokens) }

// Known reports whether a canonical token is in the vocabulary.
func (e *Extractor) Known(token string) bool {
	_, ok := e.vocab[token]
	return ok
}

// Extract returns the symptoms detected in text, deduplicated by token
// (highest confidence wins) and sorted by confidence descending with
// first-seen order preserved on ties. Empty input and input with no
// vocabulary hits both yield an empty result, never an error.
//
// When lang is empty the language is auto-detected. With a chunker for that
// language the three-stage pipeline runs (exact 0.9, synonym 0.85, chunk
// 0.7); without one, only the first two stages run at 0.8/0.75.
func (e *Extractor) Extract(text string, lang Language) []Extraction {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if lang == "" {
		lang = DetectLanguage(text)
	}

	var chunker Chunker
	if e.chunkers != nil {
		chunker = e.chunkers[lang]
	}

	exactConf, synConf := confExact, confSynonym
	exactMethod, synMethod := MethodExact, MethodSynonym
	if chunker == nil {
		exactConf, synConf = confExactFallback, confSynonymFallback
		exactMethod, synMethod = MethodKeyword, MethodSynonymKeyword
	}

	lower := strings.ToLower(text)
	var found []Extraction

	// Stage 1: known vocabulary, by canonical token or display form.
	for _, tok := range e.tokens {
		display := e.vocab[tok]
		if strings.Contains(lower, tok) || strings.Contains(lower, strings.ToLower(display)) {
			found = append(found, Extraction{
				Token: tok, Display: display, Confidence: exactConf, Method: exactMethod,
			})
		}
	}

	// Stage 2: synonym table; the target must resolve to a known token.
	for _, syn := range e.synonyms {
		if !strings.Contains(lower, syn.Phrase) {
			continue
		}
		tok := Normalize(syn.Target)
		if display, ok := e.vocab[tok]; ok {
			found = append(found, Extraction{
				Token: tok, Display: display, Confidence: synConf, Method: synMethod,
			})
		}
	}

	// Stage 3: noun-phrase chunks, full mode only.
	if chunker != nil {
		for _, chunk := range chunker.Chunks(text) {
			tok := Normalize(chunk)
			if display, ok := e.vocab[tok]; ok {
				found = append(found, Extraction{
					Token: tok, Display: display, Confidence: confChunk, Method: MethodChunk,
				})
			}
		}
	}

	result := dedupe(found)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})

	if len(result) > 0 {
		slog.Debug("nlp: extracted symptoms",
			"language", lang, "count", len(result), "fallback", chunker == nil)
	}
	return result
}

// dedupe keeps one extraction per token. The highest confidence wins; the
// first-seen position is kept so later stages cannot reorder earlier hits.
func dedupe(in []Extraction) []Extraction {
	index := make(map[string]int, len(in))
	out := make([]Extraction, 0, len(in))
	for _, ex := range in {
		if i, ok := index[ex.Token]; ok {
			if ex.Confidence > out[i].Confidence {
				out[i].Confidence = ex.Confidence
				out[i].Method = ex.Method
			}
			continue
		}
		index[ex.Token] = len(out)
		out = append(out, ex)
	}
	return out
}
