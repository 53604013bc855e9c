// Package medbot is a bilingual symptom triage assistant backed by a
// knowledge base of diseases, symptoms, and care pathways. Free text goes
// through normalization, language detection, and symptom extraction; the
// extracted symptoms are ranked against the knowledge base; a language model
// phrases the reply, with a deterministic fallback when no model is
// reachable.
package medbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medbotorg/medbot/chunker"
	"github.com/medbotorg/medbot/kb"
	"github.com/medbotorg/medbot/llm"
	"github.com/medbotorg/medbot/nlp"
	"github.com/medbotorg/medbot/triage"
)

// Engine is the main entry point for the triage assistant.
type Engine interface {
	// Respond runs the full pipeline for one user message: analysis,
	// ranking, and response generation (LLM or fallback).
	Respond(ctx context.Context, req Request) (*Reply, error)

	// Analyze runs the deterministic part of the pipeline only: language
	// detection, symptom extraction, and condition ranking.
	Analyze(text string, lang nlp.Language) *Analysis

	// SearchDiseases finds diseases by name substring.
	SearchDiseases(query string) []triage.NameMatch

	// DiseaseDetails returns the full record for a disease ID.
	DiseaseDetails(id string) (*triage.Details, error)

	// Departments lists hospital departments with their specialties.
	Departments() []triage.DepartmentInfo

	// Specialties lists all specialty names.
	Specialties() []string

	// Stats reports knowledge base counts.
	Stats() kb.Stats
}

// Request is one user turn.
type Request struct {
	// Text is the user's message.
	Text string `json:"text"`

	// Language forces the reply language; empty means detect from Text.
	Language nlp.Language `json:"language,omitempty"`

	// History holds prior turns of this conversation, oldest first.
	// Roles are "user" and "assistant".
	History []llm.Message `json:"history,omitempty"`
}

// Condition is a ranked candidate enriched with referral detail.
type Condition struct {
	triage.RankedDisease
	Referral    *triage.Referral `json:"referral,omitempty"`
	Precautions []string         `json:"precautions,omitempty"`
}

// Analysis is the deterministic pipeline output for one message.
type Analysis struct {
	Language   nlp.Language     `json:"language"`
	Symptoms   []nlp.Extraction `json:"symptoms"`
	Conditions []Condition      `json:"conditions"`
}

// Reply is the full result of a Respond call.
type Reply struct {
	Text       string           `json:"text"`
	Language   nlp.Language     `json:"language"`
	Symptoms   []nlp.Extraction `json:"symptoms"`
	Conditions []Condition      `json:"conditions"`
	Fallback   bool             `json:"fallback"`
	ModelUsed  string           `json:"model_used,omitempty"`
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg       Config
	store     *kb.Store
	extractor *nlp.Extractor
	triager   *triage.Engine
	chat      llm.Provider
}

// New creates a MedBot engine from configuration. The knowledge base
// snapshot is loaded once; the extraction vocabulary is derived from it so
// the two can never disagree. A missing chat provider is not an error; the
// engine then answers with the deterministic fallback.
func New(cfg Config) (Engine, error) {
	if cfg.MaxConditions <= 0 {
		cfg.MaxConditions = 3
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = nlp.DefaultLanguage
	}
	if cfg.DefaultLanguage != nlp.LangFrench && cfg.DefaultLanguage != nlp.LangEnglish {
		return nil, fmt.Errorf("%w: unsupported default language %q", ErrInvalidConfig, cfg.DefaultLanguage)
	}

	store, err := kb.Load(cfg.resolveSnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	extractor := nlp.NewExtractor(store.Vocabulary(), nlp.DefaultSynonyms(), chunker.Available())

	var chat llm.Provider
	if cfg.Chat.Provider != "" {
		chat, err = llm.NewProvider(cfg.Chat)
		if err != nil {
			return nil, fmt.Errorf("creating chat provider: %w", err)
		}
	} else {
		slog.Info("medbot: no chat provider configured, replies use the fallback")
	}

	return &engine{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		triager:   triage.New(store),
		chat:      chat,
	}, nil
}

// Analyze runs extraction and ranking without touching the language model.
func (e *engine) Analyze(text string, lang nlp.Language) *Analysis {
	if lang == "" {
		lang = nlp.DetectLanguageOr(text, e.cfg.DefaultLanguage)
	}

	symptoms := e.extractor.Extract(text, lang)

	tokens := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		tokens = append(tokens, s.Token)
	}

	ranked := e.triager.FindDiseases(tokens)
	if len(ranked) > e.cfg.MaxConditions {
		ranked = ranked[:e.cfg.MaxConditions]
	}

	conditions := make([]Condition, 0, len(ranked))
	for _, r := range ranked {
		c := Condition{RankedDisease: r}
		if ref, err := e.triager.Specialty(r.ID); err == nil {
			c.Referral = ref
		}
		if prec, err := e.triager.Precautions(r.ID); err == nil {
			c.Precautions = prec
		}
		conditions = append(conditions, c)
	}

	slog.Debug("medbot: analysis complete",
		"language", lang, "symptoms", len(symptoms), "conditions", len(conditions))

	return &Analysis{
		Language:   lang,
		Symptoms:   symptoms,
		Conditions: conditions,
	}
}

// Respond runs the full pipeline for one message.
func (e *engine) Respond(ctx context.Context, req Request) (*Reply, error) {
	analysis := e.Analyze(req.Text, req.Language)

	reply := &Reply{
		Language:   analysis.Language,
		Symptoms:   analysis.Symptoms,
		Conditions: analysis.Conditions,
	}

	if e.chat == nil {
		reply.Text = fallbackResponse(analysis)
		reply.Fallback = true
		return reply, nil
	}

	text, model, err := e.generate(ctx, req, analysis)
	if err != nil {
		slog.Warn("medbot: generation failed, using fallback", "error", err)
		reply.Text = fallbackResponse(analysis)
		reply.Fallback = true
		return reply, nil
	}

	reply.Text = text
	reply.ModelUsed = model
	return reply, nil
}

func (e *engine) SearchDiseases(query string) []triage.NameMatch {
	return e.triager.SearchByName(query)
}

func (e *engine) DiseaseDetails(id string) (*triage.Details, error) {
	return e.triager.Details(id)
}

func (e *engine) Departments() []triage.DepartmentInfo {
	return e.triager.Departments()
}

func (e *engine) Specialties() []string {
	return e.triager.Specialties()
}

func (e *engine) Stats() kb.Stats {
	return e.store.Stats()
}
