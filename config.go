package medbot

import (
	"os"
	"path/filepath"

	"github.com/medbotorg/medbot/llm"
	"github.com/medbotorg/medbot/nlp"
)

// Config holds all configuration for the MedBot engine.
type Config struct {
	// SnapshotPath is the full path to the knowledge base snapshot file.
	// If empty, defaults to ~/.medbot/<SnapshotName>.db
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path"`

	// SnapshotName is the name for the snapshot (used when SnapshotPath is
	// empty). Defaults to "medbot". The file will be <SnapshotName>.db
	// inside the storage directory.
	SnapshotName string `json:"snapshot_name" yaml:"snapshot_name"`

	// StorageDir controls where the snapshot is looked up when SnapshotPath
	// is not explicitly set. Options: "home" (default) uses ~/.medbot/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Chat configures the language model used for response generation.
	// Leave Provider empty to run without a model; every reply then uses
	// the deterministic fallback.
	Chat llm.Config `json:"chat" yaml:"chat"`

	// DefaultLanguage is used when detection finds no evidence either way.
	// "fr" or "en".
	DefaultLanguage nlp.Language `json:"default_language" yaml:"default_language"`

	// MaxConditions caps how many ranked conditions are enriched and
	// surfaced in a reply.
	MaxConditions int `json:"max_conditions" yaml:"max_conditions"`

	// HistoryWindow is the number of prior conversation turns included in
	// the generation prompt.
	HistoryWindow int `json:"history_window" yaml:"history_window"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// The snapshot is read from ~/.medbot/medbot.db by default.
func DefaultConfig() Config {
	return Config{
		SnapshotName: "medbot",
		StorageDir:   "home",
		Chat: llm.Config{
			Provider:    "ollama",
			Model:       "mistral",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.7,
		},
		DefaultLanguage: nlp.DefaultLanguage,
		MaxConditions:   3,
		HistoryWindow:   6,
	}
}

// resolveSnapshotPath computes the final snapshot path from config fields.
func (c *Config) resolveSnapshotPath() string {
	if c.SnapshotPath != "" {
		return c.SnapshotPath
	}

	name := c.SnapshotName
	if name == "" {
		name = "medbot"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".medbot")
		return filepath.Join(dir, name+".db")
	}
}
