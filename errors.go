package medbot

import (
	"errors"

	"github.com/medbotorg/medbot/kb"
	"github.com/medbotorg/medbot/triage"
)

var (
	// ErrSnapshotLoad is returned when the knowledge base snapshot cannot
	// be opened or fails validation.
	ErrSnapshotLoad = kb.ErrSnapshotLoad

	// ErrDiseaseNotFound is returned when a disease ID does not exist.
	ErrDiseaseNotFound = triage.ErrDiseaseNotFound

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("medbot: invalid configuration")
)
