package tasks

import (
	"context"

	"github.com/scribeworks/scribe/internal/services"
)

// Phase identifies which stage of a bulk operation a progress update
// describes.
type Phase int

const (
	FetchTranscripts Phase = iota
	ExportTranscript
	ExportDone
)

// ProgressUpdate is a non-blocking status report sent while a bulk operation
// runs.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Err     error
}

// TranscriptFetcher is the slice of the audio service the engine needs.
type TranscriptFetcher interface {
	List(ctx context.Context) ([]services.Transcript, error)
	Get(ctx context.Context, id string) (*services.Transcript, error)
}

// ExportEngine coordinates bulk transcript exports.
type ExportEngine struct {
	audio TranscriptFetcher
}

// NewExportEngine creates an engine over the given transcript source.
func NewExportEngine(audio TranscriptFetcher) *ExportEngine {
	return &ExportEngine{audio: audio}
}

// sendProgress delivers an update without blocking; slow consumers miss
// intermediate updates rather than stalling the export.
func (e *ExportEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
