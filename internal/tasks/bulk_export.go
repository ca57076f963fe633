package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scribeworks/scribe/internal/formatter"
	"github.com/scribeworks/scribe/internal/shared"
)

// BulkExportOpts contains configuration for bulk transcript exports.
type BulkExportOpts struct {
	Format     string  // Export format: text, markdown, csv
	OutputDir  string  // Base output directory (default: scribe_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// ExportResult summarizes one transcript's export.
type ExportResult struct {
	TranscriptID string `json:"transcript_id"`
	Title        string `json:"title"`
	Success      bool   `json:"success"`
	File         string `json:"file,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	Err          error  `json:"-"`
}

// BulkExportResult summarizes a whole bulk export run.
type BulkExportResult struct {
	Total           int            `json:"total"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	OutputDirectory string         `json:"output_directory"`
	ManifestPath    string         `json:"manifest_path,omitempty"`
	Results         []ExportResult `json:"results"`
}

type exportJob struct {
	id    string
	title string
}

// BulkExport downloads and renders the given transcripts concurrently.
//
// A worker pool fans out over the IDs while a rate limiter keeps the backend
// traffic bounded. Partial failures are recorded per transcript rather than
// aborting the run, and a manifest file summarizing the results lands in the
// output directory.
func (e *ExportEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.audio == nil {
		return nil, fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("scribe_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan ExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	e.sendProgress(prog, ProgressUpdate{Phase: FetchTranscripts, Total: len(ids)})
	for i, id := range ids {
		jobs <- exportJob{id: id}
		e.sendProgress(prog, ProgressUpdate{Phase: ExportTranscript, Step: i + 1, Total: len(ids)})
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			e.sendProgress(prog, ProgressUpdate{
				Phase:   ExportDone,
				Step:    completed,
				Total:   len(ids),
				Message: fmt.Sprintf("exported %s", res.Title),
			})
		} else {
			result.Failed++
			e.sendProgress(prog, ProgressUpdate{
				Phase:   ExportDone,
				Step:    completed,
				Total:   len(ids),
				Message: fmt.Sprintf("failed %s", res.TranscriptID),
				Err:     res.Err,
			})
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	manifest, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("export completed but failed to build manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	return result, nil
}

// exportWorker drains the jobs channel, fetching and rendering one
// transcript at a time.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan exportJob,
	results chan<- ExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- ExportResult{TranscriptID: job.id, Err: ctx.Err(), ErrorMessage: ctx.Err().Error()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			results <- ExportResult{TranscriptID: job.id, Err: err, ErrorMessage: err.Error()}
			continue
		}

		results <- e.exportSingle(ctx, job.id, opts)
	}
}

// exportSingle fetches one transcript and writes it in the requested format.
func (e *ExportEngine) exportSingle(ctx context.Context, id string, opts BulkExportOpts) ExportResult {
	result := ExportResult{TranscriptID: id}

	transcript, err := e.audio.Get(ctx, id)
	if err != nil {
		result.Err = fmt.Errorf("failed to fetch transcript: %w", err)
		result.ErrorMessage = result.Err.Error()
		return result
	}
	result.Title = transcript.Title

	ext := map[string]string{"text": "txt", "txt": "txt", "markdown": "md", "md": "md", "csv": "csv"}[opts.Format]
	if ext == "" {
		ext = "txt"
	}
	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", id, ext))

	if err := formatter.WriteExport(transcript, opts.Format, path); err != nil {
		result.Err = err
		result.ErrorMessage = err.Error()
		return result
	}

	result.File = path
	result.Success = true
	return result
}
