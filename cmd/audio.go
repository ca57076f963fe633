package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scribeworks/scribe/internal/formatter"
	"github.com/scribeworks/scribe/internal/repositories"
	"github.com/scribeworks/scribe/internal/services"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/scribeworks/scribe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AudioUpload uploads an audio file for transcription.
func (r *Runner) AudioUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: audio file path is required", shared.ErrMissingArgument)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	r.logger.Info("uploading audio", "file", path)

	transcript, err := r.audio.Upload(ctx, filepath.Base(path), file)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Uploaded %s\n", path)
	r.writePlain("Transcription ID: %s\n", transcript.ID)
	r.writePlain("Status: %s\n", transcript.Status)
	return nil
}

// AudioList lists transcriptions from the backend or the local cache.
func (r *Runner) AudioList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	cached := cmd.Bool("cached")
	save := cmd.Bool("save")

	var transcripts []services.Transcript
	var err error

	if cached {
		repo, err := r.transcriptRepo()
		if err != nil {
			return err
		}
		if transcripts, err = repo.List(); err != nil {
			return fmt.Errorf("failed to read cache: %w", err)
		}
		r.logger.Info("loaded transcriptions from cache", "count", len(transcripts))
	} else {
		if transcripts, err = r.audio.List(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if save {
			repo, err := r.transcriptRepo()
			if err != nil {
				return err
			}
			if err := repo.SaveAll(transcripts); err != nil {
				r.logger.Warn("failed to update cache", "error", err)
			} else {
				r.logger.Info("cache updated", "count", len(transcripts))
			}
		}
	}

	if useJSON {
		return r.writeJSON(transcripts, true)
	}

	if len(transcripts) == 0 {
		return r.writePlain("No transcriptions found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Transcriptions (%d)", len(transcripts)))
	for _, t := range transcripts {
		r.writePlain("%s  %-10s %s", t.ID, t.Status, t.Title)
		if t.DurationSecs > 0 {
			r.writePlain("  (%s)", formatter.FormatDuration(t.DurationSecs))
		}
		r.writePlain("\n")
	}
	return nil
}

// AudioGet shows or exports a single transcription.
func (r *Runner) AudioGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: transcription id is required", shared.ErrMissingArgument)
	}

	transcript, err := r.audio.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if format := cmd.String("export"); format != "" {
		output := cmd.String("output")
		if output == "" {
			data, err := formatter.Export(transcript, format)
			if err != nil {
				return err
			}
			_, err = r.output.Write(data)
			return err
		}
		if err := formatter.WriteExport(transcript, format, output); err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", output)
	}

	if cmd.Bool("json") {
		return r.writeJSON(transcript, true)
	}

	r.writePlainHeader(transcript.Title)
	r.writePlain("ID:       %s\n", transcript.ID)
	r.writePlain("Status:   %s\n", transcript.Status)
	if transcript.Language != "" {
		r.writePlain("Language: %s\n", transcript.Language)
	}
	if transcript.DurationSecs > 0 {
		r.writePlain("Duration: %s\n", formatter.FormatDuration(transcript.DurationSecs))
	}
	r.writePlain("\n")
	_, err = r.output.Write(formatter.ExportToText(transcript))
	return err
}

// AudioDelete deletes a transcription on the backend and evicts it from the cache.
func (r *Runner) AudioDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: transcription id is required", shared.ErrMissingArgument)
	}

	if err := r.audio.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if r.db != nil {
		repo := repositories.NewTranscriptRepository(r.db)
		if err := repo.Delete(id); err != nil {
			r.logger.Debug("cache eviction skipped", "error", err)
		}
	}

	return r.writePlain("✓ Deleted %s\n", id)
}

// AudioChat sends a message about a transcription, or prints the chat history
// when no message is given.
func (r *Runner) AudioChat(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: transcription id is required", shared.ErrMissingArgument)
	}

	message := cmd.String("message")
	if message == "" {
		history, err := r.audio.ChatHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if len(history) == 0 {
			return r.writePlain("No messages yet\n")
		}
		for _, msg := range history {
			r.writePlain("[%s] %s\n", msg.Role, msg.Content)
		}
		return nil
	}

	reply, err := r.audio.Chat(ctx, id, message)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("%s\n", reply.Content)
}

// AudioExportAll exports every transcription to a local directory using the
// concurrent export engine.
func (r *Runner) AudioExportAll(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate-limit"),
	}

	transcripts, err := r.audio.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if len(transcripts) == 0 {
		return r.writePlain("No transcriptions to export\n")
	}

	ids := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		ids = append(ids, t.ID)
	}

	r.logger.Info("starting bulk export", "count", len(ids), "format", opts.Format)

	prog := make(chan tasks.ProgressUpdate, len(ids)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			if update.Err != nil {
				r.logger.Warn("export failed", "step", update.Step, "error", update.Err)
				continue
			}
			if update.Message != "" {
				r.logger.Info(update.Message, "step", update.Step, "total", update.Total)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, prog, ids, opts)
	close(prog)
	<-done

	if err != nil {
		return err
	}

	r.writePlainHeader("Export complete")
	r.writePlain("Succeeded: %d\n", result.Succeeded)
	r.writePlain("Failed:    %d\n", result.Failed)
	r.writePlain("Output:    %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest:  %s\n", result.ManifestPath)
	}
	return nil
}

// transcriptRepo returns the local transcript cache, requiring a database.
func (r *Runner) transcriptRepo() (*repositories.TranscriptRepository, error) {
	if r.db == nil {
		return nil, fmt.Errorf("%w: local database unavailable, run 'scribe setup database'", shared.ErrServiceUnavailable)
	}
	return repositories.NewTranscriptRepository(r.db), nil
}
