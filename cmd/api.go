package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scribeworks/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Raw(ctx, "GET", path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeResponse(resp.JSON, resp.Text, resp.Empty, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	data := cmd.String("data")

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Raw(ctx, "POST", path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeResponse(resp.JSON, resp.Text, resp.Empty, true)
}

func (r *Runner) writeResponse(raw json.RawMessage, text string, empty bool, pretty bool) error {
	if empty {
		return r.writePlain("(empty response)\n")
	}
	if raw != nil {
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
		}
		return r.writeJSON(data, pretty)
	}
	return r.writePlain("%s\n", text)
}
