package main

import (
	"context"
	"fmt"

	"github.com/scribeworks/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// TemplatesList lists prompt templates.
func (r *Runner) TemplatesList(ctx context.Context, cmd *cli.Command) error {
	templates, err := r.templates.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(templates, true)
	}

	if len(templates) == 0 {
		return r.writePlain("No templates found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Templates (%d)", len(templates)))
	for _, t := range templates {
		r.writePlain("%s  %s\n", t.ID, t.Name)
	}
	return nil
}

// TemplatesCreate creates a prompt template.
func (r *Runner) TemplatesCreate(ctx context.Context, cmd *cli.Command) error {
	template, err := r.templates.Create(ctx, cmd.String("name"), cmd.String("content"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Template created\n")
	r.writePlain("ID: %s\n", template.ID)
	return nil
}

// TemplatesUpdate updates a prompt template.
func (r *Runner) TemplatesUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: template id is required", shared.ErrMissingArgument)
	}

	if _, err := r.templates.Update(ctx, id, cmd.String("name"), cmd.String("content")); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Template updated\n")
}

// TemplatesDelete deletes a prompt template.
func (r *Runner) TemplatesDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: template id is required", shared.ErrMissingArgument)
	}

	if err := r.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Template deleted\n")
}
