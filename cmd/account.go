package main

import (
	"context"
	"fmt"

	"github.com/scribeworks/scribe/internal/auth"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// AccountUpdate changes profile fields on the logged-in account.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	params := auth.ProfileParams{
		Username:  cmd.String("username"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}

	if params.Username == "" && params.FirstName == "" && params.LastName == "" {
		return fmt.Errorf("%w: nothing to update, pass at least one of --username, --first-name, --last-name", shared.ErrMissingArgument)
	}

	r.logger.Info("updating profile")

	if err := r.auth.UpdateProfile(ctx, params); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	r.writePlain("✓ Profile updated\n")
	if user := r.auth.CurrentUser(); user != nil {
		r.writePlain("Name: %s\n", user.DisplayName())
	}
	return nil
}

// AccountChangePassword changes the account password.
func (r *Runner) AccountChangePassword(ctx context.Context, cmd *cli.Command) error {
	current := cmd.String("current")
	next := cmd.String("new")

	r.logger.Info("changing password")

	if err := r.auth.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	return r.writePlain("✓ Password changed\n")
}

// AccountChangeEmail changes the account email and reloads the profile.
func (r *Runner) AccountChangeEmail(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	r.logger.Info("changing email", "email", email)

	if err := r.auth.ChangeEmail(ctx, email, password); err != nil {
		return fmt.Errorf("failed to change email: %w", err)
	}

	r.writePlain("✓ Email changed\n")
	if user := r.auth.CurrentUser(); user != nil {
		r.writePlain("Email: %s\n", user.Email)
	}
	return nil
}

// AccountDelete permanently deletes the account after confirmation.
func (r *Runner) AccountDelete(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to confirm account deletion", shared.ErrMissingArgument)
	}

	r.logger.Warn("deleting account")

	if err := r.auth.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return r.writePlain("✓ Account deleted\n")
}
