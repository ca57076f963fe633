package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/scribeworks/scribe/internal/auth"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/scribeworks/scribe/internal/tokens"
	"github.com/urfave/cli/v3"
)

// promptPassword reads a password from stdin when the flag was omitted.
func (r *Runner) promptPassword(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: failed to read password", shared.ErrMissingCredentials)
	}
	password := strings.TrimSpace(line)
	if password == "" {
		return "", fmt.Errorf("%w: password is required", shared.ErrMissingCredentials)
	}
	return password, nil
}

// AuthLogin authenticates with email and password and stores the session tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	if password == "" {
		var err error
		if password, err = r.promptPassword("Password"); err != nil {
			return err
		}
	}

	r.logger.Info("logging in", "email", email)

	if err := r.auth.Login(ctx, email, password); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.writePlain("✓ Logged in\n")
	if user := r.auth.CurrentUser(); user != nil {
		r.writePlain("Welcome back, %s\n", user.DisplayName())
	} else {
		r.writePlain("Profile could not be loaded yet, run 'scribe auth whoami' to retry\n")
	}
	return nil
}

// AuthRegister creates a new account and logs in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	params := auth.RegisterParams{
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		Username:  cmd.String("username"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}

	if params.Password == "" {
		var err error
		if params.Password, err = r.promptPassword("Password"); err != nil {
			return err
		}
	}

	r.logger.Info("creating account", "email", params.Email)

	if err := r.auth.Register(ctx, params); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.writePlain("✓ Account created\n")
	if user := r.auth.CurrentUser(); user != nil {
		r.writePlain("Welcome, %s\n", user.DisplayName())
	}
	return nil
}

// AuthLogout ends the session and clears stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("logging out")
	r.auth.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus shows stored token details and verifies the session with the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	pair, ok := r.client.Tokens().Pair()
	if !ok {
		r.writePlain("✗ Not logged in\n")
		return nil
	}

	if claims, err := tokens.Inspect(pair.Access); err == nil {
		if claims.Subject != "" {
			r.writePlain("Subject: %s\n", claims.Subject)
		}
		if !claims.IssuedAt.IsZero() {
			r.writePlain("Issued:  %s\n", claims.IssuedAt.Format(time.RFC1123))
		}
		if !claims.ExpiresAt.IsZero() {
			r.writePlain("Expires: %s", claims.ExpiresAt.Format(time.RFC1123))
			if time.Now().After(claims.ExpiresAt) {
				r.writePlain(" (expired, will refresh on next request)")
			}
			r.writePlain("\n")
		}
	} else {
		r.logger.Debug("stored access token is not a readable JWT", "error", err)
	}

	r.auth.CheckAuth(ctx)
	session := r.auth.Session()

	switch session.State {
	case auth.StateAuthenticated:
		r.writePlain("Session: ✓ Authenticated\n")
		if session.User != nil {
			r.writePlain("User:    %s\n", session.User.DisplayName())
		}
	case auth.StateAnonymous:
		r.writePlain("Session: ✗ Not authenticated\n")
	default:
		r.writePlain("Session: %s\n", session.State)
	}
	return nil
}

// AuthWhoami fetches and displays the current user profile.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.auth.RefreshUser(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}

	user := r.auth.CurrentUser()
	if user == nil {
		return fmt.Errorf("%w: no user loaded", shared.ErrUnauthorized)
	}

	r.writePlainHeader(user.DisplayName())
	r.writePlain("Email:    %s\n", user.Email)
	if user.Username != "" {
		r.writePlain("Username: %s\n", user.Username)
	}
	if user.DateJoined != "" {
		r.writePlain("Joined:   %s\n", user.DateJoined)
	}
	if user.IsTester {
		r.writePlain("Tester:   yes\n")
	}
	return nil
}
