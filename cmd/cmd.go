// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles login, registration and session inspection.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create a new account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Display username",
					},
					&cli.StringFlag{
						Name:  "first-name",
						Usage: "First name",
					},
					&cli.StringFlag{
						Name:  "last-name",
						Usage: "Last name",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Log out and clear stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show stored token details and verify the session with the backend",
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Show the current user profile",
				Action: r.AuthWhoami,
			},
		},
	}
}

// accountCommand handles profile and credential changes.
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage the logged-in account",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Usage: "New display username",
					},
					&cli.StringFlag{
						Name:  "first-name",
						Usage: "New first name",
					},
					&cli.StringFlag{
						Name:  "last-name",
						Usage: "New last name",
					},
				},
				Action: r.AccountUpdate,
			},
			{
				Name:  "change-password",
				Usage: "Change the account password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "current",
						Usage:    "Current password",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "new",
						Usage:    "New password",
						Required: true,
					},
				},
				Action: r.AccountChangePassword,
			},
			{
				Name:  "change-email",
				Usage: "Change the account email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "New email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Current password, required to confirm",
						Required: true,
					},
				},
				Action: r.AccountChangeEmail,
			},
			{
				Name:  "delete",
				Usage: "Permanently delete the account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.AccountDelete,
			},
		},
	}
}

// audioCommand handles transcription operations.
func audioCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "audio",
		Aliases: []string{"a"},
		Usage:   "Upload audio and manage transcriptions",
		Commands: []*cli.Command{
			{
				Name:  "upload",
				Usage: "Upload an audio file for transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.AudioUpload,
			},
			{
				Name:  "list",
				Usage: "List transcriptions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache instead of the backend",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the listing to the local cache",
					},
				},
				Action: r.AudioList,
			},
			{
				Name:  "get",
				Usage: "Show a single transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Export format (text, markdown, csv)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path for --export",
					},
				},
				Action: r.AudioGet,
			},
			{
				Name:  "delete",
				Usage: "Delete a transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.AudioDelete,
			},
			{
				Name:  "chat",
				Usage: "Ask a question about a transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "Message to send (omit to print chat history)",
					},
				},
				Action: r.AudioChat,
			},
			{
				Name:  "export-all",
				Usage: "Export every transcription to a local directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (text, markdown, csv)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate-limit",
						Usage: "Maximum fetches per second",
						Value: 5,
					},
				},
				Action: r.AudioExportAll,
			},
		},
	}
}

// templatesCommand handles reusable prompt templates.
func templatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"tpl"},
		Usage:   "Manage prompt templates",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List templates",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TemplatesList,
			},
			{
				Name:  "create",
				Usage: "Create a template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Template name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content",
						Usage:    "Template content",
						Required: true,
					},
				},
				Action: r.TemplatesCreate,
			},
			{
				Name:  "update",
				Usage: "Update a template",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Template name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content",
						Usage:    "Template content",
						Required: true,
					},
				},
				Action: r.TemplatesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a template",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.TemplatesDelete,
			},
		},
	}
}

// notificationsCommand handles in-app notifications.
func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "View and acknowledge notifications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "unread",
						Usage: "Only show unread notifications",
					},
				},
				Action: r.NotificationsList,
			},
			{
				Name:  "read",
				Usage: "Mark a notification as read",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.NotificationsRead,
			},
			{
				Name:   "read-all",
				Usage:  "Mark every notification as read",
				Action: r.NotificationsReadAll,
			},
		},
	}
}

// apiCommand handles direct backend calls.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a configuration file from the template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing transcriptions.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive transcription browser",
		Action:  r.TUI,
	}
}
