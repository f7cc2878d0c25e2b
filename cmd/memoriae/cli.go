package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/ops"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/web"
)

// defaultUser is the identity CLI commands run as, matching the MCP surface.
const defaultUser = "local"

// newCLIApp creates the CLI application with all commands.
func newCLIApp(eng *engine) *cli.App {
	app := &cli.App{
		Name:    "memoriae",
		Usage:   "Idea garden with automation pressure",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(eng),
			fetchCmd(eng),
			updateCmd(eng),
			deleteCmd(eng),
			listCmd(eng),
			categoryCmd(eng),
			automationCmd(eng),
			settingsCmd(eng),
			serveCmd(eng),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// storeCmd creates the store command.
func storeCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Capture a new seed (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Seed title (optional)"},
			&cli.StringFlag{Name: "categories", Usage: "Comma-separated category IDs"},
			&cli.Int64Flag{Name: "follow-up-at", Usage: "Unix timestamp for a follow-up"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
			}

			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content is required"))
			}

			output, err := ops.StoreSeed(c.Context, eng.env, ops.StoreSeedInput{
				UserID:      defaultUser,
				Title:       c.String("title"),
				Content:     content,
				CategoryIDs: parseIDs(c.String("categories")),
				FollowUpAt:  c.Int64("follow-up-at"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a seed by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "log", Usage: "Include the transaction log"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.FetchSeed(c.Context, eng.env, ops.FetchSeedInput{
				ID:         c.Args().First(),
				UserID:     defaultUser,
				IncludeLog: c.Bool("log"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a seed (optionally reads new content from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "note", Usage: "Annotation to append"},
			&cli.StringFlag{Name: "status", Usage: "New status: active|archived"},
			&cli.StringFlag{Name: "add-categories", Usage: "Comma-separated category IDs to tag"},
			&cli.StringFlag{Name: "remove-categories", Usage: "Comma-separated category IDs to untag"},
			&cli.Int64Flag{Name: "follow-up-at", Usage: "Schedule a follow-up at this Unix timestamp"},
			&cli.BoolFlag{Name: "resolve-follow-up", Usage: "Clear the pending follow-up"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateSeedInput{
				ID:                c.Args().First(),
				UserID:            defaultUser,
				AddCategoryIDs:    parseIDs(c.String("add-categories")),
				RemoveCategoryIDs: parseIDs(c.String("remove-categories")),
				ResolveFollowUp:   c.Bool("resolve-follow-up"),
			}

			// Read new content from stdin if piped
			if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.Content = &text
				}
			}

			if title := c.String("title"); title != "" {
				input.Title = &title
			}
			if note := c.String("note"); note != "" {
				input.Note = &note
			}
			if status := c.String("status"); status != "" {
				input.Status = &status
			}
			if c.IsSet("follow-up-at") {
				at := c.Int64("follow-up-at")
				input.FollowUpAt = &at
			}

			output, err := ops.UpdateSeed(c.Context, eng.env, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a seed",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.DeleteSeed(c.Context, eng.env, ops.DeleteSeedInput{
				ID:     c.Args().First(),
				UserID: defaultUser,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List live seeds, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Page offset"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListSeeds(c.Context, eng.env, ops.ListSeedsInput{
				UserID: defaultUser,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// categoryCmd creates the category command with its subcommands.
func categoryCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage the category tree",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a category node",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Aliases: []string{"p"}, Usage: "Parent category ID"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.CreateCategory(c.Context, eng.env, ops.CreateCategoryInput{
						UserID:   defaultUser,
						Name:     c.Args().First(),
						ParentID: c.String("parent"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a category node",
				ArgsUsage: "<id> <name>",
				Action: func(c *cli.Context) error {
					output, err := ops.RenameCategory(c.Context, eng.env, ops.RenameCategoryInput{
						ID:     c.Args().Get(0),
						UserID: defaultUser,
						Name:   c.Args().Get(1),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "move",
				Usage:     "Move a category node under a new parent",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Aliases: []string{"p"}, Usage: "New parent ID (empty moves to the root)"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.MoveCategory(c.Context, eng.env, ops.MoveCategoryInput{
						ID:          c.Args().First(),
						UserID:      defaultUser,
						NewParentID: c.String("parent"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a category node (children are promoted)",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					output, err := ops.DeleteCategory(c.Context, eng.env, ops.DeleteCategoryInput{
						ID:     c.Args().First(),
						UserID: defaultUser,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List the whole tree ordered by path",
				Action: func(c *cli.Context) error {
					output, err := ops.ListCategories(c.Context, eng.env, ops.ListCategoriesInput{
						UserID: defaultUser,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// automationCmd creates the automation command with its subcommands.
func automationCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "automation",
		Usage: "Inspect registered automations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List automations with their thresholds",
				Action: func(c *cli.Context) error {
					type row struct {
						ID        string   `json:"id"`
						Name      string   `json:"name"`
						Enabled   bool     `json:"enabled"`
						Threshold *float64 `json:"threshold,omitempty"`
					}

					all := eng.env.Registry.All()
					rows := make([]row, 0, len(all))
					for _, a := range all {
						r := row{ID: a.ID(), Name: a.Name(), Enabled: a.Enabled()}
						if t, ok := a.PressureThreshold(); ok {
							r.Threshold = &t
						}
						rows = append(rows, r)
					}
					return outputJSON(map[string]any{"automations": rows})
				},
			},
			{
				Name:      "enqueue",
				Usage:     "Queue one automation run for a seed",
				ArgsUsage: "<automation-id> <seed-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "priority", Usage: "Higher runs first"},
				},
				Action: func(c *cli.Context) error {
					automationID := c.Args().Get(0)
					seedID := c.Args().Get(1)
					if _, ok := eng.env.Registry.Get(automationID); !ok {
						return outputError(errors.NewNotFound("automation", automationID))
					}
					if err := eng.env.Queue.Enqueue(automationID, seedID, defaultUser, c.Int("priority")); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{
						"key": queue.JobKey(automationID, seedID),
					})
				},
			},
		},
	}
}

// settingsCmd creates the settings command with its subcommands.
func settingsCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Manage language-model settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show settings (the API key is masked)",
				Action: func(c *cli.Context) error {
					output, err := ops.GetSettings(c.Context, eng.env, ops.GetSettingsInput{
						UserID: defaultUser,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "set",
				Usage: "Update settings (unset flags are untouched)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base-url", Usage: "OpenAI-compatible endpoint base URL"},
					&cli.StringFlag{Name: "api-key", Usage: "API key (empty clears)"},
					&cli.StringFlag{Name: "model", Usage: "Model name"},
				},
				Action: func(c *cli.Context) error {
					input := ops.UpdateSettingsInput{UserID: defaultUser}
					if c.IsSet("base-url") {
						v := c.String("base-url")
						input.LLMBaseURL = &v
					}
					if c.IsSet("api-key") {
						v := c.String("api-key")
						input.LLMAPIKey = &v
					}
					if c.IsSet("model") {
						v := c.String("model")
						input.LLMModel = &v
					}

					output, err := ops.UpdateSettings(c.Context, eng.env, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// serveCmd creates the serve command: the web UI with the worker and
// scheduler running alongside it.
func serveCmd(eng *engine) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI with the evaluation engine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8377, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			eng.worker.Start()
			defer eng.worker.Stop()
			eng.sched.Start()
			defer eng.sched.Stop()

			srv := web.NewServer(eng.env, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv, eng.env.Logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseIDs splits a comma-separated string into a slice of IDs.
func parseIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
