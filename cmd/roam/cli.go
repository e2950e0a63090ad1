package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
	"github.com/roamlabs/roam/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Service) *cli.App {
	app := &cli.App{
		Name:    "roam",
		Usage:   "Offline action queue and geospatial cache",
		Version: Version,
		Commands: []*cli.Command{
			enqueueCmd(svc),
			pendingCmd(svc),
			syncCmd(svc),
			statusCmd(svc),
			cacheCmd(svc),
			searchCmd(svc),
			featuredCmd(svc),
			recentCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// enqueueCmd creates the enqueue command.
func enqueueCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "enqueue",
		Usage:     "Queue an action for delivery once online (payload via --data or stdin)",
		ArgsUsage: "<type>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON action payload"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("action type is required (submit_fact|vote|comment|save_fact)"))
			}

			data := c.String("data")
			if data == "" && stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				data = piped
			}
			if data != "" && !json.Valid([]byte(data)) {
				return outputError(errors.NewInvalidRequest("payload must be valid JSON"))
			}

			input := ops.EnqueueInput{Type: c.Args().First()}
			if data != "" {
				input.Data = json.RawMessage(data)
			}

			output, err := svc.Enqueue(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// pendingCmd creates the pending command.
func pendingCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "pending",
		Usage: "List queued actions in sync order",
		Action: func(c *cli.Context) error {
			output, err := svc.Pending(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Drain the pending action queue now",
		Action: func(c *cli.Context) error {
			output, err := svc.SyncNow(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show connectivity, queue depth, and cache size",
		Action: func(c *cli.Context) error {
			output, err := svc.Status(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// cacheCmd creates the cache command.
func cacheCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache a fact snapshot (fields via flags, or a JSON fact via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Remote fact identifier"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Fact title"},
			&cli.StringFlag{Name: "description", Usage: "Fact description"},
			&cli.StringFlag{Name: "location", Usage: "Location name"},
			&cli.StringFlag{Name: "category", Usage: "Category id"},
			&cli.Float64Flag{Name: "lat", Usage: "Latitude (requires --lon)"},
			&cli.Float64Flag{Name: "lon", Usage: "Longitude (requires --lat)"},
			&cli.IntFlag{Name: "votes", Usage: "Upvote count"},
			&cli.Int64Flag{Name: "created-at", Usage: "Remote creation time, ms since epoch"},
		},
		Action: func(c *cli.Context) error {
			var f fact.CachedFact

			if stdinHasData() {
				raw, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if err := json.Unmarshal([]byte(raw), &f); err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid fact JSON: %v", err)))
				}
			} else {
				f = fact.CachedFact{
					ID:           c.String("id"),
					Title:        c.String("title"),
					Description:  c.String("description"),
					LocationName: c.String("location"),
					CategoryID:   c.String("category"),
					VoteCountUp:  c.Int("votes"),
					CreatedAt:    c.Int64("created-at"),
				}
				if c.IsSet("lat") {
					lat := c.Float64("lat")
					f.Latitude = &lat
				}
				if c.IsSet("lon") {
					lon := c.Float64("lon")
					f.Longitude = &lon
				}
			}

			output, err := svc.CacheFact(c.Context, ops.CacheFactInput{Fact: f})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the local cache offline",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "categories", Usage: "Comma-separated category ids"},
			&cli.Float64Flag{Name: "lat", Usage: "Geofence center latitude"},
			&cli.Float64Flag{Name: "lon", Usage: "Geofence center longitude"},
			&cli.Float64Flag{Name: "radius", Aliases: []string{"r"}, Usage: "Geofence radius in km"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SearchOfflineInput{
				Query: strings.Join(c.Args().Slice(), " "),
			}
			if cats := c.String("categories"); cats != "" {
				input.Categories = parseList(cats)
			}
			if c.IsSet("lat") {
				lat := c.Float64("lat")
				input.Latitude = &lat
			}
			if c.IsSet("lon") {
				lon := c.Float64("lon")
				input.Longitude = &lon
			}
			if c.IsSet("radius") {
				r := c.Float64("radius")
				input.RadiusKm = &r
			}

			output, err := svc.SearchOffline(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// featuredCmd creates the featured command.
func featuredCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "featured",
		Usage: "List top cached facts by vote count",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := svc.GetFeatured(c.Context, ops.ListingInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List most recently created cached facts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := svc.GetRecent(c.Context, ops.ListingInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
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
	if rErr, ok := err.(*errors.RoamError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), 1)
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

// parseList splits a comma-separated string into a slice.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
