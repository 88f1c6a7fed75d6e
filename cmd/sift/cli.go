package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/errors"
	"github.com/ecakir/sift/internal/history"
	"github.com/ecakir/sift/internal/query"
	"github.com/ecakir/sift/internal/session"
	"github.com/ecakir/sift/internal/state"
)

// appEnv bundles the shared dependencies commands run against.
type appEnv struct {
	cfg    *config.Config
	client *api.Client
	store  *state.Store
	sess   *session.Manager
	hist   *history.Store
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "sift",
		Usage:   "Email triage client",
		Version: Version,
		Commands: []*cli.Command{
			loginCmd(env),
			registerCmd(env),
			logoutCmd(env),
			whoamiCmd(env),
			analyzeCmd(env),
			listCmd(env),
			showCmd(env),
			deleteCmd(env),
			categoriesCmd(env),
			usageCmd(env),
			gmailCmd(env),
			healthCmd(env),
			langCmd(env),
			historyCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func loginCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate and persist the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (reads stdin when omitted)"},
			&cli.StringFlag{Name: "captcha", Usage: "Captcha token if the server demands one"},
		},
		Action: func(c *cli.Context) error {
			password := c.String("password")
			if password == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("password must be given via --password or piped via stdin"))
				}
				var err error
				password, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			if err := env.sess.Login(c.Context, c.String("email"), password, c.String("captcha")); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"logged_in": env.sess.State() == session.LoggedIn,
				"user":      env.sess.User(),
			})
		},
	}
}

func registerCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Usage: "Password"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Full name (optional)"},
			&cli.StringFlag{Name: "captcha", Usage: "Captcha token if the server demands one"},
		},
		Action: func(c *cli.Context) error {
			input := api.RegisterInput{
				Email:        c.String("email"),
				Password:     c.String("password"),
				CaptchaToken: c.String("captcha"),
			}
			if name := c.String("name"); name != "" {
				input.FullName = &name
			}
			if err := env.sess.Register(c.Context, input); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"registered": true,
				"logged_in":  env.sess.State() == session.LoggedIn,
			})
		},
	}
}

func logoutCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Discard the local session token",
		Action: func(_ *cli.Context) error {
			if err := env.sess.Logout(); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"logged_out": true})
		},
	}
}

func whoamiCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authenticated account",
		Action: func(c *cli.Context) error {
			if err := env.sess.Restore(c.Context); err != nil {
				return outputError(err)
			}
			if env.sess.State() != session.LoggedIn {
				return outputError(errors.NewUnauthorized("not logged in"))
			}
			return outputJSON(env.sess.User())
		},
	}
}

func analyzeCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Classify an email (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Email subject (optional)"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("email content must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("email content is required"))
			}

			input := api.AnalyzeInput{Content: content}
			if s := c.String("subject"); s != "" {
				input.Subject = s
			}

			email, err := env.client.AnalyzeEmail(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			recordAnalysis(env.hist, email)
			return outputJSON(email)
		},
	}
}

func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List analyzed emails, optionally filtered",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Full-text search"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.StringFlag{Name: "from", Usage: "Earliest date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "to", Usage: "Latest date (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "min-confidence", Value: -1, Usage: "Minimum confidence score (0-100)"},
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
			&cli.IntFlag{Name: "page-size", Usage: "Results per page (defaults from config)"},
		},
		Action: func(c *cli.Context) error {
			pageSize := c.Int("page-size")
			if pageSize <= 0 {
				pageSize = env.cfg.PageSize
			}

			ctl := query.New(env.client, pageSize)
			patch := query.Patch{
				Query:    strp(c.String("query")),
				Category: strp(c.String("category")),
				DateFrom: strp(c.String("from")),
				DateTo:   strp(c.String("to")),
			}
			if mc := c.Int("min-confidence"); mc >= 0 {
				patch.MinConfidence = &mc
			}
			ctl.SetParams(patch)

			page, _, err := ctl.Do(c.Context, ctl.SetPage(c.Int("page")))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(page)
		},
	}
}

func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Fetch one email by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			email, err := env.client.GetEmail(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(email)
		},
	}
}

func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an email by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			if err := env.client.DeleteEmail(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": id})
		},
	}
}

func categoriesCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the categories the classifier can assign",
		Action: func(c *cli.Context) error {
			cats, err := env.client.Categories(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(cats)
		},
	}
}

func usageCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show analysis quota usage",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "daily", Usage: "Include the per-day breakdown"},
		},
		Action: func(c *cli.Context) error {
			summary, err := env.client.UsageSummary(c.Context)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("daily") {
				return outputJSON(summary)
			}
			daily, err := env.client.UsageDaily(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"summary":   summary,
				"daily":     daily,
				"sparkline": sparkline(daily),
			})
		},
	}
}

func gmailCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "gmail",
		Usage: "Manage the Gmail connection",
		Subcommands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Print the OAuth consent URL",
				Action: func(c *cli.Context) error {
					url, err := env.client.GmailConnectURL(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"url": url})
				},
			},
			{
				Name:  "status",
				Usage: "Show the Gmail connection status",
				Action: func(c *cli.Context) error {
					status, err := env.client.GmailStatus(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(status)
				},
			},
			{
				Name:  "disconnect",
				Usage: "Revoke the Gmail connection",
				Action: func(c *cli.Context) error {
					if err := env.client.GmailDisconnect(c.Context); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"disconnected": true})
				},
			},
		},
	}
}

func healthCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Ping the backend",
		Action: func(c *cli.Context) error {
			if err := env.client.Health(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"ok": true, "url": env.client.BaseURL()})
		},
	}
}

func langCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "lang",
		Usage:     "Show or set the preferred language",
		ArgsUsage: "[code]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				lang, ok := env.store.Language()
				if !ok {
					lang = "en"
				}
				return outputJSON(map[string]any{"language": lang})
			}
			code := strings.ToLower(c.Args().First())
			if err := env.store.SetLanguage(code); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{"language": code})
		},
	}
}

func historyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show locally recorded analyses",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Max entries to show"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.BoolFlag{Name: "clear", Usage: "Delete all recorded entries"},
		},
		Action: func(c *cli.Context) error {
			if env.hist == nil {
				return outputError(errors.NewInvalidRequest("history is disabled in config"))
			}
			if c.Bool("clear") {
				n, err := env.hist.Clear()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{"cleared": n})
			}
			entries, err := env.hist.Recent(c.Int("limit"), c.String("category"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if entries == nil {
				entries = []history.Entry{}
			}
			return outputJSON(entries)
		},
	}
}

// recordAnalysis logs a classified email locally. History is best-effort
// and never fails the command.
func recordAnalysis(hist *history.Store, email *api.Email) {
	if hist == nil || email == nil {
		return
	}
	subject, category, confidence := "", "", 0
	if email.Subject != nil {
		subject = *email.Subject
	}
	if email.Category != nil {
		category = *email.Category
	}
	if email.ConfidenceScore != nil {
		confidence = *email.ConfidenceScore
	}
	_, _ = hist.Record(email.ID, subject, category, confidence)
}

// sparkline renders the daily series as one block character per day.
func sparkline(daily []api.DailyPoint) string {
	if len(daily) == 0 {
		return ""
	}
	peak := 0
	for _, d := range daily {
		if d.Count > peak {
			peak = d.Count
		}
	}
	levels := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, d := range daily {
		idx := 0
		if peak > 0 {
			idx = d.Count * (len(levels) - 1) / peak
		}
		b.WriteRune(levels[idx])
	}
	return b.String()
}

func idArg(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("id argument is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid id: %s", c.Args().First()))
	}
	return id, nil
}

func strp(s string) *string { return &s }

// outputJSON prints v as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", apiErr.Code, apiErr.Message), 1)
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
