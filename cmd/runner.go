package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/repositories"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/stores"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	envFile    string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	db         *sql.DB
	jar        *repositories.PersistentJar
	client     *services.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	EnvFile    string
	Logger     *log.Logger
	Output     io.Writer
	// HTTPClient replaces the cookie-persisting client built from the database.
	HTTPClient *http.Client
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		envFile:    opts.EnvFile,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, moviesCommand, likesCommand, wishlistCommand, contactCommand, prefsCommand,
		exportCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load resolves the configuration named by the global flags. It runs before every command.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")
	r.envFile = cmd.String("env-file")

	config, err := shared.ResolveConfig(r.configPath, r.envFile)
	if err != nil {
		return ctx, err
	}
	if level := cmd.String("log-level"); level != "" {
		config.Log.Level = level
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config = config
	shared.SetLogLevel(r.logger, config.Log.ParsedLevel())
	return ctx, nil
}

// Close releases the database opened by any command.
func (r *Runner) Close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// database opens the configured sqlite store on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// apiClient returns a proxy client whose cookie jar is persisted in the database, so a login made by one
// invocation is seen by the next.
func (r *Runner) apiClient() (*services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	httpClient := r.httpClient
	if httpClient == nil {
		jar, err := r.cookieJar()
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar, Timeout: r.config.Client.Timeout()}
	}

	r.client = services.NewClient(r.config.Client.AppURL, httpClient)
	return r.client, nil
}

func (r *Runner) cookieJar() (*repositories.PersistentJar, error) {
	if r.jar != nil {
		return r.jar, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	jar, err := repositories.NewPersistentJar(repositories.NewCookieRepository(db), r.logger)
	if err != nil {
		return nil, err
	}
	r.jar = jar
	return jar, nil
}

// account is a resolved session with its like and wishlist stores following it.
type account struct {
	session  *stores.Session
	likes    *stores.Membership
	wishlist *stores.Membership
}

func (a *account) membership(kind models.MembershipKind) *stores.Membership {
	if kind == models.Wishlist {
		return a.wishlist
	}
	return a.likes
}

func (a *account) teardown() {
	a.likes.Teardown()
	a.wishlist.Teardown()
	a.session.Teardown()
}

// account builds the stores over the proxy client and runs the first session refresh.
func (r *Runner) account(ctx context.Context) (*account, error) {
	client, err := r.apiClient()
	if err != nil {
		return nil, err
	}

	session := stores.NewSession(client, r.logger)
	likes := stores.NewMembership(models.Likes, client, r.logger)
	wishlist := stores.NewMembership(models.Wishlist, client, r.logger)
	likes.Attach(ctx, session)
	wishlist.Attach(ctx, session)
	session.Init(ctx)

	return &account{session: session, likes: likes, wishlist: wishlist}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
