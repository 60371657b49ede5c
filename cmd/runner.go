package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// StoreFactory builds a remote store authenticated as token.
type StoreFactory func(ctx context.Context, token *oauth2.Token) (services.RemoteStore, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       *services.GoogleAuth
	stores     StoreFactory
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	version    string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Stores     StoreFactory
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Version    string
}

// NewRunner creates a new Runner with the provided configuration.
//
// A nil Config is loaded from the --config flag before any command runs.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		stores:     opts.Stores,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		version:    opts.Version,
	}
}

// configure loads the config file, applies the log level, and builds the OAuth client when credentials are set.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if r.auth == nil && r.config.Credentials.Google.HasClient() {
		auth, err := services.NewGoogleAuth(r.config.Credentials.Google.Map())
		if err != nil {
			r.logger.Warn("OAuth client unavailable", "error", err)
		} else {
			r.auth = auth
		}
	}
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// store returns a remote store authenticated with the saved token.
func (r *Runner) store(ctx context.Context) (services.RemoteStore, error) {
	token := r.config.Credentials.Google.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run 'dclone auth login' first", shared.ErrNotAuthenticated)
	}

	if r.stores != nil {
		return r.stores(ctx, token)
	}
	if r.auth == nil {
		return nil, fmt.Errorf("%w: client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	opts := services.DriveOptsFromConfig(r.config.Drive)
	opts.Logger = r.logger
	return r.auth.NewDriveService(ctx, token, opts)
}

// saveTokens stores token in the config and writes it to configPath when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Google.Update(token); err != nil {
		return fmt.Errorf("failed to update google configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
