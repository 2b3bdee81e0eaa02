package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ridex/internal/controller"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/view"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	backend    services.Fetcher
	httpClient *http.Client
	recorder   controller.Recorder
	messages   *shared.Messages
	clock      view.Clock
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Backend    services.Fetcher
	HTTPClient *http.Client
	// Recorder receives the history of every request. When nil, commands
	// open the configured database.
	Recorder controller.Recorder
	Clock    view.Clock
	Logger   *log.Logger
	Output   io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = view.SystemClock
	}
	if opts.Backend == nil {
		opts.Backend = services.NewBackendFromConfig(opts.Config.Backend, opts.HTTPClient)
	}

	messages, err := shared.LoadMessages(opts.Config.UI.Locale)
	if err != nil {
		opts.Logger.Warn("unknown locale, using default", "locale", opts.Config.UI.Locale, "error", err)
		messages = shared.MustLoadMessages(shared.DefaultLocale)
	}

	return &Runner{
		config:     opts.Config,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		recorder:   opts.Recorder,
		messages:   messages,
		clock:      opts.Clock,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by every command.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, activitiesCommand, routesCommand, modelsCommand, predictCommand,
		mapCommand, segmentationCommand, probeCommand, historyCommand, apiCommand,
		serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
