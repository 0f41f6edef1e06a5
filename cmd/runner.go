package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/jordolang/tunedl/internal/engine"
	"github.com/jordolang/tunedl/internal/library"
	"github.com/jordolang/tunedl/internal/queue"
	"github.com/jordolang/tunedl/internal/resolver"
	"github.com/jordolang/tunedl/internal/search"
	"github.com/jordolang/tunedl/internal/services"
	"github.com/jordolang/tunedl/internal/shared"
	"github.com/jordolang/tunedl/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	search       *search.Client
	resolver     *resolver.Resolver
	engine       engine.Engine
	library      *library.Manager
	queue        *queue.Manager
	orchestrator *tasks.Orchestrator
	logger       *log.Logger
	output       io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Search   *search.Client
	Resolver *resolver.Resolver
	// Fallback is the resolver handed to the library manager, possibly
	// wrapped with the resolution cache.
	Fallback library.TrackResolver
	Engine   engine.Engine
	Services []services.StreamingService
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
	if opts.Fallback == nil {
		opts.Fallback = opts.Resolver
	}

	lib := library.NewManager(opts.Fallback, shared.WithLogger(opts.Logger, "component", "library"))
	for _, svc := range opts.Services {
		lib.RegisterService(svc)
	}

	q := queue.NewManager(opts.Engine, queue.Options{
		BaseDir:     opts.Config.General.SaveLocation,
		Quality:     opts.Config.Bitrate(),
		Concurrency: opts.Config.Advanced.ConcurrentDownloads,
		Duplicates:  opts.Config.Duplicates(),
	}, shared.WithLogger(opts.Logger, "component", "queue"))

	return &Runner{
		config:       opts.Config,
		search:       opts.Search,
		resolver:     opts.Resolver,
		engine:       opts.Engine,
		library:      lib,
		queue:        q,
		orchestrator: tasks.NewOrchestrator(lib, q, shared.WithLogger(opts.Logger, "component", "tasks")),
		logger:       opts.Logger,
		output:       opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, configCommand, servicesCommand, syncCommand, resolveCommand, downloadCommand,
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
