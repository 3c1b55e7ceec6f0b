package pyspur

import (
	"context"
	"log/slog"

	"github.com/tiomfree/pyspur/internal/adapters/registry"
	"github.com/tiomfree/pyspur/internal/adapters/store"
	"github.com/tiomfree/pyspur/internal/core"
	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/nodes"
)

// Config carries the engine's process-level settings.
type Config struct {
	// DataDir is where the workflow store keeps its data. Empty means
	// in-memory, useful for tests.
	DataDir string

	// Logger receives structured logs from every component. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// MaxConcurrentNodes bounds how many independent nodes of one run
	// may execute at once. Zero means unbounded.
	MaxConcurrentNodes int
}

// Engine ties the core together: the node type registry, the versioned
// workflow store and the DAG runner. The registry is read-only after
// startup; an Engine is safe for concurrent use.
type Engine struct {
	config   domain.Config
	registry *registry.Adapter
	store    *store.Adapter
	runner   *core.Runner
	logger   *slog.Logger
}

// New builds an engine with the built-in node types registered.
func New(config Config) (*Engine, error) {
	cfg := domain.Config{
		DataDir: config.DataDir,
		Logger:  config.Logger,
		Runner: domain.RunnerConfig{
			MaxConcurrent: config.MaxConcurrentNodes,
		},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := registry.NewAdapter(cfg.Logger)
	if err := nodes.RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DataDir, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg,
		registry: reg,
		store:    st,
		runner:   core.NewRunner(reg, cfg.Logger, cfg.Runner),
		logger:   cfg.Logger.With("component", "engine"),
	}, nil
}

// RegisterNode adds a node type to the registry. Registration happens
// at startup, before any workflow references the type.
func (e *Engine) RegisterNode(nodeType string, factory NodeFactory) error {
	return e.registry.Register(nodeType, factory)
}

// NodeTypes lists every registered node type name.
func (e *Engine) NodeTypes() []string {
	return e.registry.List()
}

// CreateWorkflow validates the definition and persists it as version 1.
func (e *Engine) CreateWorkflow(ctx context.Context, name, description string, def *Definition) (*WorkflowRecord, error) {
	return e.store.Create(ctx, name, description, def)
}

// GetWorkflow returns the head revision of a stored workflow.
func (e *Engine) GetWorkflow(ctx context.Context, id string) (*WorkflowRecord, error) {
	return e.store.Get(ctx, id)
}

// GetWorkflowVersion returns one immutable version snapshot.
func (e *Engine) GetWorkflowVersion(ctx context.Context, id string, version int64) (*WorkflowRecord, error) {
	return e.store.GetVersion(ctx, id, version)
}

// UpdateWorkflow validates and persists a new version of a stored
// workflow.
func (e *Engine) UpdateWorkflow(ctx context.Context, id string, def *Definition) (*WorkflowRecord, error) {
	return e.store.Update(ctx, id, def)
}

// DeleteWorkflow removes a workflow and all its version snapshots.
func (e *Engine) DeleteWorkflow(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// ListWorkflows returns the head revision of every stored workflow.
func (e *Engine) ListWorkflows(ctx context.Context) ([]*WorkflowRecord, error) {
	return e.store.List(ctx)
}

// RunWorkflow validates the definition and executes it against one
// initial input record for the designated input node.
func (e *Engine) RunWorkflow(ctx context.Context, def *Definition, input map[string]interface{}) (*WorkflowRun, error) {
	return e.runner.Run(ctx, def, input)
}

// RunStored loads a workflow by id, executes its head revision and
// persists the finished run, whatever its outcome. A failure to persist
// is logged but never masks the run's own result.
func (e *Engine) RunStored(ctx context.Context, id string, input map[string]interface{}) (*WorkflowRun, error) {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	run, runErr := e.runner.Run(ctx, record.Definition, input)
	if run != nil {
		run.WorkflowID = record.ID
		if saveErr := e.store.SaveRun(ctx, run); saveErr != nil {
			e.logger.Warn("failed to persist workflow run",
				"run_id", run.ID, "workflow_id", record.ID, "error", saveErr)
		}
	}
	return run, runErr
}

// GetRun returns a persisted run by its id.
func (e *Engine) GetRun(ctx context.Context, id string) (*WorkflowRun, error) {
	return e.store.GetRun(ctx, id)
}

// RunTestInputs executes the definition once per declared test input
// and returns the runs in order. Execution stops at the first run that
// fails to start; individual node failures are reported inside each
// run.
func (e *Engine) RunTestInputs(ctx context.Context, def *Definition) ([]*WorkflowRun, error) {
	runs := make([]*WorkflowRun, 0, len(def.TestInputs))
	for _, input := range def.TestInputs {
		run, err := e.runner.Run(ctx, def, input)
		if run == nil {
			return runs, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close releases the engine's storage resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
