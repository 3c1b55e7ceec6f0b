package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
)

// Runner executes a validated workflow definition in-process. Nodes run
// as soon as every predecessor (per the links) has completed, with
// independent nodes running concurrently up to the configured bound.
// Scheduling across workers, retries and backoff live above this layer.
type Runner struct {
	registry      ports.NodeRegistryPort
	logger        *ports.StructuredLogger
	maxConcurrent int
}

func NewRunner(registry ports.NodeRegistryPort, logger *slog.Logger, cfg domain.RunnerConfig) *Runner {
	return &Runner{
		registry:      registry,
		logger:        ports.NewStructuredLogger(logger, "runner"),
		maxConcurrent: cfg.MaxConcurrent,
	}
}

type nodeOutcome struct {
	id     string
	output map[string]interface{}
	err    error
}

// Run validates and normalizes the definition, instantiates every
// top-level node through the registry, then drives the DAG: the input
// node receives the initial record, every other node receives the
// combination of its predecessors' outputs. The returned WorkflowRun
// holds a per-node outcome: a validated output record, an error, or
// skipped for nodes behind untaken router branches.
func (r *Runner) Run(ctx context.Context, def *domain.WorkflowDefinition, initialInput map[string]interface{}) (*domain.WorkflowRun, error) {
	if err := domain.ValidateDefinition(def); err != nil {
		return nil, err
	}

	run := &domain.WorkflowRun{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusRunning,
		NodeRuns:  make(map[string]domain.NodeRun),
		StartedAt: time.Now(),
	}
	log := r.logger.WithRun(run.ID, "")

	exec, err := r.newExecution(def, initialInput, run, log)
	if err != nil {
		return nil, err
	}

	exec.drive(ctx)

	if exec.failure == nil && ctx.Err() == nil && len(run.NodeRuns) < len(exec.harnesses) {
		// every node should have an outcome by now; leftovers mean the
		// links form a cycle and those nodes can never become ready
		exec.failure = domain.NewGraphStructureError(
			"workflow contains nodes that can never run (link cycle)")
	}

	now := time.Now()
	run.CompletedAt = &now
	switch {
	case exec.failure != nil:
		run.Status = domain.RunStatusFailed
		run.Error = exec.failure.Error()
		if ctx.Err() != nil {
			run.Status = domain.RunStatusCancelled
		}
		log.Error("workflow run finished with error", domain.ErrorLogAttrs(exec.failure)...)
		return run, exec.failure
	case ctx.Err() != nil:
		run.Status = domain.RunStatusCancelled
		run.Error = ctx.Err().Error()
		return run, ctx.Err()
	default:
		run.Status = domain.RunStatusCompleted
		log.Info("workflow run completed", "nodes", len(run.NodeRuns))
		return run, nil
	}
}

// execution is the per-run scheduling state.
type execution struct {
	def          *domain.WorkflowDefinition
	run          *domain.WorkflowRun
	log          *ports.RunLogger
	harnesses    map[string]*NodeHarness
	inbound      map[string][]domain.Link
	outbound     map[string][]string
	indegree     map[string]int
	outputs      map[string]map[string]interface{}
	skipped      map[string]bool
	initialInput map[string]interface{}
	inputNodeID  string
	failure      error
	sem          chan struct{}
	results      chan nodeOutcome
}

func (r *Runner) newExecution(def *domain.WorkflowDefinition, initialInput map[string]interface{}, run *domain.WorkflowRun, log *ports.RunLogger) (*execution, error) {
	exec := &execution{
		def:          def,
		run:          run,
		log:          log,
		harnesses:    make(map[string]*NodeHarness),
		inbound:      make(map[string][]domain.Link),
		outbound:     make(map[string][]string),
		indegree:     make(map[string]int),
		outputs:      make(map[string]map[string]interface{}),
		skipped:      make(map[string]bool),
		initialInput: initialInput,
		results:      make(chan nodeOutcome),
	}
	if r.maxConcurrent > 0 {
		exec.sem = make(chan struct{}, r.maxConcurrent)
	}

	topLevel := make(map[string]bool)
	for _, n := range def.Nodes {
		if !n.TopLevel() {
			continue
		}
		topLevel[n.ID] = true

		factory, err := r.registry.Lookup(n.NodeType)
		if err != nil {
			return nil, err
		}
		harness, err := NewNodeHarness(n, factory)
		if err != nil {
			return nil, err
		}
		exec.harnesses[n.ID] = harness
		exec.indegree[n.ID] = 0

		if n.NodeType == domain.NodeTypeInput {
			exec.inputNodeID = n.ID
		}
	}

	for _, l := range def.Links {
		if !topLevel[l.SourceID] || !topLevel[l.TargetID] {
			continue
		}
		exec.inbound[l.TargetID] = append(exec.inbound[l.TargetID], l)
		exec.outbound[l.SourceID] = append(exec.outbound[l.SourceID], l.TargetID)
		exec.indegree[l.TargetID]++
	}

	return exec, nil
}

// drive runs the ready-set loop until every node has an outcome or a
// failure stops the run. In-flight nodes are always drained before
// returning; cancellation reaches them through ctx.
func (e *execution) drive(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready []string
	for _, n := range e.def.Nodes {
		if _, ok := e.harnesses[n.ID]; ok && e.indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	inFlight := 0
	for {
		if e.failure == nil {
			for _, id := range ready {
				inFlight += e.launch(runCtx, id)
			}
		}
		ready = ready[:0]

		if inFlight == 0 {
			return
		}

		outcome := <-e.results
		inFlight--
		ready = append(ready, e.settle(runCtx, outcome, cancel)...)
	}
}

// launch starts one node and returns how many goroutines it put in
// flight. Nodes whose every inbound link is inactive (upstream skipped,
// or an untaken router branch) are settled as skipped synchronously and
// never execute; skipping cascades to newly ready descendants in-line.
func (e *execution) launch(ctx context.Context, id string) int {
	input, active, err := e.assembleInput(id)
	if err != nil {
		// an input that cannot be assembled is the node's failure, never
		// silently dropped; route it through settle like any other outcome
		if domainErr, ok := domain.AsDomainError(err); ok {
			domainErr.WithNodeID(id).WithNodeType(e.harnesses[id].NodeType())
		}
		e.run.NodeRuns[id] = domain.NodeRun{
			NodeID:    id,
			NodeType:  e.harnesses[id].NodeType(),
			Status:    domain.NodeRunRunning,
			StartedAt: time.Now(),
		}
		go func() { e.results <- nodeOutcome{id: id, err: err} }()
		return 1
	}
	if !active {
		e.markSkipped(id)
		started := 0
		for _, target := range e.outbound[id] {
			e.indegree[target]--
			if e.indegree[target] == 0 {
				started += e.launch(ctx, target)
			}
		}
		return started
	}

	harness := e.harnesses[id]
	nodeLog := e.log.WithNode(id, harness.NodeType())
	nodeLog.Debug("node started")

	started := time.Now()
	e.run.NodeRuns[id] = domain.NodeRun{
		NodeID:    id,
		NodeType:  harness.NodeType(),
		Status:    domain.NodeRunRunning,
		StartedAt: started,
	}

	go func() {
		if e.sem != nil {
			e.sem <- struct{}{}
			defer func() { <-e.sem }()
		}
		output, err := harness.Execute(ctx, input)
		e.results <- nodeOutcome{id: id, output: output, err: err}
	}()
	return 1
}

// settle records one finished node and returns the newly ready nodes.
func (e *execution) settle(ctx context.Context, outcome nodeOutcome, cancel context.CancelFunc) []string {
	nodeRun := e.run.NodeRuns[outcome.id]
	now := time.Now()
	nodeRun.CompletedAt = &now

	if outcome.err != nil {
		nodeRun.Status = domain.NodeRunFailed
		nodeRun.Error = outcome.err.Error()
		e.run.NodeRuns[outcome.id] = nodeRun
		if e.failure == nil {
			e.failure = outcome.err
		}
		cancel()
		return nil
	}

	nodeRun.Status = domain.NodeRunCompleted
	nodeRun.Output = outcome.output
	e.run.NodeRuns[outcome.id] = nodeRun
	e.outputs[outcome.id] = outcome.output

	var ready []string
	for _, target := range e.outbound[outcome.id] {
		e.indegree[target]--
		if e.indegree[target] == 0 {
			ready = append(ready, target)
		}
	}
	return ready
}

func (e *execution) markSkipped(id string) {
	e.skipped[id] = true
	e.run.NodeRuns[id] = domain.NodeRun{
		NodeID:    id,
		NodeType:  e.harnesses[id].NodeType(),
		Status:    domain.NodeRunSkipped,
		StartedAt: time.Now(),
	}
	e.log.Debug("node skipped", "node_id", id)
}

// assembleInput builds the input record for a node from its inbound
// links. A link is inactive when its source was skipped or when it
// hangs off a router branch the router did not select. The second
// return value is false when the node has inbound links and none of
// them is active. A merge failure across predecessor outputs is
// returned as an error and becomes the node's failure.
func (e *execution) assembleInput(id string) (map[string]interface{}, bool, error) {
	if id == e.inputNodeID {
		return e.initialInput, true, nil
	}

	links := e.inbound[id]
	if len(links) == 0 {
		return map[string]interface{}{}, true, nil
	}

	input := map[string]interface{}{}
	activeLinks := 0
	for _, l := range links {
		if e.skipped[l.SourceID] {
			continue
		}
		source, _ := e.def.Node(l.SourceID)
		payload := e.outputs[l.SourceID]

		if source != nil && source.NodeType == domain.NodeTypeRouter {
			selected, _ := payload[domain.RouterSelectedField].(string)
			if selected == "" || domain.RouterBranch(l.TargetHandle) != selected {
				continue
			}
			payload = domain.CloneRecord(payload)
			delete(payload, domain.RouterSelectedField)
			merged, err := domain.MergeRecords(input, payload)
			if err != nil {
				return nil, false, err
			}
			input = merged
			activeLinks++
			continue
		}

		switch {
		case l.SourceHandle != "" && l.TargetHandle != "":
			input[l.TargetHandle] = payload[l.SourceHandle]
		case l.SourceHandle != "":
			input[l.SourceHandle] = payload[l.SourceHandle]
		case l.TargetHandle != "":
			input[l.TargetHandle] = payload
		default:
			merged, err := domain.MergeRecords(input, payload)
			if err != nil {
				return nil, false, err
			}
			input = merged
		}
		activeLinks++
	}

	if activeLinks == 0 {
		return nil, false, nil
	}
	return input, true, nil
}
