package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiomfree/pyspur/internal/adapters/registry"
	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
	"github.com/tiomfree/pyspur/nodes"
)

func testRunner(t *testing.T, extra map[string]ports.NodeFactory) *Runner {
	t.Helper()
	reg := registry.NewAdapter(slog.Default())
	require.NoError(t, nodes.RegisterBuiltins(reg))
	for nodeType, factory := range extra {
		require.NoError(t, reg.Register(nodeType, factory))
	}
	return NewRunner(reg, slog.Default(), domain.RunnerConfig{MaxConcurrent: 4})
}

// staticNode is a registrable test node with fixed schemas.
type staticNode struct {
	input   map[string]string
	output  map[string]string
	runFunc func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

func (s *staticNode) Name() string { return "StaticTestNode" }

func (s *staticNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	var schemas ports.Schemas
	var err error
	if schemas.Input, err = schema.FromSpecMap(s.input, "In"); err != nil {
		return schemas, err
	}
	if schemas.Output, err = schema.FromSpecMap(s.output, "Out"); err != nil {
		return schemas, err
	}
	return schemas, nil
}

func (s *staticNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return s.runFunc(ctx, input)
}

func inputDef(id string, fields map[string]interface{}) domain.NodeInstance {
	return domain.NodeInstance{
		ID:       id,
		NodeType: domain.NodeTypeInput,
		Config:   map[string]interface{}{"output_schema": fields},
	}
}

func TestRunnerLinearFlow(t *testing.T) {
	double := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"n": "int"},
			output: map[string]string{"n": "int"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				return map[string]interface{}{"n": toInt(input["n"]) * 2}, nil
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{"DoubleNode": double})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"n": "int"}),
			{ID: "doubler", NodeType: "DoubleNode"},
			{ID: "out", NodeType: domain.NodeTypeOutput,
				Config: map[string]interface{}{"output_schema": map[string]interface{}{"n": "int"}}},
		},
		Links: []domain.Link{
			{SourceID: "in", TargetID: "doubler"},
			{SourceID: "doubler", TargetID: "out"},
		},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"n": 21})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)

	output, ok := run.Output("out")
	require.True(t, ok)
	assert.Equal(t, 42, toInt(output["n"]))
}

func TestRunnerDiamondFanIn(t *testing.T) {
	producer := func(field string) ports.NodeFactory {
		return func() ports.NodeContract {
			return &staticNode{
				input:  map[string]string{"seed": "int"},
				output: map[string]string{field: "int"},
				runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
					return map[string]interface{}{field: toInt(input["seed"]) + 1}, nil
				},
			}
		}
	}
	sum := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"a": "int", "b": "int"},
			output: map[string]string{"sum": "int"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				return map[string]interface{}{"sum": toInt(input["a"]) + toInt(input["b"])}, nil
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{
		"ProduceA": producer("a"),
		"ProduceB": producer("b"),
		"SumNode":  sum,
	})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"seed": "int"}),
			{ID: "a", NodeType: "ProduceA"},
			{ID: "b", NodeType: "ProduceB"},
			{ID: "c", NodeType: "SumNode"},
		},
		Links: []domain.Link{
			{SourceID: "in", TargetID: "a"},
			{SourceID: "in", TargetID: "b"},
			{SourceID: "a", TargetID: "c"},
			{SourceID: "b", TargetID: "c"},
		},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"seed": 10})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)

	output, ok := run.Output("c")
	require.True(t, ok)
	assert.Equal(t, 22, toInt(output["sum"]))
}

func TestRunnerRouterSkipsUntakenBranches(t *testing.T) {
	echo := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"kind": "str"},
			output: map[string]string{"kind": "str"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				return input, nil
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{"EchoNode": echo})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"kind": "str"}),
			{ID: "r1", NodeType: domain.NodeTypeRouter, Config: map[string]interface{}{
				"input_schema": map[string]interface{}{"kind": "str"},
				"routes": []interface{}{
					map[string]interface{}{"name": "alpha", "field": "kind", "operator": "equals", "value": "a"},
					map[string]interface{}{"name": "beta", "field": "kind", "operator": "equals", "value": "b"},
				},
			}},
			{ID: "takeAlpha", NodeType: "EchoNode"},
			{ID: "takeBeta", NodeType: "EchoNode"},
		},
		Links: []domain.Link{
			{SourceID: "in", TargetID: "r1"},
			{SourceID: "r1", TargetID: "takeAlpha", TargetHandle: "alpha"},
			{SourceID: "r1", TargetID: "takeBeta", TargetHandle: "r1.beta"},
		},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"kind": "a"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)

	assert.Equal(t, domain.NodeRunCompleted, run.NodeRuns["takeAlpha"].Status)
	assert.Equal(t, domain.NodeRunSkipped, run.NodeRuns["takeBeta"].Status)

	output, ok := run.Output("takeAlpha")
	require.True(t, ok)
	assert.Equal(t, "a", output["kind"], "the route announcement must be stripped before forwarding")
}

func TestRunnerRouterNoMatchSkipsAllBranches(t *testing.T) {
	echo := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"kind": "str"},
			output: map[string]string{"kind": "str"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				return input, nil
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{"EchoNode": echo})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"kind": "str"}),
			{ID: "r1", NodeType: domain.NodeTypeRouter, Config: map[string]interface{}{
				"input_schema": map[string]interface{}{"kind": "str"},
				"routes": []interface{}{
					map[string]interface{}{"name": "alpha", "field": "kind", "operator": "equals", "value": "a"},
				},
			}},
			{ID: "target", NodeType: "EchoNode"},
		},
		Links: []domain.Link{
			{SourceID: "in", TargetID: "r1"},
			{SourceID: "r1", TargetID: "target", TargetHandle: "alpha"},
		},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"kind": "zzz"})
	require.NoError(t, err)
	assert.Equal(t, domain.NodeRunSkipped, run.NodeRuns["target"].Status)
}

// looseNode declares unconstrained field types so a test can emit
// values the type grammar cannot describe.
type looseNode struct {
	in       []string
	outField string
	value    interface{}
}

func (l *looseNode) Name() string { return "LooseTestNode" }

func (l *looseNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	var s ports.Schemas
	for _, f := range l.in {
		s.Input.Fields = append(s.Input.Fields, schema.Field{Name: f, Type: schema.TypeSpec{Kind: schema.KindAny}})
	}
	s.Output.Fields = []schema.Field{{Name: l.outField, Type: schema.TypeSpec{Kind: schema.KindAny}}}
	return s, nil
}

func (l *looseNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{l.outField: l.value}, nil
}

func TestRunnerFanInMergeFailureFailsNode(t *testing.T) {
	// both producers emit a slice under the same field but with
	// different concrete types, which the append merge cannot combine
	emit := func(value interface{}) ports.NodeFactory {
		return func() ports.NodeContract {
			return &looseNode{in: []string{"seed"}, outField: "items", value: value}
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{
		"EmitA": emit([]interface{}{1}),
		"EmitB": emit([]string{"x"}),
		"Sink":  func() ports.NodeContract { return &looseNode{in: []string{"items"}, outField: "items", value: nil} },
	})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"seed": "int"}),
			{ID: "a", NodeType: "EmitA"},
			{ID: "b", NodeType: "EmitB"},
			{ID: "sink", NodeType: "Sink"},
		},
		Links: []domain.Link{
			{SourceID: "in", TargetID: "a"},
			{SourceID: "in", TargetID: "b"},
			{SourceID: "a", TargetID: "sink"},
			{SourceID: "b", TargetID: "sink"},
		},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"seed": 1})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, domain.NodeRunFailed, run.NodeRuns["sink"].Status)
	assert.NotEmpty(t, run.NodeRuns["sink"].Error)
	assert.Equal(t, "sink", domain.GetErrorContext(err).NodeID)
}

func TestRunnerUnknownNodeType(t *testing.T) {
	runner := testRunner(t, nil)

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"x": "int"}),
			{ID: "mystery", NodeType: "NoSuchNode"},
		},
		Links: []domain.Link{{SourceID: "in", TargetID: "mystery"}},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"x": 1})
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, domain.IsUnknownNodeTypeError(err))
}

func TestRunnerNodeFailureFailsRun(t *testing.T) {
	boom := errors.New("node exploded")
	failing := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"x": "int"},
			output: map[string]string{"x": "int"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				return nil, boom
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{"FailingNode": failing})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"x": "int"}),
			{ID: "bad", NodeType: "FailingNode"},
		},
		Links: []domain.Link{{SourceID: "in", TargetID: "bad"}},
	}

	run, err := runner.Run(context.Background(), def, map[string]interface{}{"x": 1})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.True(t, domain.IsRunError(err))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, domain.NodeRunFailed, run.NodeRuns["bad"].Status)
}

func TestRunnerStructuralValidationBeforeExecution(t *testing.T) {
	runner := testRunner(t, nil)

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			{ID: "only", NodeType: "ConstantNode"},
		},
	}

	run, err := runner.Run(context.Background(), def, nil)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, domain.IsGraphStructureError(err))
}

func TestRunnerCancellation(t *testing.T) {
	blocking := func() ports.NodeContract {
		return &staticNode{
			input:  map[string]string{"x": "int"},
			output: map[string]string{"x": "int"},
			runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
	}
	runner := testRunner(t, map[string]ports.NodeFactory{"BlockingNode": blocking})

	def := &domain.WorkflowDefinition{
		Nodes: []domain.NodeInstance{
			inputDef("in", map[string]interface{}{"x": "int"}),
			{ID: "slow", NodeType: "BlockingNode"},
		},
		Links: []domain.Link{{SourceID: "in", TargetID: "slow"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := runner.Run(ctx, def, map[string]interface{}{"x": 1})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusCancelled, run.Status)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
