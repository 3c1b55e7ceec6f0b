package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

type fakeNode struct {
	schemas  ports.Schemas
	setupErr error
	runFunc  func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
	runCalls int
}

func (f *fakeNode) Name() string { return "FakeNode" }

func (f *fakeNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	if f.setupErr != nil {
		return ports.Schemas{}, f.setupErr
	}
	return f.schemas, nil
}

func (f *fakeNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	f.runCalls++
	return f.runFunc(ctx, input)
}

func mustRecordSchema(t *testing.T, fields map[string]string, name string) schema.RecordSchema {
	t.Helper()
	rs, err := schema.FromSpecMap(fields, name)
	require.NoError(t, err)
	return rs
}

func passthroughSchemas(t *testing.T) ports.Schemas {
	return ports.Schemas{
		Config: mustRecordSchema(t, map[string]string{"mode": "str"}, "FakeConfig"),
		Input:  mustRecordSchema(t, map[string]string{"text": "str"}, "FakeInput"),
		Output: mustRecordSchema(t, map[string]string{"text": "str", "length": "int"}, "FakeOutput"),
	}
}

func newFakeHarness(t *testing.T, node *fakeNode) *NodeHarness {
	t.Helper()
	harness, err := NewNodeHarness(domain.NodeInstance{
		ID:       "n1",
		NodeType: "FakeNode",
		Config:   map[string]interface{}{"mode": "test"},
	}, func() ports.NodeContract { return node })
	require.NoError(t, err)
	return harness
}

func TestHarnessExecuteSuccess(t *testing.T) {
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			text := input["text"].(string)
			return map[string]interface{}{"text": text, "length": len(text)}, nil
		},
	}
	harness := newFakeHarness(t, node)

	output, err := harness.Execute(context.Background(), map[string]interface{}{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", output["text"])
	assert.Equal(t, 5, output["length"])
	assert.Equal(t, 1, node.runCalls)
}

func TestHarnessRejectsBadInputWithoutRunning(t *testing.T) {
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, nil
		},
	}
	harness := newFakeHarness(t, node)

	_, err := harness.Execute(context.Background(), map[string]interface{}{"text": 42})
	require.Error(t, err)
	assert.True(t, domain.IsInputValidationError(err))
	assert.Equal(t, 0, node.runCalls, "node logic must not run on invalid input")

	ctx := domain.GetErrorContext(err)
	require.NotNil(t, ctx)
	assert.Equal(t, "n1", ctx.NodeID)
	assert.Equal(t, "FakeNode", ctx.NodeType)
}

func TestHarnessRejectsUndeclaredInputField(t *testing.T) {
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, nil
		},
	}
	harness := newFakeHarness(t, node)

	_, err := harness.Execute(context.Background(), map[string]interface{}{
		"text":  "hello",
		"extra": true,
	})
	require.Error(t, err)
	assert.True(t, domain.IsInputValidationError(err),
		"input records are validated strictly: undeclared fields are rejected")
}

func TestHarnessWrapsRunFailure(t *testing.T) {
	cause := errors.New("upstream service unavailable")
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, cause
		},
	}
	harness := newFakeHarness(t, node)

	_, err := harness.Execute(context.Background(), map[string]interface{}{"text": "x"})
	require.Error(t, err)
	assert.True(t, domain.IsRunError(err))
	assert.True(t, errors.Is(err, cause), "the node's own error must be preserved")
}

func TestHarnessRejectsMalformedOutput(t *testing.T) {
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			// missing the required "length" field
			return map[string]interface{}{"text": "x"}, nil
		},
	}
	harness := newFakeHarness(t, node)

	output, err := harness.Execute(context.Background(), map[string]interface{}{"text": "x"})
	require.Error(t, err)
	assert.Nil(t, output, "malformed results never reach the caller")
	assert.True(t, domain.IsOutputValidationError(err))
	assert.False(t, domain.IsRetryableError(err),
		"a malformed output is a node defect, not a transient failure")
}

func TestHarnessConfigRevalidatesEveryRead(t *testing.T) {
	node := &fakeNode{
		schemas: passthroughSchemas(t),
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return nil, nil
		},
	}
	raw := map[string]interface{}{"mode": "test"}
	harness, err := NewNodeHarness(domain.NodeInstance{
		ID:       "n1",
		NodeType: "FakeNode",
		Config:   raw,
	}, func() ports.NodeContract { return node })
	require.NoError(t, err)

	config, err := harness.Config()
	require.NoError(t, err)
	assert.Equal(t, "test", config["mode"])

	// mutate the backing map behind the harness's back
	raw["mode"] = 42

	_, err = harness.Config()
	require.Error(t, err, "a diverged config must never be observable")
}

func TestHarnessSetupFailureCarriesNodeIdentity(t *testing.T) {
	node := &fakeNode{setupErr: errors.New("bad config")}

	_, err := NewNodeHarness(domain.NodeInstance{
		ID:       "n9",
		NodeType: "FakeNode",
	}, func() ports.NodeContract { return node })
	require.Error(t, err)

	ctx := domain.GetErrorContext(err)
	require.NotNil(t, ctx)
	assert.Equal(t, "n9", ctx.NodeID)
}

func TestHarnessExecuteNilInputMeansEmptyRecord(t *testing.T) {
	node := &fakeNode{
		schemas: ports.Schemas{
			Output: mustRecordSchema(t, map[string]string{"ok": "bool"}, "Out"),
		},
		runFunc: func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"ok": true}, nil
		},
	}
	harness, err := NewNodeHarness(domain.NodeInstance{ID: "n1", NodeType: "FakeNode"},
		func() ports.NodeContract { return node })
	require.NoError(t, err)

	output, err := harness.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, output["ok"])
}
