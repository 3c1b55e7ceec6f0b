package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
)

type stubNode struct{}

func (stubNode) Name() string { return "StubNode" }

func (stubNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	return ports.Schemas{}, nil
}

func (stubNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return input, nil
}

func stubFactory() ports.NodeContract { return stubNode{} }

func TestRegisterAndLookup(t *testing.T) {
	reg := NewAdapter(nil)

	require.NoError(t, reg.Register("StubNode", stubFactory))
	assert.True(t, reg.Has("StubNode"))
	assert.Equal(t, 1, reg.Count())

	factory, err := reg.Lookup("StubNode")
	require.NoError(t, err)
	require.NotNil(t, factory)
	assert.Equal(t, "StubNode", factory().Name())
}

func TestRegisterRejectsNilFactory(t *testing.T) {
	reg := NewAdapter(nil)

	err := reg.Register("StubNode", nil)
	require.Error(t, err)

	var regErr *ports.NodeRegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "StubNode", regErr.NodeType)
}

func TestRegisterRejectsEmptyNodeType(t *testing.T) {
	reg := NewAdapter(nil)

	err := reg.Register("", stubFactory)
	require.Error(t, err)

	var regErr *ports.NodeRegistrationError
	require.ErrorAs(t, err, &regErr)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	reg := NewAdapter(nil)

	require.NoError(t, reg.Register("StubNode", stubFactory))
	err := reg.Register("StubNode", stubFactory)
	require.Error(t, err)

	var regErr *ports.NodeRegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Reason, "already registered")

	// the original registration survives
	assert.Equal(t, 1, reg.Count())
}

func TestLookupUnknownType(t *testing.T) {
	reg := NewAdapter(nil)

	factory, err := reg.Lookup("NoSuchNode")
	assert.Nil(t, factory)
	require.Error(t, err)
	assert.True(t, domain.IsUnknownNodeTypeError(err))
	assert.Equal(t, domain.CategoryRegistry, domain.GetErrorCategory(err))
}

func TestListIsSorted(t *testing.T) {
	reg := NewAdapter(nil)

	for _, nodeType := range []string{"ZetaNode", "AlphaNode", "MidNode"} {
		require.NoError(t, reg.Register(nodeType, stubFactory))
	}

	assert.Equal(t, []string{"AlphaNode", "MidNode", "ZetaNode"}, reg.List())
}
