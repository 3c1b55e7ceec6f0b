// Package nodes provides the built-in node types: workflow entry and
// exit points, conditional routing, constants and fan-in coalescing.
// Concrete integrations (LLM calls, HTTP, and the like) implement the
// same contract and register alongside these.
package nodes

import (
	"fmt"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// RegisterBuiltins registers every built-in node type on the registry.
func RegisterBuiltins(r ports.NodeRegistryPort) error {
	builtins := map[string]ports.NodeFactory{
		domain.NodeTypeInput:  func() ports.NodeContract { return &InputNode{} },
		domain.NodeTypeOutput: func() ports.NodeContract { return &OutputNode{} },
		domain.NodeTypeRouter: func() ports.NodeContract { return &RouterNode{} },
		"ConstantNode":        func() ports.NodeContract { return &ConstantNode{} },
		"CoalesceNode":        func() ports.NodeContract { return &CoalesceNode{} },
	}

	for nodeType, factory := range builtins {
		if err := r.Register(nodeType, factory); err != nil {
			return err
		}
	}
	return nil
}

// specMap extracts a {field name -> type spec string} mapping from a
// config entry, as embedded by dynamic-schema node types.
func specMap(config map[string]interface{}, key string) (map[string]string, error) {
	raw, ok := config[key]
	if !ok {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("missing required config field %q", key), nil)
	}

	entries, ok := raw.(map[string]interface{})
	if !ok {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("config field %q must be a mapping of field names to type specs", key), nil)
	}

	out := make(map[string]string, len(entries))
	for name, value := range entries {
		spec, ok := value.(string)
		if !ok {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("config field %q: type spec for %q must be a string", key, name), nil)
		}
		out[name] = spec
	}
	return out, nil
}

// anyField builds a schema field with an unconstrained type.
func anyField(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeSpec{Kind: schema.KindAny}}
}
