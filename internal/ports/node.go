package ports

import (
	"context"

	"github.com/tiomfree/pyspur/internal/schema"
)

// Schemas holds the three record schemas every node type exposes: one
// for its configuration, one for the record it consumes, one for the
// record it produces.
type Schemas struct {
	Config schema.RecordSchema
	Input  schema.RecordSchema
	Output schema.RecordSchema
}

// NodeContract is the shape every node type satisfies. Setup is a pure,
// deterministic derivation of the node's schemas from its raw
// configuration: static node types return fixed schemas, dynamic node
// types synthesize input/output schemas from type-spec mappings
// embedded in the config. Run is the node's own logic; it receives a
// record already validated against the input schema and its return
// value is validated against the output schema by the harness, never by
// the node itself.
type NodeContract interface {
	Name() string
	Setup(config map[string]interface{}) (Schemas, error)
	Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// NodeFactory builds a fresh contract instance for one node of a
// workflow. Factories must be safe for concurrent use; the registry is
// read-only after startup and shared across validations and runs.
type NodeFactory func() NodeContract

// NodeRegistryPort maps node type names to factories.
type NodeRegistryPort interface {
	Register(nodeType string, factory NodeFactory) error
	Lookup(nodeType string) (NodeFactory, error)
	Has(nodeType string) bool
	List() []string
	Count() int
}

type NodeRegistrationError struct {
	NodeType string
	Reason   string
}

func (e NodeRegistrationError) Error() string {
	return "node registration failed for '" + e.NodeType + "': " + e.Reason
}
