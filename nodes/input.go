package nodes

import (
	"context"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// InputNode is the designated entry point of a workflow. Its record
// shape is declared in the config as an output_schema mapping and
// applies to both sides: the initial record handed to the run must
// match it, and passes through unchanged.
type InputNode struct {
	shape schema.RecordSchema
}

func (n *InputNode) Name() string { return domain.NodeTypeInput }

func (n *InputNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	fields, err := specMap(config, "output_schema")
	if err != nil {
		return ports.Schemas{}, err
	}

	shape, err := schema.FromSpecMap(fields, "InputNodeRecord")
	if err != nil {
		return ports.Schemas{}, err
	}
	n.shape = shape

	configSchema, err := schema.FromSpecMap(map[string]string{
		"output_schema": "dict[str, str]",
	}, "InputNodeConfig")
	if err != nil {
		return ports.Schemas{}, err
	}

	return ports.Schemas{
		Config: configSchema,
		Input:  shape,
		Output: shape,
	}, nil
}

func (n *InputNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return input, nil
}
