package nodes

import (
	"context"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// ConstantNode emits a fixed record declared entirely in its config:
// output_schema gives the shape, values the content. It consumes
// nothing, so it runs as soon as the workflow starts.
type ConstantNode struct {
	values map[string]interface{}
}

func (n *ConstantNode) Name() string { return "ConstantNode" }

func (n *ConstantNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	fields, err := specMap(config, "output_schema")
	if err != nil {
		return ports.Schemas{}, err
	}

	outputSchema, err := schema.FromSpecMap(fields, "ConstantNodeOutput")
	if err != nil {
		return ports.Schemas{}, err
	}

	values, ok := config["values"].(map[string]interface{})
	if !ok {
		return ports.Schemas{}, domain.NewConfigurationError(
			"missing required config field \"values\"", nil)
	}
	n.values = values

	configSchema, err := schema.FromFieldSpecs([]schema.FieldSpec{
		{Name: "output_schema", Spec: "dict[str, str]"},
		{Name: "values", Spec: "dict"},
	}, "ConstantNodeConfig")
	if err != nil {
		return ports.Schemas{}, err
	}

	return ports.Schemas{
		Config: configSchema,
		Input:  schema.RecordSchema{Name: "ConstantNodeInput"},
		Output: outputSchema,
	}, nil
}

func (n *ConstantNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return domain.CloneRecord(n.values), nil
}
