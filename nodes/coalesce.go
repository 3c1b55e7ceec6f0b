package nodes

import (
	"context"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// CoalesceNode picks the first non-empty field of its input, in the
// declared field order, and emits it under a single output field.
// Useful after a fan-in where several producers each fill one field and
// the rest arrive empty.
type CoalesceNode struct {
	order       []string
	outputField string
}

func (n *CoalesceNode) Name() string { return "CoalesceNode" }

func (n *CoalesceNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	fields, err := specMap(config, "input_schema")
	if err != nil {
		return ports.Schemas{}, err
	}

	inputSchema, err := schema.FromSpecMap(fields, "CoalesceNodeInput")
	if err != nil {
		return ports.Schemas{}, err
	}
	n.order = inputSchema.FieldNames()

	n.outputField = "value"
	if raw, ok := config["output_field"]; ok {
		field, isString := raw.(string)
		if !isString || field == "" {
			return ports.Schemas{}, domain.NewConfigurationError(
				"config field \"output_field\" must be a non-empty string", nil)
		}
		n.outputField = field
	}

	configFields := []schema.FieldSpec{{Name: "input_schema", Spec: "dict[str, str]"}}
	if _, ok := config["output_field"]; ok {
		configFields = append(configFields, schema.FieldSpec{Name: "output_field", Spec: "str"})
	}
	configSchema, err := schema.FromFieldSpecs(configFields, "CoalesceNodeConfig")
	if err != nil {
		return ports.Schemas{}, err
	}

	return ports.Schemas{
		Config: configSchema,
		Input:  inputSchema,
		Output: schema.RecordSchema{
			Name:   "CoalesceNodeOutput",
			Fields: []schema.Field{anyField(n.outputField)},
		},
	}, nil
}

func (n *CoalesceNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	for _, field := range n.order {
		if value, ok := input[field]; ok && !isEmpty(value) {
			return map[string]interface{}{n.outputField: value}, nil
		}
	}
	return map[string]interface{}{n.outputField: nil}, nil
}
