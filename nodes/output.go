package nodes

import (
	"context"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// OutputNode is the terminal projection of a workflow. output_schema
// declares the record the workflow exposes; output_map optionally
// renames, mapping each output field to the upstream field it is read
// from. Without a map, fields are taken from the input by name.
type OutputNode struct {
	fields    []string
	outputMap map[string]string
}

func (n *OutputNode) Name() string { return domain.NodeTypeOutput }

func (n *OutputNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	fields, err := specMap(config, "output_schema")
	if err != nil {
		return ports.Schemas{}, err
	}

	outputSchema, err := schema.FromSpecMap(fields, "OutputNodeRecord")
	if err != nil {
		return ports.Schemas{}, err
	}
	n.fields = outputSchema.FieldNames()

	configFields := []schema.FieldSpec{{Name: "output_schema", Spec: "dict[str, str]"}}

	n.outputMap = nil
	if _, hasMap := config["output_map"]; hasMap {
		n.outputMap, err = specMap(config, "output_map")
		if err != nil {
			return ports.Schemas{}, err
		}
		configFields = append(configFields, schema.FieldSpec{Name: "output_map", Spec: "dict[str, str]"})
	}

	configSchema, err := schema.FromFieldSpecs(configFields, "OutputNodeConfig")
	if err != nil {
		return ports.Schemas{}, err
	}

	return ports.Schemas{
		Config: configSchema,
		Input:  n.inputSchema(outputSchema),
		Output: outputSchema,
	}, nil
}

// inputSchema derives the record the node expects upstream. With an
// output_map the source fields are only known by name, so they are
// unconstrained; without one the input must already look like the
// declared output.
func (n *OutputNode) inputSchema(outputSchema schema.RecordSchema) schema.RecordSchema {
	if len(n.outputMap) == 0 {
		return schema.RecordSchema{Name: "OutputNodeInput", Fields: outputSchema.Fields}
	}

	seen := make(map[string]bool)
	in := schema.RecordSchema{Name: "OutputNodeInput"}
	for _, f := range outputSchema.Fields {
		source, mapped := n.outputMap[f.Name]
		if !mapped {
			source = f.Name
		}
		if !seen[source] {
			seen[source] = true
			in.Fields = append(in.Fields, anyField(source))
		}
	}
	return in
}

func (n *OutputNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(n.fields))
	for _, field := range n.fields {
		source := field
		if mapped, ok := n.outputMap[field]; ok {
			source = mapped
		}
		out[field] = input[source]
	}
	return out, nil
}
