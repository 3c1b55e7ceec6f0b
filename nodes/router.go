package nodes

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// RouterNode evaluates an ordered list of routing rules against its
// input record and announces the first matching rule's name as the
// selected branch. Downstream links carry target handles qualified as
// "<router_id>.<branch>"; the runner forwards the record only along the
// selected branch. No match selects nothing and every branch is
// skipped.
//
// Config:
//
//	input_schema: {field: type spec}
//	routes: [{name, field, operator, value}]
//
// Operators: equals, not_equals, contains, greater_than, less_than,
// is_not_empty.
type RouterNode struct {
	routes []route
}

type route struct {
	Name     string
	Field    string
	Operator string
	Value    interface{}
}

func (n *RouterNode) Name() string { return domain.NodeTypeRouter }

func (n *RouterNode) Setup(config map[string]interface{}) (ports.Schemas, error) {
	fields, err := specMap(config, "input_schema")
	if err != nil {
		return ports.Schemas{}, err
	}

	inputSchema, err := schema.FromSpecMap(fields, "RouterNodeInput")
	if err != nil {
		return ports.Schemas{}, err
	}

	n.routes, err = parseRoutes(config)
	if err != nil {
		return ports.Schemas{}, err
	}

	configSchema, err := schema.FromFieldSpecs([]schema.FieldSpec{
		{Name: "input_schema", Spec: "dict[str, str]"},
		{Name: "routes", Spec: "list[dict]"},
	}, "RouterNodeConfig")
	if err != nil {
		return ports.Schemas{}, err
	}

	outputSchema := schema.RecordSchema{Name: "RouterNodeOutput"}
	outputSchema.Fields = append(outputSchema.Fields, inputSchema.Fields...)
	outputSchema.Fields = append(outputSchema.Fields, schema.Field{
		Name: domain.RouterSelectedField,
		Type: schema.TypeSpec{Kind: schema.KindStr},
	})

	return ports.Schemas{
		Config: configSchema,
		Input:  inputSchema,
		Output: outputSchema,
	}, nil
}

func parseRoutes(config map[string]interface{}) ([]route, error) {
	raw, ok := config["routes"].([]interface{})
	if !ok {
		return nil, domain.NewConfigurationError("missing required config field \"routes\"", nil)
	}

	routes := make([]route, 0, len(raw))
	for i, entry := range raw {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("route %d must be a mapping", i), nil)
		}

		r := route{
			Name:     stringOr(fields, "name", ""),
			Field:    stringOr(fields, "field", ""),
			Operator: stringOr(fields, "operator", "equals"),
			Value:    fields["value"],
		}
		if r.Name == "" {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("route %d is missing a name", i), nil)
		}
		if r.Field == "" {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("route %q is missing a field", r.Name), nil)
		}
		if !knownOperators[r.Operator] {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("route %q has unknown operator %q", r.Name, r.Operator), nil)
		}
		routes = append(routes, r)
	}
	return routes, nil
}

var knownOperators = map[string]bool{
	"equals":       true,
	"not_equals":   true,
	"contains":     true,
	"greater_than": true,
	"less_than":    true,
	"is_not_empty": true,
}

func stringOr(fields map[string]interface{}, key, fallback string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return fallback
}

func (n *RouterNode) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	selected := ""
	for _, r := range n.routes {
		matched, err := r.matches(input[r.Field])
		if err != nil {
			return nil, err
		}
		if matched {
			selected = r.Name
			break
		}
	}

	out := domain.CloneRecord(input)
	out[domain.RouterSelectedField] = selected
	return out, nil
}

func (r route) matches(value interface{}) (bool, error) {
	switch r.Operator {
	case "equals":
		return looseEqual(value, r.Value), nil
	case "not_equals":
		return !looseEqual(value, r.Value), nil
	case "contains":
		s, ok := value.(string)
		sub, okSub := r.Value.(string)
		return ok && okSub && strings.Contains(s, sub), nil
	case "greater_than":
		a, okA := asFloat(value)
		b, okB := asFloat(r.Value)
		return okA && okB && a > b, nil
	case "less_than":
		a, okA := asFloat(value)
		b, okB := asFloat(r.Value)
		return okA && okB && a < b, nil
	case "is_not_empty":
		return !isEmpty(value), nil
	default:
		return false, domain.NewConfigurationError(
			fmt.Sprintf("unknown route operator %q", r.Operator), nil)
	}
}

// looseEqual compares with numeric coercion so an int config value
// matches a float input. Non-numeric values compare structurally;
// maps and slices are legal on both sides and must never panic the
// way interface equality does on uncomparable types.
func looseEqual(a, b interface{}) bool {
	if fa, ok := asFloat(a); ok {
		if fb, okB := asFloat(b); okB {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}
