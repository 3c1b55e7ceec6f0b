package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tiomfree/pyspur/internal/domain"
)

// Field is one required entry of a record schema.
type Field struct {
	Name string
	Type TypeSpec
}

// RecordSchema is a named, ordered set of required fields used to
// validate a record at a node boundary. Field order is the insertion
// order it was built with; order never affects validation, only display
// and serialization.
type RecordSchema struct {
	Name   string
	Fields []Field
}

// FieldSpec pairs a field name with its unresolved type spec string.
type FieldSpec struct {
	Name string
	Spec string
}

// FromFieldSpecs resolves each field's type spec and produces a named
// schema preserving the given order. Resolution stops at the first
// invalid entry; the error carries the offending field name and the raw
// spec string.
func FromFieldSpecs(fields []FieldSpec, name string) (RecordSchema, error) {
	rs := RecordSchema{Name: name, Fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		spec, err := Resolve(f.Spec)
		if err != nil {
			if domainErr, ok := domain.AsDomainError(err); ok {
				domainErr.WithContext("field", f.Name).WithContext("raw_spec", f.Spec)
			}
			return RecordSchema{}, err
		}
		rs.Fields = append(rs.Fields, Field{Name: f.Name, Type: spec})
	}
	return rs, nil
}

// FromSpecMap builds a schema from an unordered field-name to type-spec
// mapping. Map iteration order is not stable in Go, so fields are
// ordered by name to keep display and serialization deterministic.
func FromSpecMap(fields map[string]string, name string) (RecordSchema, error) {
	names := make([]string, 0, len(fields))
	for fieldName := range fields {
		names = append(names, fieldName)
	}
	sort.Strings(names)

	specs := make([]FieldSpec, 0, len(names))
	for _, fieldName := range names {
		specs = append(specs, FieldSpec{Name: fieldName, Spec: fields[fieldName]})
	}
	return FromFieldSpecs(specs, name)
}

// Empty reports whether the schema declares no fields. An empty schema
// only accepts the empty record.
func (rs RecordSchema) Empty() bool {
	return len(rs.Fields) == 0
}

// Field returns the declared field with the given name.
func (rs RecordSchema) Field(name string) (Field, bool) {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the declared field names in schema order.
func (rs RecordSchema) FieldNames() []string {
	names := make([]string, len(rs.Fields))
	for i, f := range rs.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks a record against the schema. Every declared field is
// required, and undeclared fields are rejected: records are validated
// strictly so a wiring mistake surfaces at the node boundary instead of
// silently dropping data. The returned error lists every violation.
func (rs RecordSchema) Validate(record map[string]interface{}) error {
	var problems []string

	for _, f := range rs.Fields {
		value, ok := record[f.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing required field %q (%s)", f.Name, f.Type))
			continue
		}
		if err := checkValue(f.Type, value); err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", f.Name, err))
		}
	}

	for name := range record {
		if _, ok := rs.Field(name); !ok {
			problems = append(problems, fmt.Sprintf("unexpected field %q", name))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return domain.NewValidationError(
			fmt.Sprintf("record does not match schema %s: %s", rs.Name, strings.Join(problems, "; ")),
			nil,
		).WithContext("schema", rs.Name).WithContext("problems", problems)
	}
	return nil
}

// checkValue validates one value against a type spec. Records travel as
// decoded JSON, so numbers may arrive as float64 regardless of the
// declared kind; an int field accepts any whole-valued number.
func checkValue(spec TypeSpec, value interface{}) error {
	switch spec.Kind {
	case KindAny:
		return nil

	case KindInt:
		switch v := value.(type) {
		case int, int32, int64:
			return nil
		case float64:
			if v == float64(int64(v)) {
				return nil
			}
			return fmt.Errorf("expected int, got non-integral number %v", v)
		case float32:
			if v == float32(int32(v)) {
				return nil
			}
			return fmt.Errorf("expected int, got non-integral number %v", v)
		default:
			return fmt.Errorf("expected int, got %T", value)
		}

	case KindFloat:
		switch value.(type) {
		case float32, float64, int, int32, int64:
			return nil
		default:
			return fmt.Errorf("expected float, got %T", value)
		}

	case KindStr:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected str, got %T", value)
		}
		return nil

	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		return nil

	case KindList:
		items, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("expected list, got %T", value)
		}
		elem := spec.Elem
		if elem == nil || elem.Kind == KindAny {
			return nil
		}
		for i, item := range items {
			if err := checkValue(*elem, item); err != nil {
				return fmt.Errorf("index %d: %v", i, err)
			}
		}
		return nil

	case KindDict:
		entries, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("expected dict, got %T", value)
		}
		key, val := spec.Key, spec.Value
		for k, v := range entries {
			if key != nil && key.Kind != KindAny {
				if err := checkDictKey(*key, k); err != nil {
					return fmt.Errorf("key %q: %v", k, err)
				}
			}
			if val != nil && val.Kind != KindAny {
				if err := checkValue(*val, v); err != nil {
					return fmt.Errorf("key %q: %v", k, err)
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown type kind %v", spec.Kind)
	}
}

// checkDictKey validates a dict key. JSON object keys are always
// strings, so non-string key kinds accept keys whose text parses as the
// declared kind.
func checkDictKey(spec TypeSpec, key string) error {
	switch spec.Kind {
	case KindStr, KindAny:
		return nil
	case KindInt:
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			return fmt.Errorf("expected int key")
		}
		return nil
	case KindFloat:
		if _, err := strconv.ParseFloat(key, 64); err != nil {
			return fmt.Errorf("expected float key")
		}
		return nil
	case KindBool:
		if key != "true" && key != "false" {
			return fmt.Errorf("expected bool key")
		}
		return nil
	default:
		return fmt.Errorf("unsupported key type %s", spec.Kind)
	}
}
