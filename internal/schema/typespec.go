// Package schema implements the dynamic type system used by node
// configurations: a small textual grammar ("int", "list[str]",
// "dict[str, list[int]]") is resolved into structural type descriptors,
// and named record schemas are synthesized from field-name to type-spec
// mappings at configuration time.
package schema

import (
	"strings"

	"github.com/tiomfree/pyspur/internal/domain"
)

type Kind int

const (
	KindAny Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// TypeSpec is a closed tagged-variant tree describing one value shape.
// Elem is set for lists, Key and Value for dicts. A bare "list" or
// "dict" carries Any children.
type TypeSpec struct {
	Kind  Kind
	Elem  *TypeSpec
	Key   *TypeSpec
	Value *TypeSpec
}

var anySpec = &TypeSpec{Kind: KindAny}

func (t TypeSpec) String() string {
	switch t.Kind {
	case KindList:
		if t.Elem == nil || t.Elem.Kind == KindAny {
			return "list"
		}
		return "list[" + t.Elem.String() + "]"
	case KindDict:
		if t.Key == nil || t.Value == nil || (t.Key.Kind == KindAny && t.Value.Kind == KindAny) {
			return "dict"
		}
		return "dict[" + t.Key.String() + ", " + t.Value.String() + "]"
	default:
		return t.Kind.String()
	}
}

// Equal reports structural equality.
func (t TypeSpec) Equal(other TypeSpec) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		return childEqual(t.Elem, other.Elem)
	case KindDict:
		return childEqual(t.Key, other.Key) && childEqual(t.Value, other.Value)
	default:
		return true
	}
}

func childEqual(a, b *TypeSpec) bool {
	if a == nil {
		a = anySpec
	}
	if b == nil {
		b = anySpec
	}
	return a.Equal(*b)
}

// MaxSpecDepth bounds nesting of list/dict type expressions so a
// malicious or runaway spec fails cleanly instead of exhausting the
// stack.
const MaxSpecDepth = 32

// Resolve parses a textual type specification into a TypeSpec. The
// grammar is case-insensitive and whitespace around tokens is ignored.
// Malformed specs are rejected, never coerced.
func Resolve(spec string) (TypeSpec, error) {
	parsed, err := parseType(spec, 0)
	if err != nil {
		return TypeSpec{}, err
	}
	return *parsed, nil
}

func parseType(s string, depth int) (*TypeSpec, error) {
	if depth > MaxSpecDepth {
		return nil, domain.NewSchemaDepthError(s, MaxSpecDepth)
	}

	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "int":
		return &TypeSpec{Kind: KindInt}, nil
	case "float":
		return &TypeSpec{Kind: KindFloat}, nil
	case "str":
		return &TypeSpec{Kind: KindStr}, nil
	case "bool":
		return &TypeSpec{Kind: KindBool}, nil
	case "list":
		return &TypeSpec{Kind: KindList, Elem: anySpec}, nil
	case "dict":
		return &TypeSpec{Kind: KindDict, Key: anySpec, Value: anySpec}, nil
	}

	if strings.HasPrefix(s, "list[") && strings.HasSuffix(s, "]") {
		inner, err := parseType(s[5:len(s)-1], depth+1)
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: KindList, Elem: inner}, nil
	}

	if strings.HasPrefix(s, "dict[") && strings.HasSuffix(s, "]") {
		keySpec, valueSpec, err := splitDictSpec(s[5 : len(s)-1])
		if err != nil {
			return nil, err
		}
		key, err := parseType(keySpec, depth+1)
		if err != nil {
			return nil, err
		}
		value, err := parseType(valueSpec, depth+1)
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: KindDict, Key: key, Value: value}, nil
	}

	return nil, domain.NewUnsupportedTypeError(s)
}

// splitDictSpec splits the inside of dict[...] at the top-level comma.
// Commas nested inside inner list[...]/dict[...] expressions do not
// split; exactly two top-level segments are required.
func splitDictSpec(s string) (string, string, error) {
	depth := 0
	start := 0
	var segments []string
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				segments = append(segments, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	segments = append(segments, strings.TrimSpace(s[start:]))

	if len(segments) != 2 {
		return "", "", domain.NewInvalidDictSpecError(s)
	}
	return segments[0], segments[1], nil
}
