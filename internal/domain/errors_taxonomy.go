package domain

import "fmt"

// Error kinds surfaced by the type resolver, the graph validator and the
// node execution harness. All of them are DomainError values so callers
// can branch on category/code with errors.As, but each kind gets its own
// constructor and predicate so call sites stay readable.

const (
	CodeUnsupportedType  = "SCHEMA_UNSUPPORTED_TYPE"
	CodeInvalidDictSpec  = "SCHEMA_INVALID_DICT"
	CodeSchemaDepth      = "SCHEMA_DEPTH"
	CodeInputValidation  = "VALIDATION_INPUT"
	CodeOutputValidation = "VALIDATION_OUTPUT"
	CodeNodeRun          = "NODE_RUN"
	CodeUnknownNodeType  = "REGISTRY_UNKNOWN_TYPE"
)

func NewUnsupportedTypeError(spec string) *DomainError {
	err := NewSchemaError(fmt.Sprintf("unsupported type: %s", spec), nil)
	return err.WithContext("spec", spec)
}

func NewInvalidDictSpecError(spec string) *DomainError {
	err := NewSchemaError(fmt.Sprintf("invalid dict type specification: %s", spec), nil)
	return err.WithContext("spec", spec)
}

func NewSchemaDepthError(spec string, limit int) *DomainError {
	err := NewSchemaError(fmt.Sprintf("type specification exceeds nesting depth %d", limit), nil)
	return err.WithContext("spec", spec)
}

// NewInputValidationError marks a wiring or upstream data problem: the
// record delivered to a node did not match its input schema. Retryable
// from the scheduler's point of view once the upstream producer is fixed.
func NewInputValidationError(nodeID, nodeType string, cause error) *DomainError {
	// the code is set explicitly: the message embeds the node id, and
	// keyword inference over an id like "output_writer" would pick the
	// wrong validation code
	err := NewValidationError(fmt.Sprintf("input validation failed for node %s", nodeID), cause,
		WithCode(CodeInputValidation))
	err.Retryable = true
	return err.WithNodeID(nodeID).WithNodeType(nodeType)
}

// NewOutputValidationError marks a defect in the node implementation
// itself: it ran, but produced a record that violates its own declared
// output schema. Never retryable without a code or config fix.
func NewOutputValidationError(nodeID, nodeType string, cause error) *DomainError {
	err := NewValidationError(fmt.Sprintf("output validation failed for node %s", nodeID), cause,
		WithCode(CodeOutputValidation))
	return err.WithNodeID(nodeID).WithNodeType(nodeType)
}

// NewRunError attaches node identity to an implementation-defined failure
// from the node's own logic. The cause is preserved verbatim via Unwrap.
func NewRunError(nodeID, nodeType string, cause error) *DomainError {
	err := newDomainError(CategoryNode, fmt.Sprintf("node %s run failed", nodeID), cause)
	return err.WithNodeID(nodeID).WithNodeType(nodeType)
}

func NewUnknownNodeTypeError(nodeType string) *DomainError {
	err := NewRegistryError(fmt.Sprintf("unknown node type: %s", nodeType), nil)
	return err.WithNodeType(nodeType)
}

func NewGraphStructureError(message string) *DomainError {
	return NewGraphError(message, nil)
}

func hasCode(err error, code string) bool {
	domainErr, ok := AsDomainError(err)
	return ok && domainErr.Code == code
}

func IsUnsupportedTypeError(err error) bool { return hasCode(err, CodeUnsupportedType) }

func IsInvalidDictSpecError(err error) bool { return hasCode(err, CodeInvalidDictSpec) }

func IsSchemaDepthError(err error) bool { return hasCode(err, CodeSchemaDepth) }

func IsInputValidationError(err error) bool { return hasCode(err, CodeInputValidation) }

func IsOutputValidationError(err error) bool { return hasCode(err, CodeOutputValidation) }

func IsRunError(err error) bool { return hasCode(err, CodeNodeRun) }

func IsUnknownNodeTypeError(err error) bool { return hasCode(err, CodeUnknownNodeType) }

func IsGraphStructureError(err error) bool {
	domainErr, ok := AsDomainError(err)
	return ok && domainErr.Category == CategoryGraph
}
