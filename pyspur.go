// Package pyspur provides the workflow graph model and node execution
// core for a no-code automation platform.
//
// Users assemble directed graphs of typed processing steps ("nodes")
// into workflows. Each node type declares three record schemas - config,
// input and output - either statically or derived at configuration time
// from a small textual type grammar ("int", "list[str]",
// "dict[str, list[int]]"). A workflow definition is validated once as a
// well-formed DAG, then executed node by node under a strict contract:
// validate input, run, validate output.
//
// Basic usage:
//
//	engine, err := pyspur.New(pyspur.Config{DataDir: "./data"})
//	engine.RegisterNode("MyNode", func() pyspur.NodeContract { return &MyNode{} })
//
//	def := &pyspur.Definition{ ... }
//	run, err := engine.RunWorkflow(ctx, def, map[string]interface{}{"text": "hello"})
package pyspur

import (
	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/schema"
)

// Definition is the declarative representation of a workflow: node
// instances plus the links between their handles.
type Definition = domain.WorkflowDefinition

// NodeInstance is one vertex of a workflow graph.
type NodeInstance = domain.NodeInstance

// Link is a directed edge between a source output handle and a target
// input handle.
type Link = domain.Link

// Coordinates and Dimensions carry canvas presentation data; execution
// ignores them.
type Coordinates = domain.Coordinates
type Dimensions = domain.Dimensions

// SpurType tags a definition as a plain workflow, a chatbot or an
// agent. The structural invariants hold uniformly across all three.
type SpurType = domain.SpurType

const (
	SpurTypeWorkflow = domain.SpurTypeWorkflow
	SpurTypeChatbot  = domain.SpurTypeChatbot
	SpurTypeAgent    = domain.SpurTypeAgent
)

// Node type names with structural meaning to the validator.
const (
	NodeTypeInput  = domain.NodeTypeInput
	NodeTypeOutput = domain.NodeTypeOutput
	NodeTypeRouter = domain.NodeTypeRouter
)

// TypeSpec is the structural descriptor produced by resolving a textual
// type specification.
type TypeSpec = schema.TypeSpec

// RecordSchema is a named set of required fields used to validate a
// record at a node boundary.
type RecordSchema = schema.RecordSchema

// FieldSpec pairs a field name with an unresolved type spec string.
type FieldSpec = schema.FieldSpec

// ResolveType parses a textual type specification ("int", "list[str]",
// "dict[str, list[int]]") into a TypeSpec.
func ResolveType(spec string) (TypeSpec, error) {
	return schema.Resolve(spec)
}

// SchemaFromFieldSpecs synthesizes a named record schema from ordered
// field specs.
func SchemaFromFieldSpecs(fields []FieldSpec, name string) (RecordSchema, error) {
	return schema.FromFieldSpecs(fields, name)
}

// SchemaFromSpecMap synthesizes a named record schema from an unordered
// field-name to type-spec mapping.
func SchemaFromSpecMap(fields map[string]string, name string) (RecordSchema, error) {
	return schema.FromSpecMap(fields, name)
}

// NodeContract is the interface every node type implements.
type NodeContract = ports.NodeContract

// NodeFactory builds a fresh contract instance for one node.
type NodeFactory = ports.NodeFactory

// Schemas holds a node's config, input and output record schemas.
type Schemas = ports.Schemas

// WorkflowRecord is a stored workflow at one version.
type WorkflowRecord = ports.WorkflowRecord

// WorkflowRun is the aggregate outcome of one execution.
type WorkflowRun = domain.WorkflowRun

// NodeRun is the per-node outcome within a run.
type NodeRun = domain.NodeRun

// Error predicates for the failure kinds this core reports.
var (
	IsUnsupportedTypeError  = domain.IsUnsupportedTypeError
	IsInvalidDictSpecError  = domain.IsInvalidDictSpecError
	IsGraphStructureError   = domain.IsGraphStructureError
	IsInputValidationError  = domain.IsInputValidationError
	IsOutputValidationError = domain.IsOutputValidationError
	IsRunError              = domain.IsRunError
	IsUnknownNodeTypeError  = domain.IsUnknownNodeTypeError
	IsRetryableError        = domain.IsRetryableError
	IsUserFacingError       = domain.IsUserFacingError
)

// ValidateDefinition checks a definition's structural invariants and
// rewrites its links and titles into canonical form.
func ValidateDefinition(def *Definition) error {
	return domain.ValidateDefinition(def)
}
