package domain

// SpurType tags a whole definition with the conventions that apply to
// its I/O (chat/session handling for chatbots and agents). It never
// changes the structural invariants; those hold uniformly.
type SpurType string

const (
	SpurTypeWorkflow SpurType = "workflow"
	SpurTypeChatbot  SpurType = "chatbot"
	SpurTypeAgent    SpurType = "agent"
)

// Node type names with structural meaning to the validator.
const (
	NodeTypeInput  = "InputNode"
	NodeTypeOutput = "OutputNode"
	NodeTypeRouter = "RouterNode"
)

// RouterSelectedField is the output field a router node uses to
// announce which branch it selected. The runner matches it against
// normalized link handles and strips it before forwarding the record
// downstream.
const RouterSelectedField = "route"

// Coordinates is the canvas position of a node. Presentation only,
// ignored by validation and execution.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is the rendered size of a node. Presentation only.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeInstance is one vertex of a workflow graph: which node type to
// instantiate, its raw configuration, and optional structural nesting.
// ParentID models visual/logical nesting (loop bodies and the like); it
// is not an ownership relation for execution. Subworkflow, when set,
// nests a whole definition that is validated as an independent scope.
type NodeInstance struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title,omitempty"`
	NodeType    string                 `json:"node_type"`
	ParentID    *string                `json:"parent_id,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Coordinates *Coordinates           `json:"coordinates,omitempty"`
	Dimensions  *Dimensions            `json:"dimensions,omitempty"`
	Subworkflow *WorkflowDefinition    `json:"subworkflow,omitempty"`
}

// TopLevel reports whether the node participates in the enclosing
// definition's input/output cardinality checks.
func (n NodeInstance) TopLevel() bool {
	return n.ParentID == nil
}

// Link is a directed edge from a source node's output handle to a
// target node's input handle. Empty handles mean the default
// output/input of the node.
type Link struct {
	SourceID     string `json:"source_id"`
	TargetID     string `json:"target_id"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// WorkflowDefinition is the declarative representation of a workflow: a
// DAG of node instances and the links between their handles. It is
// constructed wholesale from a user-authored document, validated once,
// and then treated as immutable input to execution.
type WorkflowDefinition struct {
	Nodes      []NodeInstance           `json:"nodes"`
	Links      []Link                   `json:"links"`
	TestInputs []map[string]interface{} `json:"test_inputs,omitempty"`
	SpurType   SpurType                 `json:"spur_type,omitempty"`
}

// Node returns the node instance with the given id.
func (d *WorkflowDefinition) Node(id string) (*NodeInstance, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// LinksFrom returns every link whose source is the given node.
func (d *WorkflowDefinition) LinksFrom(id string) []Link {
	var out []Link
	for _, l := range d.Links {
		if l.SourceID == id {
			out = append(out, l)
		}
	}
	return out
}

// LinksTo returns every link whose target is the given node.
func (d *WorkflowDefinition) LinksTo(id string) []Link {
	var out []Link
	for _, l := range d.Links {
		if l.TargetID == id {
			out = append(out, l)
		}
	}
	return out
}

// InputNodeID returns the id of the single top-level input node. Only
// meaningful on a validated definition.
func (d *WorkflowDefinition) InputNodeID() (string, bool) {
	for _, n := range d.Nodes {
		if n.NodeType == NodeTypeInput && n.TopLevel() {
			return n.ID, true
		}
	}
	return "", false
}

// OutputNodeID returns the id of the top-level output node, if any.
func (d *WorkflowDefinition) OutputNodeID() (string, bool) {
	for _, n := range d.Nodes {
		if n.NodeType == NodeTypeOutput && n.TopLevel() {
			return n.ID, true
		}
	}
	return "", false
}
