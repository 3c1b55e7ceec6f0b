package domain

import (
	"fmt"
	"strings"
)

// Structural validation and link normalization are two separate
// passes. Validate only accepts or rejects; Normalize only rewrites
// (titles, router target handles) and is idempotent.

// Validate checks the structural invariants of a definition, failing
// fast on the first violation:
//
//  1. node ids are pairwise distinct within this definition
//  2. exactly one top-level node has node type InputNode
//  3. at most one top-level node has node type OutputNode
//
// Each subworkflow is an independent scope and is validated recursively
// with the same rules. Validation never mutates the definition.
func (d *WorkflowDefinition) Validate() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if _, dup := seen[n.ID]; dup {
			return NewGraphStructureError(fmt.Sprintf("duplicate node id: %s", n.ID))
		}
		seen[n.ID] = struct{}{}
	}

	var inputs, outputs int
	for _, n := range d.Nodes {
		if !n.TopLevel() {
			continue
		}
		switch n.NodeType {
		case NodeTypeInput:
			inputs++
		case NodeTypeOutput:
			outputs++
		}
	}

	if inputs != 1 {
		return NewGraphStructureError(
			fmt.Sprintf("workflow must have exactly one input node, found %d", inputs))
	}
	if outputs > 1 {
		return NewGraphStructureError(
			fmt.Sprintf("workflow must have at most one output node, found %d", outputs))
	}

	for _, n := range d.Nodes {
		if n.Subworkflow == nil {
			continue
		}
		if err := n.Subworkflow.Validate(); err != nil {
			if domainErr, ok := AsDomainError(err); ok {
				domainErr.WithContext("subworkflow_of", n.ID)
			}
			return err
		}
	}

	return nil
}

// Normalize rewrites the definition into canonical form:
//
//   - blank node titles default to the node id
//   - every link sourced at a RouterNode gets a target handle qualified
//     as "<source_id>.<branch>"
//
// Running Normalize on an already-normalized definition is a no-op.
// Subworkflows are normalized recursively.
func (d *WorkflowDefinition) Normalize() {
	for i := range d.Nodes {
		if strings.TrimSpace(d.Nodes[i].Title) == "" {
			d.Nodes[i].Title = d.Nodes[i].ID
		}
		if d.Nodes[i].Subworkflow != nil {
			d.Nodes[i].Subworkflow.Normalize()
		}
	}

	for i := range d.Links {
		source, ok := d.Node(d.Links[i].SourceID)
		if !ok || source.NodeType != NodeTypeRouter {
			continue
		}
		d.Links[i].TargetHandle = qualifyRouterHandle(d.Links[i].SourceID, d.Links[i].TargetHandle)
	}
}

// qualifyRouterHandle canonicalizes a router link's target handle.
// Authors and tools may supply either the bare branch name ("true") or
// the fully qualified form ("router1.true"); both normalize to the
// qualified form so downstream consumers match against one shape.
func qualifyRouterHandle(sourceID, handle string) string {
	if handle == "" {
		handle = sourceID
	}
	if idx := strings.LastIndex(handle, "."); idx != -1 {
		handle = handle[idx+1:]
	}
	if !strings.HasPrefix(handle, sourceID+".") {
		handle = sourceID + "." + handle
	}
	return handle
}

// RouterBranch extracts the branch name from a normalized router link
// handle ("router1.true" -> "true").
func RouterBranch(targetHandle string) string {
	if idx := strings.LastIndex(targetHandle, "."); idx != -1 {
		return targetHandle[idx+1:]
	}
	return targetHandle
}

// ValidateDefinition is the construction entrypoint: validate the
// structural invariants, then rewrite links and titles into canonical
// form. The returned definition is ready for instantiation.
func ValidateDefinition(d *WorkflowDefinition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.Normalize()
	return nil
}
