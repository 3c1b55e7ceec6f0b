// Package core implements the node execution contract and the
// in-process DAG runner that drives a validated workflow definition.
package core

import (
	"context"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
)

// NodeHarness binds one node instance of a workflow to its contract
// implementation and enforces the execution protocol around it:
// validate input, run, validate output. Node logic never sees an
// unvalidated record and callers never see an unvalidated result.
type NodeHarness struct {
	contract  ports.NodeContract
	nodeID    string
	nodeType  string
	rawConfig map[string]interface{}
	schemas   ports.Schemas
}

// NewNodeHarness instantiates the contract for a node instance and runs
// its setup phase. Setup derives the node's three schemas from the raw
// configuration; the configuration itself is then validated against the
// derived config schema before the harness is handed out.
func NewNodeHarness(instance domain.NodeInstance, factory ports.NodeFactory) (*NodeHarness, error) {
	contract := factory()

	config := instance.Config
	if config == nil {
		config = map[string]interface{}{}
	}

	schemas, err := contract.Setup(config)
	if err != nil {
		if domainErr, ok := domain.AsDomainError(err); ok {
			domainErr.WithNodeID(instance.ID).WithNodeType(instance.NodeType)
			return nil, domainErr
		}
		return nil, domain.NewConfigurationError("node setup failed", err).
			WithNodeID(instance.ID).
			WithNodeType(instance.NodeType)
	}

	h := &NodeHarness{
		contract:  contract,
		nodeID:    instance.ID,
		nodeType:  instance.NodeType,
		rawConfig: config,
		schemas:   schemas,
	}

	if _, err := h.Config(); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *NodeHarness) NodeID() string { return h.nodeID }

func (h *NodeHarness) NodeType() string { return h.nodeType }

func (h *NodeHarness) Schemas() ports.Schemas { return h.schemas }

// Config re-validates the stored raw configuration against the config
// schema on every read. The result is never cached: a caller can never
// observe a config that silently diverged from the schema after the
// backing map was mutated externally.
func (h *NodeHarness) Config() (map[string]interface{}, error) {
	if err := h.schemas.Config.Validate(h.rawConfig); err != nil {
		return nil, domain.NewConfigurationError("node config does not match its schema", err).
			WithNodeID(h.nodeID).
			WithNodeType(h.nodeType)
	}
	return domain.CloneRecord(h.rawConfig), nil
}

// Execute runs the node under the execution contract:
//
//  1. the input record is validated against the input schema; on
//     mismatch the node's logic is never invoked
//  2. the node's own logic runs; its failure propagates as a run error
//     with node identity attached, never wrapped further
//  3. the returned record is validated against the output schema; a
//     node that ran but produced a malformed record is a contract
//     violation reported distinctly from a run failure
func (h *NodeHarness) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if input == nil {
		input = map[string]interface{}{}
	}

	if err := h.schemas.Input.Validate(input); err != nil {
		return nil, domain.NewInputValidationError(h.nodeID, h.nodeType, err)
	}

	output, err := h.contract.Run(ctx, domain.CloneRecord(input))
	if err != nil {
		return nil, domain.NewRunError(h.nodeID, h.nodeType, err)
	}

	if err := h.schemas.Output.Validate(output); err != nil {
		return nil, domain.NewOutputValidationError(h.nodeID, h.nodeType, err)
	}

	return output, nil
}
