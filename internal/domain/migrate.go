package domain

import "strings"

// Definitions authored before model identifiers carried a provider
// namespace store bare names like "gpt-4" or "claude-3". MigrateModelProviders
// rewrites those to "openai/..." / "anthropic/..." for the two node
// types that predate the convention. It runs once at load time; new
// node types are expected to store qualified names from the start.

var providerMigrationNodeTypes = map[string]struct{}{
	"SingleLLMCallNode": {},
	"BestOfNNode":       {},
}

func (d *WorkflowDefinition) MigrateModelProviders() {
	for i := range d.Nodes {
		node := &d.Nodes[i]
		if _, legacy := providerMigrationNodeTypes[node.NodeType]; legacy {
			migrateLLMInfo(node.Config)
		}
		if node.Subworkflow != nil {
			node.Subworkflow.MigrateModelProviders()
		}
	}
}

func migrateLLMInfo(config map[string]interface{}) {
	llmInfo, ok := config["llm_info"].(map[string]interface{})
	if !ok {
		return
	}
	model, ok := llmInfo["model"].(string)
	if !ok {
		return
	}

	switch {
	case strings.HasPrefix(model, "gpt") ||
		strings.HasPrefix(model, "chatgpt") ||
		strings.HasPrefix(model, "o1"):
		llmInfo["model"] = "openai/" + model
	case strings.HasPrefix(model, "claude"):
		llmInfo["model"] = "anthropic/" + model
	}
}
