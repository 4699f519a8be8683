package tool

import "github.com/graphmind/orchestrator/schema"

// Descriptor describes a tool's metadata: a snapshot of its configuration
// without the execution closure, suitable for listing over HTTP (see
// httpapi.handleListAgents) without exposing a live Execute func.
type Descriptor struct {
	// Name is the unique identifier for the tool.
	Name string `json:"name"`

	// Version is the semantic version of the tool.
	Version string `json:"version"`

	// Description is a human-readable description of what the tool does.
	Description string `json:"description"`

	// Tags are labels for categorizing and discovering the tool.
	Tags []string `json:"tags"`

	// InputSchema is the JSON schema describing the tool's expected input.
	InputSchema schema.JSON `json:"input_schema"`

	// OutputSchema is the JSON schema describing the tool's output.
	OutputSchema schema.JSON `json:"output_schema"`
}

// ToDescriptor converts a Tool to its Descriptor, extracting metadata
// without retaining a reference to the tool's execution logic.
func ToDescriptor(t Tool) Descriptor {
	return Descriptor{
		Name:         t.Name(),
		Version:      t.Version(),
		Description:  t.Description(),
		Tags:         t.Tags(),
		InputSchema:  t.InputSchema(),
		OutputSchema: t.OutputSchema(),
	}
}
