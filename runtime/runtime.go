// Package runtime is the Agent Runtime Adapter (C4): a uniform call site
// over a foundation-model-driven tool-use loop. Its request/response
// shape is grounded on llm.CompletionRequest/CompletionResponse and
// agent.Harness's ToolCall/ToolResult types; the concrete backend wiring
// underneath Run is original, realized with the Anthropic Messages API
// (corpus-wide anthropic-sdk-go usage), since the teacher's own
// interfaces are backend-agnostic and never reach a live SDK call site.
package runtime

import (
	"context"
	"encoding/json"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphmind/orchestrator/llm"
	"github.com/graphmind/orchestrator/orcherr"
	"github.com/graphmind/orchestrator/types"
)

// ToolHandler executes a single tool call by name, returning the
// content to feed back to the model. It is closure-bound to a database
// and the request's SharedMemory by the caller (C5's Agent Factory).
type ToolHandler func(ctx context.Context, name string, argumentsJSON string) (string, error)

// Outcome is the uniform result of one Run call.
type Outcome struct {
	Text      string
	ToolCalls []llm.ToolCall
	Usage     llm.TokenUsage
}

// Adapter wraps an Anthropic client behind the uniform Run() call site.
// It is the only package in the module that imports the concrete SDK.
type Adapter struct {
	client anthropic.Client
	model  string
	tracer trace.Tracer
}

// New builds an Adapter for the given model name, resolving its API key
// from credentials by credentialName rather than reading
// ANTHROPIC_API_KEY as a bare environment variable.
func New(ctx context.Context, model string, credentials types.CredentialStore, credentialName string) (*Adapter, error) {
	cred, err := credentials.GetCredential(ctx, credentialName)
	if err != nil {
		return nil, orcherr.Wrap(err, orcherr.CodeUnreachable, "runtime: failed to resolve model credential").WithComponent("runtime")
	}
	return &Adapter{
		client: anthropic.NewClient(option.WithAPIKey(cred.Secret)),
		model:  model,
		tracer: otel.Tracer("graphmind/runtime"),
	}, nil
}

// Run drives a tool-use loop: it sends the conversation plus tool
// definitions, executes any requested tools via handler, appends the
// results, and repeats until the model stops requesting tools or ctx is
// done. This is the sole uniform call site every specialist, semantic
// flow, and debate worker goes through.
func (a *Adapter) Run(ctx context.Context, system string, messages []llm.Message, tools []llm.ToolDef, handler ToolHandler, opts ...llm.CompletionOption) (Outcome, error) {
	ctx, span := a.tracer.Start(ctx, "runtime.Run")
	defer span.End()

	genReq := llm.NewCompletionRequest(messages, opts...)
	maxTokens := int64(4096)
	if genReq.MaxTokens != nil {
		maxTokens = int64(*genReq.MaxTokens)
	}

	anthTools := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		anthTools = append(anthTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters,
				},
			},
		})
	}

	conv := toAnthropicMessages(messages)
	var total llm.TokenUsage
	var lastText string

	for {
		select {
		case <-ctx.Done():
			return Outcome{}, orcherr.Wrap(ctx.Err(), orcherr.CodeTimeout, "agent run deadline exceeded").WithComponent("runtime")
		default:
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: maxTokens,
			System:    []anthropic.TextBlockParam{{Text: system}},
			Messages:  conv,
			Tools:     anthTools,
		}
		if genReq.Temperature != nil {
			params.Temperature = anthropic.Float(*genReq.Temperature)
		}
		if genReq.TopP != nil {
			params.TopP = anthropic.Float(*genReq.TopP)
		}
		if len(genReq.Stop) > 0 {
			params.StopSequences = genReq.Stop
		}

		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return Outcome{}, orcherr.Wrap(err, orcherr.CodeToolError, "foundation model call failed").WithComponent("runtime")
		}

		total.InputTokens += int(resp.Usage.InputTokens)
		total.OutputTokens += int(resp.Usage.OutputTokens)
		total.TotalTokens = total.InputTokens + total.OutputTokens

		var toolCalls []llm.ToolCall
		var textParts string
		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textParts += variant.Text
			case anthropic.ToolUseBlock:
				toolCalls = append(toolCalls, llm.ToolCall{
					ID:        variant.ID,
					Name:      variant.Name,
					Arguments: string(variant.Input),
				})
			}
		}
		lastText = textParts

		if len(toolCalls) == 0 || handler == nil {
			return Outcome{Text: lastText, ToolCalls: toolCalls, Usage: total}, nil
		}

		conv = append(conv, resp.ToParam())

		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, call := range toolCalls {
			result, err := handler(ctx, call.Name, call.Arguments)
			isErr := false
			if err != nil {
				result = err.Error()
				isErr = true
			}
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(call.ID, result, isErr))
		}
		conv = append(conv, anthropic.NewUserMessage(resultBlocks...))
	}
}

func toAnthropicMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser, llm.RoleSystem:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleTool:
			for _, tr := range m.ToolResults {
				out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError)))
			}
		}
	}
	return out
}

// marshalArgs is a convenience used by closure-bound tools to decode
// Anthropic's raw JSON arguments into the map[string]any shape the
// rest of the codebase works with (tool.Tool.Execute's input type).
func marshalArgs(argumentsJSON string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(argumentsJSON), &m); err != nil {
		return nil, orcherr.Wrap(err, orcherr.CodeToolError, "invalid tool arguments").WithComponent("runtime")
	}
	return m, nil
}

// DecodeArguments exposes marshalArgs to other packages constructing
// ToolHandlers (agentpool).
func DecodeArguments(argumentsJSON string) (map[string]any, error) {
	return marshalArgs(argumentsJSON)
}
