package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/churchatlas/churchatlas/internal/apperrors"
	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"
)

type DispatcherConfig struct {
	ServerName    string
	ServerVersion string
}

type methodHandler func(identity *config.McpIdentity, params json.RawMessage) (any, error)

// Dispatcher routes parsed envelopes to typed handlers. Both the
// method table and the tool table are built once at construction, so
// every known name has exactly one handler and everything else is a
// MethodNotFound or a validation error.
type Dispatcher struct {
	config  DispatcherConfig
	tools   []toolDef
	toolsBy map[string]*toolDef
	ops     map[string]entityOps
	methods map[string]methodHandler
}

func NewDispatcher(config DispatcherConfig, directory *service.DirectoryService) *Dispatcher {
	dispatcher := &Dispatcher{
		config:  config,
		tools:   buildTools(directory),
		toolsBy: map[string]*toolDef{},
		ops:     map[string]entityOps{},
	}

	for i := range dispatcher.tools {
		dispatcher.toolsBy[dispatcher.tools[i].Name] = &dispatcher.tools[i]
	}

	for _, ops := range directoryOps(directory) {
		dispatcher.ops[ops.kind] = ops
	}

	dispatcher.methods = map[string]methodHandler{
		"initialize":                dispatcher.handleInitialize,
		"notifications/initialized": dispatcher.handleInitialized,
		"ping":                      dispatcher.handlePing,
		"tools/list":                dispatcher.handleToolsList,
		"tools/call":                dispatcher.handleToolsCall,
		"resources/list":            dispatcher.handleResourcesList,
		"resources/templates/list":  dispatcher.handleResourceTemplatesList,
		"resources/read":            dispatcher.handleResourcesRead,
	}

	return dispatcher
}

// Outcome is what the HTTP controller needs to pick a status code: the
// ordered responses, whether the whole call was notifications, and
// whether a single-envelope call hit a concurrency conflict.
type Outcome struct {
	Responses        []Response
	Batch            bool
	AllNotifications bool
}

// Handle processes one HTTP body: a single envelope or a batch.
// Envelopes run sequentially in order so side effects stay
// deterministic for the client.
func (d *Dispatcher) Handle(identity *config.McpIdentity, body []byte) Outcome {
	trimmed := bytes.TrimLeft(body, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var envelopes []json.RawMessage
		if err := json.Unmarshal(body, &envelopes); err != nil {
			return Outcome{Responses: []Response{parseErrorResponse()}}
		}

		if len(envelopes) == 0 {
			return Outcome{
				Batch: true,
				Responses: []Response{newErrorResponse(nil, &ErrorObject{
					Code:    CodeInvalidRequest,
					Message: "empty batch",
				})},
			}
		}

		outcome := Outcome{Batch: true, AllNotifications: true}
		for _, raw := range envelopes {
			response, notification := d.handleEnvelope(identity, raw)
			if notification {
				continue
			}
			outcome.AllNotifications = false
			outcome.Responses = append(outcome.Responses, response)
		}
		return outcome
	}

	response, notification := d.handleEnvelope(identity, body)
	if notification {
		return Outcome{AllNotifications: true}
	}
	return Outcome{Responses: []Response{response}}
}

func (d *Dispatcher) handleEnvelope(identity *config.McpIdentity, raw json.RawMessage) (Response, bool) {
	var request Request
	if err := json.Unmarshal(raw, &request); err != nil {
		return parseErrorResponse(), false
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		if request.IsNotification() {
			return Response{}, true
		}
		return newErrorResponse(request.ID, &ErrorObject{
			Code:    CodeInvalidRequest,
			Message: "envelope is not a jsonrpc 2.0 request",
		}), false
	}

	handler, ok := d.methods[request.Method]
	if !ok {
		if request.IsNotification() {
			return Response{}, true
		}
		return newErrorResponse(request.ID, &ErrorObject{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("unknown method %q", request.Method),
		}), false
	}

	result, err := handler(identity, request.Params)

	// Notifications never produce a response entry, even on error.
	if request.IsNotification() {
		return Response{}, true
	}

	if err != nil {
		return newErrorResponse(request.ID, translateError(err)), false
	}

	return newResponse(request.ID, result), false
}

func parseErrorResponse() Response {
	return newErrorResponse(nil, &ErrorObject{
		Code:    CodeParseError,
		Message: "malformed json",
	})
}

// Method handlers

func (d *Dispatcher) handleInitialize(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    d.config.ServerName,
			"version": d.config.ServerVersion,
		},
	}, nil
}

func (d *Dispatcher) handleInitialized(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	return nil, nil
}

func (d *Dispatcher) handlePing(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	return map[string]any{}, nil
}

// handleToolsList is identity-sensitive: write tools only exist for
// callers holding a bearer identity.
func (d *Dispatcher) handleToolsList(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	tools := make([]map[string]any, 0, len(d.tools))

	for _, tool := range d.tools {
		if tool.RequiresAuth && identity == nil {
			continue
		}
		tools = append(tools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}

	return map[string]any{"tools": tools}, nil
}

func (d *Dispatcher) handleToolsCall(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if len(params) == 0 {
		return nil, apperrors.Validation("params are required")
	}

	if err := json.Unmarshal(params, &call); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid params: %v", err))
	}

	tool, ok := d.toolsBy[call.Name]
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unknown tool %q", call.Name))
	}

	return tool.handler(identity, call.Arguments)
}

func (d *Dispatcher) handleResourcesList(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	return map[string]any{"resources": d.resourceList()}, nil
}

func (d *Dispatcher) handleResourceTemplatesList(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	return map[string]any{"resourceTemplates": d.resourceTemplates()}, nil
}

func (d *Dispatcher) handleResourcesRead(identity *config.McpIdentity, params json.RawMessage) (any, error) {
	var read struct {
		URI string `json:"uri"`
	}

	if len(params) == 0 {
		return nil, apperrors.Validation("params are required")
	}

	if err := json.Unmarshal(params, &read); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid params: %v", err))
	}

	if read.URI == "" {
		return nil, apperrors.Validation("uri is required")
	}

	return d.readResource(identity, read.URI)
}
