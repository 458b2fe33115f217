package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/churchatlas/churchatlas/internal/apperrors"
	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"
)

// EntityKinds in catalog order. Tool and resource names are derived
// from these, never assembled ad hoc elsewhere.
var EntityKinds = []string{"churches", "regions", "networks"}

type toolHandler func(identity *config.McpIdentity, args json.RawMessage) (any, error)

type toolDef struct {
	Name         string
	Description  string
	InputSchema  map[string]any
	RequiresAuth bool
	handler      toolHandler
}

// Argument shapes shared by every entity kind.

type listArgs struct {
	Limit          int  `json:"limit"`
	Offset         int  `json:"offset"`
	IncludeDeleted bool `json:"include_deleted"`
}

type getArgs struct {
	ID             uint   `json:"id"`
	Path           string `json:"path"`
	IncludeDeleted bool   `json:"include_deleted"`
}

type writeArgs struct {
	ID                uint            `json:"id"`
	Path              string          `json:"path"`
	ExpectedUpdatedAt int64           `json:"expected_updated_at"`
	Patch             json.RawMessage `json:"patch"`
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var args T
	if len(raw) == 0 {
		return args, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&args); err != nil {
		return args, apperrors.Validation(fmt.Sprintf("invalid arguments: %v", err))
	}

	return args, nil
}

func decodeInput[T any](raw json.RawMessage, what string) (T, error) {
	var input T
	if len(raw) == 0 {
		return input, apperrors.Validation(what + " is required")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&input); err != nil {
		return input, apperrors.Validation(fmt.Sprintf("invalid %s: %v", what, err))
	}

	return input, nil
}

// entityOps binds one entity kind's typed service methods into the
// uniform handler shape the dispatch table needs. Create/update decode
// into the kind's input struct, so an unknown name can never reach a
// service as a stringly-typed dispatch.
type entityOps struct {
	kind    string
	list    func(*config.McpIdentity, service.ListParams) (*service.ListResult, error)
	get     func(*config.McpIdentity, service.Selector, bool) (map[string]any, error)
	create  func(*config.McpIdentity, json.RawMessage) (map[string]any, error)
	update  func(*config.McpIdentity, service.Selector, int64, json.RawMessage) (map[string]any, error)
	del     func(*config.McpIdentity, service.Selector, int64) (map[string]any, error)
	restore func(*config.McpIdentity, service.Selector, int64) (map[string]any, error)
}

func directoryOps(directory *service.DirectoryService) []entityOps {
	return []entityOps{
		{
			kind: "churches",
			list: directory.ListChurches,
			get:  directory.GetChurch,
			create: func(identity *config.McpIdentity, raw json.RawMessage) (map[string]any, error) {
				input, err := decodeInput[service.ChurchInput](raw, "input")
				if err != nil {
					return nil, err
				}
				return directory.CreateChurch(identity, input)
			},
			update: func(identity *config.McpIdentity, selector service.Selector, expected int64, raw json.RawMessage) (map[string]any, error) {
				patch, err := decodeInput[service.ChurchInput](raw, "patch")
				if err != nil {
					return nil, err
				}
				return directory.UpdateChurch(identity, selector, expected, patch)
			},
			del:     directory.DeleteChurch,
			restore: directory.RestoreChurch,
		},
		{
			kind: "regions",
			list: directory.ListRegions,
			get:  directory.GetRegion,
			create: func(identity *config.McpIdentity, raw json.RawMessage) (map[string]any, error) {
				input, err := decodeInput[service.RegionInput](raw, "input")
				if err != nil {
					return nil, err
				}
				return directory.CreateRegion(identity, input)
			},
			update: func(identity *config.McpIdentity, selector service.Selector, expected int64, raw json.RawMessage) (map[string]any, error) {
				patch, err := decodeInput[service.RegionInput](raw, "patch")
				if err != nil {
					return nil, err
				}
				return directory.UpdateRegion(identity, selector, expected, patch)
			},
			del:     directory.DeleteRegion,
			restore: directory.RestoreRegion,
		},
		{
			kind: "networks",
			list: directory.ListNetworks,
			get:  directory.GetNetwork,
			create: func(identity *config.McpIdentity, raw json.RawMessage) (map[string]any, error) {
				input, err := decodeInput[service.NetworkInput](raw, "input")
				if err != nil {
					return nil, err
				}
				return directory.CreateNetwork(identity, input)
			},
			update: func(identity *config.McpIdentity, selector service.Selector, expected int64, raw json.RawMessage) (map[string]any, error) {
				patch, err := decodeInput[service.NetworkInput](raw, "patch")
				if err != nil {
					return nil, err
				}
				return directory.UpdateNetwork(identity, selector, expected, patch)
			},
			del:     directory.DeleteNetwork,
			restore: directory.RestoreNetwork,
		},
	}
}

func selectorSchema() map[string]any {
	return map[string]any{
		"id":   map[string]any{"type": "integer", "description": "Numeric id; wins over path when both are set"},
		"path": map[string]any{"type": "string", "description": "Path slug"},
	}
}

func buildTools(directory *service.DirectoryService) []toolDef {
	var tools []toolDef

	for _, ops := range directoryOps(directory) {
		ops := ops

		tools = append(tools,
			toolDef{
				Name:        ops.kind + "_list",
				Description: fmt.Sprintf("List %s with pagination.", ops.kind),
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"limit":           map[string]any{"type": "integer", "minimum": 1, "maximum": service.ListLimitMax},
						"offset":          map[string]any{"type": "integer", "minimum": 0},
						"include_deleted": map[string]any{"type": "boolean", "description": "Admin only"},
					},
				},
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					args, err := decodeArgs[listArgs](raw)
					if err != nil {
						return nil, err
					}
					result, err := ops.list(identity, service.ListParams{
						Limit:          args.Limit,
						Offset:         args.Offset,
						IncludeDeleted: args.IncludeDeleted,
					})
					if err != nil {
						return nil, err
					}
					return map[string]any{"items": result.Items, "total": result.Total}, nil
				},
			},
			toolDef{
				Name:        ops.kind + "_get",
				Description: fmt.Sprintf("Fetch a single %s row by id or path.", ops.kind),
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":              selectorSchema()["id"],
						"path":            selectorSchema()["path"],
						"include_deleted": map[string]any{"type": "boolean", "description": "Admin only"},
					},
				},
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					args, err := decodeArgs[getArgs](raw)
					if err != nil {
						return nil, err
					}
					return ops.get(identity, service.Selector{ID: args.ID, Path: args.Path}, args.IncludeDeleted)
				},
			},
			toolDef{
				Name:         ops.kind + "_create",
				Description:  fmt.Sprintf("Create a %s row.", ops.kind),
				RequiresAuth: true,
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{"type": "object", "description": "Entity fields; path and name are required"},
					},
					"required": []string{"input"},
				},
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					var args struct {
						Input json.RawMessage `json:"input"`
					}
					if err := json.Unmarshal(raw, &args); err != nil {
						return nil, apperrors.Validation(fmt.Sprintf("invalid arguments: %v", err))
					}
					return ops.create(identity, args.Input)
				},
			},
			toolDef{
				Name:         ops.kind + "_update",
				Description:  fmt.Sprintf("Patch a %s row; requires the last-seen updated_at.", ops.kind),
				RequiresAuth: true,
				InputSchema:  writeSchema(true),
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					args, err := decodeArgs[writeArgs](raw)
					if err != nil {
						return nil, err
					}
					return ops.update(identity, service.Selector{ID: args.ID, Path: args.Path}, args.ExpectedUpdatedAt, args.Patch)
				},
			},
			toolDef{
				Name:         ops.kind + "_delete",
				Description:  fmt.Sprintf("Soft-delete a %s row; requires the last-seen updated_at.", ops.kind),
				RequiresAuth: true,
				InputSchema:  writeSchema(false),
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					args, err := decodeArgs[writeArgs](raw)
					if err != nil {
						return nil, err
					}
					return ops.del(identity, service.Selector{ID: args.ID, Path: args.Path}, args.ExpectedUpdatedAt)
				},
			},
			toolDef{
				Name:         ops.kind + "_restore",
				Description:  fmt.Sprintf("Restore a soft-deleted %s row. Admin only.", ops.kind),
				RequiresAuth: true,
				InputSchema:  writeSchema(false),
				handler: func(identity *config.McpIdentity, raw json.RawMessage) (any, error) {
					args, err := decodeArgs[writeArgs](raw)
					if err != nil {
						return nil, err
					}
					return ops.restore(identity, service.Selector{ID: args.ID, Path: args.Path}, args.ExpectedUpdatedAt)
				},
			},
		)
	}

	return tools
}

func writeSchema(withPatch bool) map[string]any {
	properties := map[string]any{
		"id":                  selectorSchema()["id"],
		"path":                selectorSchema()["path"],
		"expected_updated_at": map[string]any{"type": "integer", "description": "The updated_at value last observed, unix milliseconds"},
	}
	required := []string{"expected_updated_at"}

	if withPatch {
		properties["patch"] = map[string]any{"type": "object", "description": "Fields to change"}
		required = append(required, "patch")
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
