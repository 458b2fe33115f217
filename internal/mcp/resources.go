package mcp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/churchatlas/churchatlas/internal/apperrors"
	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"
)

const resourceMimeType = "application/json"

func (d *Dispatcher) resourceList() []map[string]any {
	resources := make([]map[string]any, 0, len(EntityKinds))

	for _, kind := range EntityKinds {
		resources = append(resources, map[string]any{
			"uri":         kind + "://list",
			"name":        kind,
			"description": fmt.Sprintf("Paginated listing of %s; accepts limit, offset and include_deleted query parameters.", kind),
			"mimeType":    resourceMimeType,
		})
	}

	return resources
}

func (d *Dispatcher) resourceTemplates() []map[string]any {
	templates := make([]map[string]any, 0, len(EntityKinds)*2)

	for _, kind := range EntityKinds {
		templates = append(templates,
			map[string]any{
				"uriTemplate": kind + "://id/{id}",
				"name":        kind + " by id",
				"mimeType":    resourceMimeType,
			},
			map[string]any{
				"uriTemplate": kind + "://path/{path}",
				"name":        kind + " by path",
				"mimeType":    resourceMimeType,
			},
		)
	}

	return templates
}

// readResource routes a {kind}://{mode}/{key} URI onto the same service
// calls the tools use. The payload is rendered once with a stable
// field order, so repeated reads of an unchanged row are byte
// identical.
func (d *Dispatcher) readResource(identity *config.McpIdentity, rawURI string) (any, error) {
	parsed, err := url.Parse(rawURI)

	if err != nil || parsed.Scheme == "" {
		return nil, apperrors.Validation("invalid resource uri")
	}

	ops, ok := d.ops[parsed.Scheme]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("unknown resource kind %q", parsed.Scheme))
	}

	var payload any

	switch parsed.Host {
	case "list":
		params := service.ListParams{}
		query := parsed.Query()
		if raw := query.Get("limit"); raw != "" {
			params.Limit, err = strconv.Atoi(raw)
			if err != nil {
				return nil, apperrors.Validation("limit must be an integer")
			}
		}
		if raw := query.Get("offset"); raw != "" {
			params.Offset, err = strconv.Atoi(raw)
			if err != nil {
				return nil, apperrors.Validation("offset must be an integer")
			}
		}
		params.IncludeDeleted = query.Get("include_deleted") == "true"

		result, err := ops.list(identity, params)
		if err != nil {
			return nil, err
		}
		payload = map[string]any{"items": result.Items, "total": result.Total}

	case "id":
		key := strings.TrimPrefix(parsed.Path, "/")
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil || id == 0 {
			return nil, apperrors.Validation("id must be a positive integer")
		}
		payload, err = ops.get(identity, service.Selector{ID: uint(id)}, false)
		if err != nil {
			return nil, err
		}

	case "path":
		key := strings.TrimPrefix(parsed.Path, "/")
		if key == "" {
			return nil, apperrors.Validation("path is required")
		}
		payload, err = ops.get(identity, service.Selector{Path: key}, false)
		if err != nil {
			return nil, err
		}

	default:
		return nil, apperrors.Validation(fmt.Sprintf("unknown resource mode %q", parsed.Host))
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"contents": []map[string]any{
			{
				"uri":      rawURI,
				"mimeType": resourceMimeType,
				"text":     string(text),
			},
		},
	}, nil
}
