package mcp_test

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/mcp"
	"github.com/churchatlas/churchatlas/internal/service"

	"gotest.tools/v3/assert"
)

var contributorIdentity = &config.McpIdentity{SubjectID: "contributor-user", Role: config.RoleContributor}

func newTestDispatcher(t *testing.T) (*mcp.Dispatcher, *service.DirectoryService) {
	t.Helper()

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	})

	err := databaseService.Init()
	assert.NilError(t, err)

	directoryService := service.NewDirectoryService(service.DirectoryServiceConfig{
		Database: databaseService.GetDatabase(),
	})

	err = directoryService.Init()
	assert.NilError(t, err)

	dispatcher := mcp.NewDispatcher(mcp.DispatcherConfig{
		ServerName:    "churchatlas",
		ServerVersion: "test",
	}, directoryService)

	return dispatcher, directoryService
}

func toolNames(t *testing.T, result any) []string {
	t.Helper()

	resultMap, ok := result.(map[string]any)
	assert.Assert(t, ok)

	tools, ok := resultMap["tools"].([]map[string]any)
	assert.Assert(t, ok)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool["name"].(string))
	}
	return names
}

func TestInitialize(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Assert(t, outcome.Responses[0].Error == nil)

	result := outcome.Responses[0].Result.(map[string]any)
	assert.Equal(t, "2025-03-26", result["protocolVersion"])

	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, "churchatlas", serverInfo["name"])
}

func TestPing(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":"ping-1","method":"ping"}`))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Assert(t, outcome.Responses[0].Error == nil)
	assert.Equal(t, `"ping-1"`, string(outcome.Responses[0].ID))
}

func TestToolsListIdentitySensitive(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	assert.Equal(t, 1, len(outcome.Responses))

	anonymousNames := toolNames(t, outcome.Responses[0].Result)
	assert.Equal(t, 6, len(anonymousNames))
	for _, name := range anonymousNames {
		readOnly := strings.HasSuffix(name, "_list") || strings.HasSuffix(name, "_get")
		assert.Assert(t, readOnly, "write tool %q leaked to anonymous caller", name)
	}

	outcome = dispatcher.Handle(contributorIdentity, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	authedNames := toolNames(t, outcome.Responses[0].Result)
	assert.Equal(t, 18, len(authedNames))
}

func TestParseError(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0",`))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Assert(t, outcome.Responses[0].Error != nil)
	assert.Equal(t, mcp.CodeParseError, outcome.Responses[0].Error.Code)
	assert.Equal(t, "null", string(outcome.Responses[0].ID))
}

func TestInvalidRequest(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"id":7,"method":"ping"}`))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Equal(t, mcp.CodeInvalidRequest, outcome.Responses[0].Error.Code)
	assert.Equal(t, "7", string(outcome.Responses[0].ID))

	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":8}`))
	assert.Equal(t, mcp.CodeInvalidRequest, outcome.Responses[0].Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"no/such/method"}`))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Equal(t, mcp.CodeMethodNotFound, outcome.Responses[0].Error.Code)
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Equal(t, 0, len(outcome.Responses))
	assert.Assert(t, outcome.AllNotifications)

	// Errors in notifications are swallowed too
	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","method":"no/such/method"}`))
	assert.Equal(t, 0, len(outcome.Responses))
	assert.Assert(t, outcome.AllNotifications)

	// A literal null id counts as absent
	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	assert.Equal(t, 0, len(outcome.Responses))
	assert.Assert(t, outcome.AllNotifications)
}

func TestBatchOrdering(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	body := `[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":2,"method":"no/such/method"},
		{"jsonrpc":"2.0","id":3,"method":"ping"}
	]`

	outcome := dispatcher.Handle(nil, []byte(body))
	assert.Assert(t, outcome.Batch)
	assert.Assert(t, !outcome.AllNotifications)
	assert.Equal(t, 3, len(outcome.Responses))
	assert.Equal(t, "1", string(outcome.Responses[0].ID))
	assert.Equal(t, "2", string(outcome.Responses[1].ID))
	assert.Equal(t, mcp.CodeMethodNotFound, outcome.Responses[1].Error.Code)
	assert.Equal(t, "3", string(outcome.Responses[2].ID))
}

func TestEmptyBatch(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`[]`))
	assert.Assert(t, outcome.Batch)
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Equal(t, mcp.CodeInvalidRequest, outcome.Responses[0].Error.Code)
}

func TestNotificationOnlyBatch(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	body := `[
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","method":"ping"}
	]`

	outcome := dispatcher.Handle(nil, []byte(body))
	assert.Assert(t, outcome.Batch)
	assert.Assert(t, outcome.AllNotifications)
	assert.Equal(t, 0, len(outcome.Responses))
}

func TestToolsCallAuthorization(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"churches_create","arguments":{"input":{"path":"new-church","name":"New Church"}}}}`

	outcome := dispatcher.Handle(nil, []byte(body))
	assert.Equal(t, mcp.CodeForbidden, outcome.Responses[0].Error.Code)

	outcome = dispatcher.Handle(contributorIdentity, []byte(body))
	assert.Assert(t, outcome.Responses[0].Error == nil)

	created := outcome.Responses[0].Result.(map[string]any)
	assert.Equal(t, "New Church", created["name"])
}

func TestToolsCallList(t *testing.T) {
	dispatcher, directory := newTestDispatcher(t)

	for i := 0; i < 7; i++ {
		path := fmt.Sprintf("church-%d", i)
		name := fmt.Sprintf("Church %d", i)
		_, err := directory.CreateChurch(contributorIdentity, service.ChurchInput{Path: &path, Name: &name})
		assert.NilError(t, err)
	}

	deletePath := "church-0"
	row, err := directory.GetChurch(contributorIdentity, service.Selector{Path: deletePath}, false)
	assert.NilError(t, err)
	_, err = directory.DeleteChurch(contributorIdentity, service.Selector{ID: row["id"].(uint)}, row["updated_at"].(int64))
	assert.NilError(t, err)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"churches_list","arguments":{"limit":5}}}`))
	assert.Assert(t, outcome.Responses[0].Error == nil)

	result := outcome.Responses[0].Result.(map[string]any)
	items := result["items"].([]map[string]any)
	assert.Equal(t, 5, len(items))
	assert.Equal(t, int64(6), result["total"])

	for _, item := range items {
		_, hasEmail := item["contact_email"]
		assert.Assert(t, !hasEmail)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"churches_explode"}}`))
	assert.Equal(t, mcp.CodeInvalidParams, outcome.Responses[0].Error.Code)
}

func TestToolsCallUnknownArgument(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"churches_list","arguments":{"bogus":true}}}`))
	assert.Equal(t, mcp.CodeInvalidParams, outcome.Responses[0].Error.Code)
}

func TestToolsCallConflict(t *testing.T) {
	dispatcher, directory := newTestDispatcher(t)

	path := "conflicted-church"
	name := "Conflicted Church"
	created, err := directory.CreateChurch(contributorIdentity, service.ChurchInput{Path: &path, Name: &name})
	assert.NilError(t, err)

	token := created["updated_at"].(int64)

	update := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"churches_update","arguments":{"id":%d,"expected_updated_at":%d,"patch":{"name":"Renamed"}}}}`, created["id"].(uint), token)

	outcome := dispatcher.Handle(contributorIdentity, []byte(update))
	assert.Assert(t, outcome.Responses[0].Error == nil)

	// Same stale token again loses
	outcome = dispatcher.Handle(contributorIdentity, []byte(update))
	assert.Assert(t, outcome.Responses[0].Error != nil)
	assert.Equal(t, mcp.CodeConflict, outcome.Responses[0].Error.Code)
	assert.Assert(t, outcome.Responses[0].IsConflict())

	data := outcome.Responses[0].Error.Data.(map[string]any)
	assert.Equal(t, true, data["conflict"])
}

func TestResourcesList(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`))
	result := outcome.Responses[0].Result.(map[string]any)
	resources := result["resources"].([]map[string]any)
	assert.Equal(t, 3, len(resources))
	assert.Equal(t, "churches://list", resources[0]["uri"])

	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":2,"method":"resources/templates/list"}`))
	result = outcome.Responses[0].Result.(map[string]any)
	templates := result["resourceTemplates"].([]map[string]any)
	assert.Equal(t, 6, len(templates))
}

func readResourceText(t *testing.T, dispatcher *mcp.Dispatcher, identity *config.McpIdentity, uri string) string {
	t.Helper()

	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":%q}}`, uri)
	outcome := dispatcher.Handle(identity, []byte(body))
	assert.Equal(t, 1, len(outcome.Responses))
	assert.Assert(t, outcome.Responses[0].Error == nil, "resources/read failed: %v", outcome.Responses[0].Error)

	result := outcome.Responses[0].Result.(map[string]any)
	contents := result["contents"].([]map[string]any)
	assert.Equal(t, 1, len(contents))
	assert.Equal(t, uri, contents[0]["uri"])
	assert.Equal(t, "application/json", contents[0]["mimeType"])

	return contents[0]["text"].(string)
}

func TestResourcesRead(t *testing.T) {
	dispatcher, directory := newTestDispatcher(t)

	path := "resource-church"
	name := "Resource Church"
	created, err := directory.CreateChurch(contributorIdentity, service.ChurchInput{Path: &path, Name: &name})
	assert.NilError(t, err)

	text := readResourceText(t, dispatcher, nil, "churches://list?limit=10")
	var listing struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
	}
	assert.NilError(t, json.Unmarshal([]byte(text), &listing))
	assert.Equal(t, int64(1), listing.Total)

	byID := readResourceText(t, dispatcher, nil, fmt.Sprintf("churches://id/%d", created["id"].(uint)))
	byPath := readResourceText(t, dispatcher, nil, "churches://path/resource-church")

	var fromID map[string]any
	assert.NilError(t, json.Unmarshal([]byte(byID), &fromID))
	assert.Equal(t, "Resource Church", fromID["name"])

	var fromPath map[string]any
	assert.NilError(t, json.Unmarshal([]byte(byPath), &fromPath))
	assert.Equal(t, fromID["id"], fromPath["id"])
}

func TestResourcesReadIdempotent(t *testing.T) {
	dispatcher, directory := newTestDispatcher(t)

	path := "stable-church"
	name := "Stable Church"
	_, err := directory.CreateChurch(contributorIdentity, service.ChurchInput{Path: &path, Name: &name})
	assert.NilError(t, err)

	first := readResourceText(t, dispatcher, nil, "churches://path/stable-church")
	second := readResourceText(t, dispatcher, nil, "churches://path/stable-church")
	assert.Equal(t, first, second)
}

func TestResourcesReadErrors(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)

	outcome := dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"pastors://list"}}`))
	assert.Equal(t, mcp.CodeNotFound, outcome.Responses[0].Error.Code)

	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"churches://wat/1"}}`))
	assert.Equal(t, mcp.CodeInvalidParams, outcome.Responses[0].Error.Code)

	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{}}`))
	assert.Equal(t, mcp.CodeInvalidParams, outcome.Responses[0].Error.Code)

	outcome = dispatcher.Handle(nil, []byte(`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"churches://id/0"}}`))
	assert.Equal(t, mcp.CodeInvalidParams, outcome.Responses[0].Error.Code)
}
