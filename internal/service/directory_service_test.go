package service_test

import (
	"testing"

	"github.com/churchatlas/churchatlas/internal/apperrors"
	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"

	"gorm.io/gorm"
	"gotest.tools/v3/assert"
)

var (
	adminIdentity       = &config.McpIdentity{SubjectID: "admin-user", Role: config.RoleAdmin}
	contributorIdentity = &config.McpIdentity{SubjectID: "contributor-user", Role: config.RoleContributor}
	anonymousIdentity   *config.McpIdentity
)

func newDirectoryService(t *testing.T, db *gorm.DB) *service.DirectoryService {
	t.Helper()

	directoryService := service.NewDirectoryService(service.DirectoryServiceConfig{
		Database: db,
	})

	err := directoryService.Init()
	assert.NilError(t, err)

	return directoryService
}

func strPtr(s string) *string {
	return &s
}

func seedChurch(t *testing.T, directory *service.DirectoryService, path string, name string) map[string]any {
	t.Helper()

	item, err := directory.CreateChurch(contributorIdentity, service.ChurchInput{
		Path:         strPtr(path),
		Name:         strPtr(name),
		City:         strPtr("Springfield"),
		ContactEmail: strPtr("office@example.com"),
	})
	assert.NilError(t, err)

	return item
}

func TestListChurchesVisibility(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	seedChurch(t, directory, "first-church", "First Church")
	deleted := seedChurch(t, directory, "second-church", "Second Church")

	_, err := directory.DeleteChurch(contributorIdentity, service.Selector{ID: deleted["id"].(uint)}, deleted["updated_at"].(int64))
	assert.NilError(t, err)

	result, err := directory.ListChurches(anonymousIdentity, service.ListParams{})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(result.Items))
	assert.Equal(t, int64(1), result.Total)

	// Anonymous readers never see private fields
	_, hasEmail := result.Items[0]["contact_email"]
	assert.Assert(t, !hasEmail)
	_, hasDeletedAt := result.Items[0]["deleted_at"]
	assert.Assert(t, !hasDeletedAt)

	// include_deleted is silently ignored below admin
	result, err = directory.ListChurches(contributorIdentity, service.ListParams{IncludeDeleted: true})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(result.Items))
	assert.Equal(t, "office@example.com", result.Items[0]["contact_email"])

	result, err = directory.ListChurches(adminIdentity, service.ListParams{IncludeDeleted: true})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(result.Items))
	assert.Equal(t, int64(2), result.Total)
}

func TestListChurchesPaging(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	seedChurch(t, directory, "church-a", "Church A")
	seedChurch(t, directory, "church-b", "Church B")
	seedChurch(t, directory, "church-c", "Church C")

	result, err := directory.ListChurches(anonymousIdentity, service.ListParams{Limit: 2, Offset: 1})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(result.Items))
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, "church-b", result.Items[0]["path"])
	assert.Equal(t, "church-c", result.Items[1]["path"])

	// Out-of-range values are clamped, not rejected
	result, err = directory.ListChurches(anonymousIdentity, service.ListParams{Limit: -5, Offset: -10})
	assert.NilError(t, err)
	assert.Equal(t, 3, len(result.Items))
}

func TestGetChurch(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created := seedChurch(t, directory, "grace-chapel", "Grace Chapel")
	id := created["id"].(uint)

	byID, err := directory.GetChurch(anonymousIdentity, service.Selector{ID: id}, false)
	assert.NilError(t, err)
	assert.Equal(t, "Grace Chapel", byID["name"])

	byPath, err := directory.GetChurch(anonymousIdentity, service.Selector{Path: "grace-chapel"}, false)
	assert.NilError(t, err)
	assert.Equal(t, byID["id"], byPath["id"])

	_, err = directory.GetChurch(anonymousIdentity, service.Selector{Path: "no-such-church"}, false)
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = directory.GetChurch(anonymousIdentity, service.Selector{}, false)
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestGetDeletedChurch(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created := seedChurch(t, directory, "closed-church", "Closed Church")
	id := created["id"].(uint)

	_, err := directory.DeleteChurch(contributorIdentity, service.Selector{ID: id}, created["updated_at"].(int64))
	assert.NilError(t, err)

	_, err = directory.GetChurch(anonymousIdentity, service.Selector{ID: id}, false)
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// include_deleted only works for admins
	_, err = directory.GetChurch(contributorIdentity, service.Selector{ID: id}, true)
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindNotFound))

	item, err := directory.GetChurch(adminIdentity, service.Selector{ID: id}, true)
	assert.NilError(t, err)
	assert.Assert(t, item["deleted_at"].(int64) > 0)
}

func TestCreateChurchValidation(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	_, err := directory.CreateChurch(anonymousIdentity, service.ChurchInput{
		Path: strPtr("some-church"),
		Name: strPtr("Some Church"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindWriteForbidden))

	_, err = directory.CreateChurch(contributorIdentity, service.ChurchInput{
		Path: strPtr("no-name-church"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = directory.CreateChurch(contributorIdentity, service.ChurchInput{
		Path:    strPtr("bad-website"),
		Name:    strPtr("Bad Website"),
		Website: strPtr("not a url"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindValidation))

	seedChurch(t, directory, "taken-path", "Original")

	_, err = directory.CreateChurch(contributorIdentity, service.ChurchInput{
		Path: strPtr("taken-path"),
		Name: strPtr("Duplicate"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateChurch(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created := seedChurch(t, directory, "update-me", "Old Name")
	id := created["id"].(uint)
	token := created["updated_at"].(int64)

	updated, err := directory.UpdateChurch(contributorIdentity, service.Selector{ID: id}, token, service.ChurchInput{
		Name: strPtr("New Name"),
	})
	assert.NilError(t, err)
	assert.Equal(t, "New Name", updated["name"])
	assert.Assert(t, updated["updated_at"].(int64) != token)

	// Untouched fields survive a partial patch
	assert.Equal(t, "Springfield", updated["city"])
}

func TestUpdateChurchStaleToken(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created := seedChurch(t, directory, "contested", "Contested Church")
	id := created["id"].(uint)
	token := created["updated_at"].(int64)

	_, err := directory.UpdateChurch(contributorIdentity, service.Selector{ID: id}, token, service.ChurchInput{
		Name: strPtr("Editor One"),
	})
	assert.NilError(t, err)

	_, err = directory.UpdateChurch(contributorIdentity, service.Selector{ID: id}, token, service.ChurchInput{
		Name: strPtr("Editor Two"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindConflict))

	// The losing write changed nothing
	current, err := directory.GetChurch(contributorIdentity, service.Selector{ID: id}, false)
	assert.NilError(t, err)
	assert.Equal(t, "Editor One", current["name"])
}

func TestDeleteAndRestoreChurch(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created := seedChurch(t, directory, "phoenix-church", "Phoenix Church")
	id := created["id"].(uint)

	deleted, err := directory.DeleteChurch(contributorIdentity, service.Selector{ID: id}, created["updated_at"].(int64))
	assert.NilError(t, err)
	assert.Assert(t, deleted["deleted_at"].(int64) > 0)

	// Deleting what is already gone reads as not found
	_, err = directory.DeleteChurch(contributorIdentity, service.Selector{ID: id}, deleted["updated_at"].(int64))
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindWriteNotFound))

	_, err = directory.RestoreChurch(contributorIdentity, service.Selector{ID: id}, deleted["updated_at"].(int64))
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindWriteForbidden))

	restored, err := directory.RestoreChurch(adminIdentity, service.Selector{ID: id}, deleted["updated_at"].(int64))
	assert.NilError(t, err)
	assert.Equal(t, int64(0), restored["deleted_at"])

	item, err := directory.GetChurch(anonymousIdentity, service.Selector{ID: id}, false)
	assert.NilError(t, err)
	assert.Equal(t, "Phoenix Church", item["name"])
}

func TestRegionLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created, err := directory.CreateRegion(contributorIdentity, service.RegionInput{
		Path:    strPtr("midwest"),
		Name:    strPtr("Midwest"),
		Country: strPtr("US"),
	})
	assert.NilError(t, err)

	id := created["id"].(uint)
	token := created["updated_at"].(int64)

	updated, err := directory.UpdateRegion(contributorIdentity, service.Selector{Path: "midwest"}, token, service.RegionInput{
		Name: strPtr("Upper Midwest"),
	})
	assert.NilError(t, err)
	assert.Equal(t, "Upper Midwest", updated["name"])

	deleted, err := directory.DeleteRegion(contributorIdentity, service.Selector{ID: id}, updated["updated_at"].(int64))
	assert.NilError(t, err)

	restored, err := directory.RestoreRegion(adminIdentity, service.Selector{ID: id}, deleted["updated_at"].(int64))
	assert.NilError(t, err)
	assert.Equal(t, int64(0), restored["deleted_at"])
}

func TestNetworkLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	directory := newDirectoryService(t, db)

	created, err := directory.CreateNetwork(contributorIdentity, service.NetworkInput{
		Path:         strPtr("acts29"),
		Name:         strPtr("Acts 29"),
		Website:      strPtr("https://example.org"),
		ContactEmail: strPtr("network@example.org"),
	})
	assert.NilError(t, err)

	id := created["id"].(uint)

	item, err := directory.GetNetwork(anonymousIdentity, service.Selector{Path: "acts29"}, false)
	assert.NilError(t, err)
	assert.Equal(t, "Acts 29", item["name"])
	_, hasEmail := item["contact_email"]
	assert.Assert(t, !hasEmail)

	_, err = directory.UpdateNetwork(anonymousIdentity, service.Selector{ID: id}, created["updated_at"].(int64), service.NetworkInput{
		Name: strPtr("Renamed"),
	})
	assert.Assert(t, apperrors.IsKind(err, apperrors.KindWriteForbidden))
}
