package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/churchatlas/churchatlas/internal/apperrors"
	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/model"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ListLimitDefault = 50
	ListLimitMax     = 200
	ListOffsetMax    = 1_000_000_000
)

type ListParams struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

type ListResult struct {
	Items []map[string]any
	Total int64
}

// Selector identifies a single row by numeric id or path slug. When
// both are set, id wins.
type Selector struct {
	ID   uint
	Path string
}

func (s Selector) empty() bool {
	return s.ID == 0 && s.Path == ""
}

type DirectoryServiceConfig struct {
	Database *gorm.DB
}

// DirectoryService is the read/write access discipline over the three
// directory tables. It does not own their schema, only soft-delete
// filtering, role gates, field visibility and optimistic concurrency.
type DirectoryService struct {
	config   DirectoryServiceConfig
	validate *validator.Validate
}

func NewDirectoryService(config DirectoryServiceConfig) *DirectoryService {
	return &DirectoryService{
		config: config,
	}
}

func (ds *DirectoryService) Init() error {
	ds.validate = validator.New()
	return nil
}

// Inputs. The same struct serves create and patch; create additionally
// requires the fields checked in the per-kind create method. All
// pointers so a patch can distinguish "absent" from "set to zero".

type ChurchInput struct {
	Path          *string  `json:"path" validate:"omitempty,min=1,max=200,excludesall= /"`
	Name          *string  `json:"name" validate:"omitempty,min=1,max=300"`
	City          *string  `json:"city" validate:"omitempty,max=200"`
	Country       *string  `json:"country" validate:"omitempty,max=200"`
	Website       *string  `json:"website" validate:"omitempty,url"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	RegionID      *uint    `json:"region_id"`
	NetworkID     *uint    `json:"network_id"`
	ContactEmail  *string  `json:"contact_email" validate:"omitempty,email"`
	InternalNotes *string  `json:"internal_notes" validate:"omitempty,max=10000"`
}

type RegionInput struct {
	Path          *string `json:"path" validate:"omitempty,min=1,max=200,excludesall= /"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=300"`
	Country       *string `json:"country" validate:"omitempty,max=200"`
	InternalNotes *string `json:"internal_notes" validate:"omitempty,max=10000"`
}

type NetworkInput struct {
	Path          *string `json:"path" validate:"omitempty,min=1,max=200,excludesall= /"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=300"`
	Website       *string `json:"website" validate:"omitempty,url"`
	ContactEmail  *string `json:"contact_email" validate:"omitempty,email"`
	InternalNotes *string `json:"internal_notes" validate:"omitempty,max=10000"`
}

// Shared mechanics

func clampListParams(identity *config.McpIdentity, params ListParams) ListParams {
	if params.Limit < 1 {
		params.Limit = ListLimitDefault
	}
	if params.Limit > ListLimitMax {
		params.Limit = ListLimitMax
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Offset > ListOffsetMax {
		params.Offset = ListOffsetMax
	}
	// Deleted rows are admin-only; everyone else silently gets the
	// active view rather than an error.
	if !identity.IsAdmin() {
		params.IncludeDeleted = false
	}
	return params
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// nextUpdatedAt guarantees a successful write hands the caller a
// concurrency token different from the one it presented.
func nextUpdatedAt(current int64) int64 {
	next := nowMillis()
	if next <= current {
		next = current + 1
	}
	return next
}

func listRows[T any](db *gorm.DB, params ListParams) ([]T, int64, error) {
	scope := func() *gorm.DB {
		query := db.Model(new(T))
		if !params.IncludeDeleted {
			query = query.Where("deleted_at = 0")
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	err := scope().Order("id ASC").Limit(params.Limit).Offset(params.Offset).Find(&rows).Error

	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func findRow[T any](db *gorm.DB, selector Selector, includeDeleted bool) (*T, error) {
	query := db.Model(new(T))

	if selector.ID != 0 {
		query = query.Where("id = ?", selector.ID)
	} else {
		query = query.Where("path = ?", selector.Path)
	}

	if !includeDeleted {
		query = query.Where("deleted_at = 0")
	}

	var row T
	if err := query.First(&row).Error; err != nil {
		return nil, err
	}

	return &row, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// writtenView re-reads a row the caller just wrote and renders the
// privileged view, deleted or not. The writer is always authenticated,
// so the returned item carries the fresh concurrency token and the
// private fields.
func writtenView[T any](db *gorm.DB, id uint, render func(*T) map[string]any) (map[string]any, error) {
	row, err := findRow[T](db, Selector{ID: id}, true)
	if err != nil {
		return nil, err
	}
	return render(row), nil
}

// guardedUpdate applies columns to the row only if its concurrency
// token still matches. Zero rows affected after a successful read means
// a concurrent editor got there first.
func guardedUpdate[T any](db *gorm.DB, id uint, expectedUpdatedAt int64, columns map[string]any) error {
	res := db.Model(new(T)).
		Where("id = ? AND updated_at = ?", id, expectedUpdatedAt).
		Updates(columns)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected != 1 {
		return apperrors.Conflict("row was modified by another editor")
	}

	return nil
}

func pathTaken[T any](db *gorm.DB, path string, excludeID uint) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where("path = ? AND id != ?", path, excludeID).Count(&count).Error
	return count > 0, err
}

func (ds *DirectoryService) validateInput(input any) error {
	if err := ds.validate.Struct(input); err != nil {
		return apperrors.Validation(fmt.Sprintf("invalid input: %v", err))
	}
	return nil
}

// resolveWriteRow locates the row a write targets and applies the
// not-found policy: a row the caller cannot see (deleted, non-admin) is
// indistinguishable from a missing one.
func resolveWriteRow[T any](db *gorm.DB, identity *config.McpIdentity, selector Selector, includeDeleted bool) (*T, error) {
	if selector.empty() {
		return nil, apperrors.Validation("id or path is required")
	}

	row, err := findRow[T](db, selector, includeDeleted && identity.IsAdmin())

	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.WriteNotFound("no matching row")
		}
		return nil, err
	}

	return row, nil
}

// Churches

func churchView(c *model.Church, privileged bool) map[string]any {
	view := map[string]any{
		"id":         c.ID,
		"path":       c.Path,
		"name":       c.Name,
		"city":       c.City,
		"country":    c.Country,
		"website":    c.Website,
		"latitude":   c.Latitude,
		"longitude":  c.Longitude,
		"region_id":  c.RegionID,
		"network_id": c.NetworkID,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
	if privileged {
		view["contact_email"] = c.ContactEmail
		view["internal_notes"] = c.InternalNotes
		view["deleted_at"] = c.DeletedAt
	}
	return view
}

func (ds *DirectoryService) ListChurches(identity *config.McpIdentity, params ListParams) (*ListResult, error) {
	params = clampListParams(identity, params)

	rows, total, err := listRows[model.Church](ds.config.Database, params)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(rows))
	for i := range rows {
		items = append(items, churchView(&rows[i], identity.CanWrite()))
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (ds *DirectoryService) GetChurch(identity *config.McpIdentity, selector Selector, includeDeleted bool) (map[string]any, error) {
	if selector.empty() {
		return nil, apperrors.Validation("id or path is required")
	}

	row, err := findRow[model.Church](ds.config.Database, selector, includeDeleted && identity.IsAdmin())

	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("church not found")
		}
		return nil, err
	}

	return churchView(row, identity.CanWrite()), nil
}

func (ds *DirectoryService) CreateChurch(identity *config.McpIdentity, input ChurchInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if input.Path == nil || input.Name == nil {
		return nil, apperrors.Validation("path and name are required")
	}

	if err := ds.validateInput(input); err != nil {
		return nil, err
	}

	taken, err := pathTaken[model.Church](ds.config.Database, *input.Path, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Validation("path is already in use")
	}

	now := nowMillis()
	row := model.Church{
		Path:      *input.Path,
		Name:      *input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyChurchInput(&row, input)

	if err := ds.config.Database.Create(&row).Error; err != nil {
		return nil, err
	}

	return churchView(&row, true), nil
}

func (ds *DirectoryService) UpdateChurch(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64, patch ChurchInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if err := ds.validateInput(patch); err != nil {
		return nil, err
	}

	row, err := resolveWriteRow[model.Church](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	if patch.Path != nil && *patch.Path != row.Path {
		taken, err := pathTaken[model.Church](ds.config.Database, *patch.Path, row.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Validation("path is already in use")
		}
	}

	columns := churchPatchColumns(patch)
	columns["updated_at"] = nextUpdatedAt(row.UpdatedAt)

	if err := guardedUpdate[model.Church](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Church) map[string]any {
		return churchView(r, true)
	})
}

func (ds *DirectoryService) DeleteChurch(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	row, err := resolveWriteRow[model.Church](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": nowMillis(),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Church](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Church) map[string]any {
		return churchView(r, true)
	})
}

func (ds *DirectoryService) RestoreChurch(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.WriteForbidden("restore requires the admin role")
	}

	row, err := resolveWriteRow[model.Church](ds.config.Database, identity, selector, true)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": int64(0),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Church](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Church) map[string]any {
		return churchView(r, true)
	})
}

func applyChurchInput(row *model.Church, input ChurchInput) {
	if input.Path != nil {
		row.Path = *input.Path
	}
	if input.Name != nil {
		row.Name = *input.Name
	}
	if input.City != nil {
		row.City = *input.City
	}
	if input.Country != nil {
		row.Country = *input.Country
	}
	if input.Website != nil {
		row.Website = *input.Website
	}
	if input.Latitude != nil {
		row.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		row.Longitude = *input.Longitude
	}
	if input.RegionID != nil {
		row.RegionID = *input.RegionID
	}
	if input.NetworkID != nil {
		row.NetworkID = *input.NetworkID
	}
	if input.ContactEmail != nil {
		row.ContactEmail = *input.ContactEmail
	}
	if input.InternalNotes != nil {
		row.InternalNotes = *input.InternalNotes
	}
}

func churchPatchColumns(patch ChurchInput) map[string]any {
	columns := map[string]any{}
	if patch.Path != nil {
		columns["path"] = *patch.Path
	}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.City != nil {
		columns["city"] = *patch.City
	}
	if patch.Country != nil {
		columns["country"] = *patch.Country
	}
	if patch.Website != nil {
		columns["website"] = *patch.Website
	}
	if patch.Latitude != nil {
		columns["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		columns["longitude"] = *patch.Longitude
	}
	if patch.RegionID != nil {
		columns["region_id"] = *patch.RegionID
	}
	if patch.NetworkID != nil {
		columns["network_id"] = *patch.NetworkID
	}
	if patch.ContactEmail != nil {
		columns["contact_email"] = *patch.ContactEmail
	}
	if patch.InternalNotes != nil {
		columns["internal_notes"] = *patch.InternalNotes
	}
	return columns
}

// Regions

func regionView(r *model.Region, privileged bool) map[string]any {
	view := map[string]any{
		"id":         r.ID,
		"path":       r.Path,
		"name":       r.Name,
		"country":    r.Country,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
	if privileged {
		view["internal_notes"] = r.InternalNotes
		view["deleted_at"] = r.DeletedAt
	}
	return view
}

func (ds *DirectoryService) ListRegions(identity *config.McpIdentity, params ListParams) (*ListResult, error) {
	params = clampListParams(identity, params)

	rows, total, err := listRows[model.Region](ds.config.Database, params)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(rows))
	for i := range rows {
		items = append(items, regionView(&rows[i], identity.CanWrite()))
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (ds *DirectoryService) GetRegion(identity *config.McpIdentity, selector Selector, includeDeleted bool) (map[string]any, error) {
	if selector.empty() {
		return nil, apperrors.Validation("id or path is required")
	}

	row, err := findRow[model.Region](ds.config.Database, selector, includeDeleted && identity.IsAdmin())

	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("region not found")
		}
		return nil, err
	}

	return regionView(row, identity.CanWrite()), nil
}

func (ds *DirectoryService) CreateRegion(identity *config.McpIdentity, input RegionInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if input.Path == nil || input.Name == nil {
		return nil, apperrors.Validation("path and name are required")
	}

	if err := ds.validateInput(input); err != nil {
		return nil, err
	}

	taken, err := pathTaken[model.Region](ds.config.Database, *input.Path, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Validation("path is already in use")
	}

	now := nowMillis()
	row := model.Region{
		Path:      *input.Path,
		Name:      *input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Country != nil {
		row.Country = *input.Country
	}
	if input.InternalNotes != nil {
		row.InternalNotes = *input.InternalNotes
	}

	if err := ds.config.Database.Create(&row).Error; err != nil {
		return nil, err
	}

	return regionView(&row, true), nil
}

func (ds *DirectoryService) UpdateRegion(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64, patch RegionInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if err := ds.validateInput(patch); err != nil {
		return nil, err
	}

	row, err := resolveWriteRow[model.Region](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	if patch.Path != nil && *patch.Path != row.Path {
		taken, err := pathTaken[model.Region](ds.config.Database, *patch.Path, row.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Validation("path is already in use")
		}
	}

	columns := map[string]any{}
	if patch.Path != nil {
		columns["path"] = *patch.Path
	}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.Country != nil {
		columns["country"] = *patch.Country
	}
	if patch.InternalNotes != nil {
		columns["internal_notes"] = *patch.InternalNotes
	}
	columns["updated_at"] = nextUpdatedAt(row.UpdatedAt)

	if err := guardedUpdate[model.Region](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Region) map[string]any {
		return regionView(r, true)
	})
}

func (ds *DirectoryService) DeleteRegion(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	row, err := resolveWriteRow[model.Region](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": nowMillis(),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Region](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Region) map[string]any {
		return regionView(r, true)
	})
}

func (ds *DirectoryService) RestoreRegion(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.WriteForbidden("restore requires the admin role")
	}

	row, err := resolveWriteRow[model.Region](ds.config.Database, identity, selector, true)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": int64(0),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Region](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Region) map[string]any {
		return regionView(r, true)
	})
}

// Networks

func networkView(n *model.Network, privileged bool) map[string]any {
	view := map[string]any{
		"id":         n.ID,
		"path":       n.Path,
		"name":       n.Name,
		"website":    n.Website,
		"created_at": n.CreatedAt,
		"updated_at": n.UpdatedAt,
	}
	if privileged {
		view["contact_email"] = n.ContactEmail
		view["internal_notes"] = n.InternalNotes
		view["deleted_at"] = n.DeletedAt
	}
	return view
}

func (ds *DirectoryService) ListNetworks(identity *config.McpIdentity, params ListParams) (*ListResult, error) {
	params = clampListParams(identity, params)

	rows, total, err := listRows[model.Network](ds.config.Database, params)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(rows))
	for i := range rows {
		items = append(items, networkView(&rows[i], identity.CanWrite()))
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (ds *DirectoryService) GetNetwork(identity *config.McpIdentity, selector Selector, includeDeleted bool) (map[string]any, error) {
	if selector.empty() {
		return nil, apperrors.Validation("id or path is required")
	}

	row, err := findRow[model.Network](ds.config.Database, selector, includeDeleted && identity.IsAdmin())

	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("network not found")
		}
		return nil, err
	}

	return networkView(row, identity.CanWrite()), nil
}

func (ds *DirectoryService) CreateNetwork(identity *config.McpIdentity, input NetworkInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if input.Path == nil || input.Name == nil {
		return nil, apperrors.Validation("path and name are required")
	}

	if err := ds.validateInput(input); err != nil {
		return nil, err
	}

	taken, err := pathTaken[model.Network](ds.config.Database, *input.Path, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Validation("path is already in use")
	}

	now := nowMillis()
	row := model.Network{
		Path:      *input.Path,
		Name:      *input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Website != nil {
		row.Website = *input.Website
	}
	if input.ContactEmail != nil {
		row.ContactEmail = *input.ContactEmail
	}
	if input.InternalNotes != nil {
		row.InternalNotes = *input.InternalNotes
	}

	if err := ds.config.Database.Create(&row).Error; err != nil {
		return nil, err
	}

	return networkView(&row, true), nil
}

func (ds *DirectoryService) UpdateNetwork(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64, patch NetworkInput) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	if err := ds.validateInput(patch); err != nil {
		return nil, err
	}

	row, err := resolveWriteRow[model.Network](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	if patch.Path != nil && *patch.Path != row.Path {
		taken, err := pathTaken[model.Network](ds.config.Database, *patch.Path, row.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Validation("path is already in use")
		}
	}

	columns := map[string]any{}
	if patch.Path != nil {
		columns["path"] = *patch.Path
	}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.Website != nil {
		columns["website"] = *patch.Website
	}
	if patch.ContactEmail != nil {
		columns["contact_email"] = *patch.ContactEmail
	}
	if patch.InternalNotes != nil {
		columns["internal_notes"] = *patch.InternalNotes
	}
	columns["updated_at"] = nextUpdatedAt(row.UpdatedAt)

	if err := guardedUpdate[model.Network](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Network) map[string]any {
		return networkView(r, true)
	})
}

func (ds *DirectoryService) DeleteNetwork(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.CanWrite() {
		return nil, apperrors.WriteForbidden("authentication required")
	}

	row, err := resolveWriteRow[model.Network](ds.config.Database, identity, selector, false)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": nowMillis(),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Network](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Network) map[string]any {
		return networkView(r, true)
	})
}

func (ds *DirectoryService) RestoreNetwork(identity *config.McpIdentity, selector Selector, expectedUpdatedAt int64) (map[string]any, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.WriteForbidden("restore requires the admin role")
	}

	row, err := resolveWriteRow[model.Network](ds.config.Database, identity, selector, true)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"deleted_at": int64(0),
		"updated_at": nextUpdatedAt(row.UpdatedAt),
	}

	if err := guardedUpdate[model.Network](ds.config.Database, row.ID, expectedUpdatedAt, columns); err != nil {
		return nil, err
	}

	return writtenView(ds.config.Database, row.ID, func(r *model.Network) map[string]any {
		return networkView(r, true)
	})
}
