package schema

import (
	"encoding/json"
	"time"
)

// ObjectCategory groups objects in the builder.
type ObjectCategory string

const (
	ObjectCategoryStandard ObjectCategory = "standard"
	ObjectCategoryCustom   ObjectCategory = "custom"
	ObjectCategorySystem   ObjectCategory = "system"
)

// RelationshipType is the cardinality of a relationship.
type RelationshipType string

const (
	OneToMany  RelationshipType = "one_to_many"
	ManyToMany RelationshipType = "many_to_many"
)

// Valid reports whether t is a known cardinality.
func (t RelationshipType) Valid() bool {
	return t == OneToMany || t == ManyToMany
}

// Field is a reusable data-type definition, independent of any object.
// Name and Type are immutable once created.
type Field struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Label         string    `json:"label"`
	Type          FieldType `json:"type"`
	Category      string    `json:"category,omitempty"`
	Description   string    `json:"description,omitempty"`
	IsSystemField bool      `json:"is_system_field"`
	IsGlobal      bool      `json:"is_global"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Protected reports whether the field is read-only in the builder.
func (f Field) Protected() bool { return f.IsSystemField }

type FieldCreate struct {
	Name        string    `json:"name" binding:"required"`
	Label       string    `json:"label" binding:"required"`
	Type        FieldType `json:"type" binding:"required"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	IsGlobal    bool      `json:"is_global"`
}

// FieldUpdate carries only the mutable attributes of a field.
type FieldUpdate struct {
	Label       *string `json:"label,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	IsGlobal    *bool   `json:"is_global,omitempty"`
}

// Object is a user-defined entity type, analogous to a table definition.
type Object struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Label          string         `json:"label"`
	PluralName     string         `json:"plural_name"`
	Category       ObjectCategory `json:"category"`
	Description    string         `json:"description,omitempty"`
	Icon           string         `json:"icon,omitempty"`
	Color          string         `json:"color,omitempty"`
	IsSystemObject bool           `json:"is_system_object"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Protected reports whether the object is read-only in the builder.
func (o Object) Protected() bool { return o.IsSystemObject }

type ObjectCreate struct {
	Name        string         `json:"name" binding:"required"`
	Label       string         `json:"label" binding:"required"`
	PluralName  string         `json:"plural_name" binding:"required"`
	Category    ObjectCategory `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Color       string         `json:"color,omitempty"`
}

type ObjectUpdate struct {
	Label       *string         `json:"label,omitempty"`
	PluralName  *string         `json:"plural_name,omitempty"`
	Category    *ObjectCategory `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	Icon        *string         `json:"icon,omitempty"`
	Color       *string         `json:"color,omitempty"`
}

// ValidationRules are per-object validation parameters for an attached field.
type ValidationRules struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	MinItems  *int     `json:"min_items,omitempty"`
	MaxItems  *int     `json:"max_items,omitempty"`
}

// FieldOverrides supply or override type-specific parameters that the base
// Field does not carry.
type FieldOverrides struct {
	Validation   *ValidationRules `json:"validation,omitempty"`
	DefaultValue any              `json:"default_value,omitempty"`
	Options      []string         `json:"options,omitempty"`
	Placeholder  string           `json:"placeholder,omitempty"`
}

// ObjectField attaches a Field to an Object. At most one attachment exists
// per (ObjectID, FieldID) pair. DisplayOrder is a sort key, not a dense index.
type ObjectField struct {
	ID             string         `json:"id"`
	ObjectID       string         `json:"object_id"`
	FieldID        string         `json:"field_id"`
	IsRequired     bool           `json:"is_required"`
	IsVisible      bool           `json:"is_visible"`
	IsReadonly     bool           `json:"is_readonly"`
	IsPrimary      bool           `json:"is_primary"`
	DisplayOrder   int            `json:"display_order"`
	FieldOverrides FieldOverrides `json:"field_overrides"`
	Field          *Field         `json:"field,omitempty"`
}

type ObjectFieldCreate struct {
	ObjectID       string          `json:"object_id" binding:"required"`
	FieldID        string          `json:"field_id" binding:"required"`
	IsRequired     bool            `json:"is_required"`
	IsVisible      bool            `json:"is_visible"`
	IsReadonly     bool            `json:"is_readonly"`
	IsPrimary      bool            `json:"is_primary"`
	DisplayOrder   int             `json:"display_order"`
	FieldOverrides *FieldOverrides `json:"field_overrides,omitempty"`
}

type ObjectFieldUpdate struct {
	IsRequired     *bool           `json:"is_required,omitempty"`
	IsVisible      *bool           `json:"is_visible,omitempty"`
	IsReadonly     *bool           `json:"is_readonly,omitempty"`
	IsPrimary      *bool           `json:"is_primary,omitempty"`
	DisplayOrder   *int            `json:"display_order,omitempty"`
	FieldOverrides *FieldOverrides `json:"field_overrides,omitempty"`
}

// OrderUpdate is one entry of a bulk display-order update.
type OrderUpdate struct {
	ID           string `json:"id" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

// DataRecord is one row of data for an object. Data is keyed by field id.
type DataRecord struct {
	ID        string         `json:"id"`
	ObjectID  string         `json:"object_id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy string         `json:"created_by,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RecordCreate struct {
	ObjectID string         `json:"object_id" binding:"required"`
	Data     map[string]any `json:"data" binding:"required"`
}

// RecordSearch is the body of a record search request.
type RecordSearch struct {
	ObjectID string `json:"object_id" binding:"required"`
	Query    string `json:"query"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Relationship is a declared association between two distinct objects.
type Relationship struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	FromObjectID string           `json:"from_object_id"`
	ToObjectID   string           `json:"to_object_id"`
	Type         RelationshipType `json:"type"`
	FromLabel    string           `json:"from_label"`
	ToLabel      string           `json:"to_label"`
	Description  string           `json:"description,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type RelationshipCreate struct {
	Name         string           `json:"name" binding:"required"`
	FromObjectID string           `json:"from_object_id" binding:"required"`
	ToObjectID   string           `json:"to_object_id" binding:"required"`
	Type         RelationshipType `json:"type" binding:"required"`
	FromLabel    string           `json:"from_label" binding:"required"`
	ToLabel      string           `json:"to_label" binding:"required"`
	Description  string           `json:"description,omitempty"`
}

type RelationshipUpdate struct {
	FromLabel   *string `json:"from_label,omitempty"`
	ToLabel     *string `json:"to_label,omitempty"`
	Description *string `json:"description,omitempty"`
}

// RelationshipRecord links two concrete records under a relationship.
type RelationshipRecord struct {
	ID                   string         `json:"id"`
	RelationshipID       string         `json:"relationship_id"`
	FromRecordID         string         `json:"from_record_id"`
	ToRecordID           string         `json:"to_record_id"`
	RelationshipMetadata map[string]any `json:"relationship_metadata,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

type LinkCreate struct {
	FromRecordID         string         `json:"from_record_id" binding:"required"`
	ToRecordID           string         `json:"to_record_id" binding:"required"`
	RelationshipMetadata map[string]any `json:"relationship_metadata,omitempty"`
}

// Application bundles objects and presentation config into a runtime app.
// A nil PublishedAt means the application is a draft.
type Application struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	PublishedAt *time.Time      `json:"published_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Published reports whether the application left the draft state.
func (a Application) Published() bool {
	return a.PublishedAt != nil
}

type ApplicationCreate struct {
	Name        string          `json:"name" binding:"required"`
	Label       string          `json:"label" binding:"required"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

type ApplicationUpdate struct {
	Label       *string         `json:"label,omitempty"`
	Description *string         `json:"description,omitempty"`
	Icon        *string         `json:"icon,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}
