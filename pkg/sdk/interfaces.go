package sdk

import (
	"context"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// ErrNoSession is returned by a TokenStore that holds no session.
var ErrNoSession = schema.ErrNoSession

// --- Session storage ---

// TokenStore is where the bearer token lives between requests.
type TokenStore interface {
	Load() (schema.Session, error)
	Save(schema.Session) error
	Clear() error
}

// --- Query parameters ---

// ListOptions are the pagination parameters shared by list endpoints.
type ListOptions struct {
	Page     int
	PageSize int
}

type FieldFilter struct {
	ListOptions
	Category      string
	IsSystemField *bool
}

type ObjectFilter struct {
	ListOptions
	Category schema.ObjectCategory
}

type RecordFilter struct {
	ListOptions
	ObjectID string
}

type RelationshipFilter struct {
	ListOptions
	ObjectID string
}

// --- Functional Interfaces (one per resource) ---

// AuthAPI covers login, registration and the current user.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (schema.Token, error)
	Register(ctx context.Context, reg schema.Registration) (schema.User, error)
	Me(ctx context.Context) (schema.User, error)
	Logout() error
}

// FieldsAPI manages the reusable field catalogue.
type FieldsAPI interface {
	List(ctx context.Context, f FieldFilter) ([]schema.Field, error)
	Get(ctx context.Context, id string) (schema.Field, error)
	Create(ctx context.Context, in schema.FieldCreate) (schema.Field, error)
	Update(ctx context.Context, id string, in schema.FieldUpdate) (schema.Field, error)
	Delete(ctx context.Context, id string) error
}

// ObjectsAPI manages object definitions.
type ObjectsAPI interface {
	List(ctx context.Context, f ObjectFilter) ([]schema.Object, error)
	Get(ctx context.Context, id string) (schema.Object, error)
	Create(ctx context.Context, in schema.ObjectCreate) (schema.Object, error)
	Update(ctx context.Context, id string, in schema.ObjectUpdate) (schema.Object, error)
	Delete(ctx context.Context, id string) error
}

// ObjectFieldsAPI manages field attachments on objects.
type ObjectFieldsAPI interface {
	List(ctx context.Context, objectID string) ([]schema.ObjectField, error)
	Create(ctx context.Context, in schema.ObjectFieldCreate) (schema.ObjectField, error)
	Update(ctx context.Context, id string, in schema.ObjectFieldUpdate) (schema.ObjectField, error)
	Delete(ctx context.Context, id string) error
	BulkUpdateOrder(ctx context.Context, updates []schema.OrderUpdate) error
}

// RecordsAPI manages data records.
type RecordsAPI interface {
	List(ctx context.Context, f RecordFilter) ([]schema.DataRecord, error)
	Get(ctx context.Context, id string) (schema.DataRecord, error)
	Create(ctx context.Context, objectID string, data map[string]any) (schema.DataRecord, error)
	// Update merges data into the stored record server-side.
	Update(ctx context.Context, id string, data map[string]any) (schema.DataRecord, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q schema.RecordSearch) ([]schema.DataRecord, error)
}

// RelationshipsAPI manages relationships and their link instances.
type RelationshipsAPI interface {
	List(ctx context.Context, f RelationshipFilter) ([]schema.Relationship, error)
	Get(ctx context.Context, id string) (schema.Relationship, error)
	Create(ctx context.Context, in schema.RelationshipCreate) (schema.Relationship, error)
	Update(ctx context.Context, id string, in schema.RelationshipUpdate) (schema.Relationship, error)
	Delete(ctx context.Context, id string) error

	Links(ctx context.Context, relationshipID, recordID string) ([]schema.RelationshipRecord, error)
	Link(ctx context.Context, relationshipID string, in schema.LinkCreate) (schema.RelationshipRecord, error)
	Unlink(ctx context.Context, relationshipID, linkID string) error
}

// ApplicationsAPI manages applications and their publish lifecycle.
type ApplicationsAPI interface {
	List(ctx context.Context, opts ListOptions) ([]schema.Application, error)
	Get(ctx context.Context, id string) (schema.Application, error)
	Create(ctx context.Context, in schema.ApplicationCreate) (schema.Application, error)
	Update(ctx context.Context, id string, in schema.ApplicationUpdate) (schema.Application, error)
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (schema.Application, error)
}

// --- Composite Interface ---

// Backend is the full API surface. *Client implements it.
type Backend interface {
	Auth() AuthAPI
	Fields() FieldsAPI
	Objects() ObjectsAPI
	ObjectFields() ObjectFieldsAPI
	Records() RecordsAPI
	Relationships() RelationshipsAPI
	Applications() ApplicationsAPI
}
