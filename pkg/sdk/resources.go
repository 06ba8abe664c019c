package sdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

const (
	fieldsPath        = "/api/fields"
	objectsPath       = "/api/objects"
	objectFieldsPath  = "/api/object-fields"
	recordsPath       = "/api/records"
	relationshipsPath = "/api/relationships"
	applicationsPath  = "/api/applications"
)

// --- Fields ---

type FieldsService struct{ c *Client }

func (s *FieldsService) List(ctx context.Context, f FieldFilter) ([]schema.Field, error) {
	var out []schema.Field
	err := s.c.do(ctx, http.MethodGet, fieldsPath, f.values(), nil, &out)
	return out, err
}

func (s *FieldsService) Get(ctx context.Context, id string) (schema.Field, error) {
	var out schema.Field
	err := s.c.do(ctx, http.MethodGet, itemPath(fieldsPath, id), nil, nil, &out)
	return out, err
}

func (s *FieldsService) Create(ctx context.Context, in schema.FieldCreate) (schema.Field, error) {
	var out schema.Field
	err := s.c.do(ctx, http.MethodPost, fieldsPath, nil, in, &out)
	return out, err
}

func (s *FieldsService) Update(ctx context.Context, id string, in schema.FieldUpdate) (schema.Field, error) {
	var out schema.Field
	err := s.c.do(ctx, http.MethodPatch, itemPath(fieldsPath, id), nil, in, &out)
	return out, err
}

func (s *FieldsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(fieldsPath, id), nil, nil, nil)
}

// --- Objects ---

type ObjectsService struct{ c *Client }

func (s *ObjectsService) List(ctx context.Context, f ObjectFilter) ([]schema.Object, error) {
	var out []schema.Object
	err := s.c.do(ctx, http.MethodGet, objectsPath, f.values(), nil, &out)
	return out, err
}

func (s *ObjectsService) Get(ctx context.Context, id string) (schema.Object, error) {
	var out schema.Object
	err := s.c.do(ctx, http.MethodGet, itemPath(objectsPath, id), nil, nil, &out)
	return out, err
}

func (s *ObjectsService) Create(ctx context.Context, in schema.ObjectCreate) (schema.Object, error) {
	var out schema.Object
	err := s.c.do(ctx, http.MethodPost, objectsPath, nil, in, &out)
	return out, err
}

func (s *ObjectsService) Update(ctx context.Context, id string, in schema.ObjectUpdate) (schema.Object, error) {
	var out schema.Object
	err := s.c.do(ctx, http.MethodPatch, itemPath(objectsPath, id), nil, in, &out)
	return out, err
}

// Delete removes the object. The backend cascades to its records,
// attachments and relationships.
func (s *ObjectsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(objectsPath, id), nil, nil, nil)
}

// --- Object fields ---

type ObjectFieldsService struct{ c *Client }

func (s *ObjectFieldsService) List(ctx context.Context, objectID string) ([]schema.ObjectField, error) {
	var out []schema.ObjectField
	q := url.Values{"object_id": {objectID}}
	err := s.c.do(ctx, http.MethodGet, objectFieldsPath, q, nil, &out)
	return out, err
}

func (s *ObjectFieldsService) Create(ctx context.Context, in schema.ObjectFieldCreate) (schema.ObjectField, error) {
	var out schema.ObjectField
	err := s.c.do(ctx, http.MethodPost, objectFieldsPath, nil, in, &out)
	return out, err
}

func (s *ObjectFieldsService) Update(ctx context.Context, id string, in schema.ObjectFieldUpdate) (schema.ObjectField, error) {
	var out schema.ObjectField
	err := s.c.do(ctx, http.MethodPatch, itemPath(objectFieldsPath, id), nil, in, &out)
	return out, err
}

func (s *ObjectFieldsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(objectFieldsPath, id), nil, nil, nil)
}

func (s *ObjectFieldsService) BulkUpdateOrder(ctx context.Context, updates []schema.OrderUpdate) error {
	body := struct {
		Updates []schema.OrderUpdate `json:"updates"`
	}{Updates: updates}
	return s.c.do(ctx, http.MethodPost, objectFieldsPath+"/bulk-order", nil, body, nil)
}

// --- Records ---

type RecordsService struct{ c *Client }

func (s *RecordsService) List(ctx context.Context, f RecordFilter) ([]schema.DataRecord, error) {
	var out []schema.DataRecord
	err := s.c.do(ctx, http.MethodGet, recordsPath, f.values(), nil, &out)
	return out, err
}

func (s *RecordsService) Get(ctx context.Context, id string) (schema.DataRecord, error) {
	var out schema.DataRecord
	err := s.c.do(ctx, http.MethodGet, itemPath(recordsPath, id), nil, nil, &out)
	return out, err
}

func (s *RecordsService) Create(ctx context.Context, objectID string, data map[string]any) (schema.DataRecord, error) {
	var out schema.DataRecord
	err := s.c.do(ctx, http.MethodPost, recordsPath, nil, schema.RecordCreate{ObjectID: objectID, Data: data}, &out)
	return out, err
}

// Update sends only the given keys. Keys left out are untouched on the server.
func (s *RecordsService) Update(ctx context.Context, id string, data map[string]any) (schema.DataRecord, error) {
	var out schema.DataRecord
	body := struct {
		Data map[string]any `json:"data"`
	}{Data: data}
	err := s.c.do(ctx, http.MethodPatch, itemPath(recordsPath, id), nil, body, &out)
	return out, err
}

func (s *RecordsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(recordsPath, id), nil, nil, nil)
}

func (s *RecordsService) Search(ctx context.Context, q schema.RecordSearch) ([]schema.DataRecord, error) {
	var out []schema.DataRecord
	err := s.c.do(ctx, http.MethodPost, recordsPath+"/search", nil, q, &out)
	return out, err
}

// --- Relationships ---

type RelationshipsService struct{ c *Client }

func (s *RelationshipsService) List(ctx context.Context, f RelationshipFilter) ([]schema.Relationship, error) {
	var out []schema.Relationship
	err := s.c.do(ctx, http.MethodGet, relationshipsPath, f.values(), nil, &out)
	return out, err
}

func (s *RelationshipsService) Get(ctx context.Context, id string) (schema.Relationship, error) {
	var out schema.Relationship
	err := s.c.do(ctx, http.MethodGet, itemPath(relationshipsPath, id), nil, nil, &out)
	return out, err
}

func (s *RelationshipsService) Create(ctx context.Context, in schema.RelationshipCreate) (schema.Relationship, error) {
	var out schema.Relationship
	err := s.c.do(ctx, http.MethodPost, relationshipsPath, nil, in, &out)
	return out, err
}

func (s *RelationshipsService) Update(ctx context.Context, id string, in schema.RelationshipUpdate) (schema.Relationship, error) {
	var out schema.Relationship
	err := s.c.do(ctx, http.MethodPatch, itemPath(relationshipsPath, id), nil, in, &out)
	return out, err
}

func (s *RelationshipsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(relationshipsPath, id), nil, nil, nil)
}

func (s *RelationshipsService) Links(ctx context.Context, relationshipID, recordID string) ([]schema.RelationshipRecord, error) {
	var out []schema.RelationshipRecord
	var q url.Values
	if recordID != "" {
		q = url.Values{"record_id": {recordID}}
	}
	err := s.c.do(ctx, http.MethodGet, itemPath(relationshipsPath, relationshipID)+"/records", q, nil, &out)
	return out, err
}

func (s *RelationshipsService) Link(ctx context.Context, relationshipID string, in schema.LinkCreate) (schema.RelationshipRecord, error) {
	var out schema.RelationshipRecord
	err := s.c.do(ctx, http.MethodPost, itemPath(relationshipsPath, relationshipID)+"/records", nil, in, &out)
	return out, err
}

// Unlink removes the link only; both records survive.
func (s *RelationshipsService) Unlink(ctx context.Context, relationshipID, linkID string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(itemPath(relationshipsPath, relationshipID)+"/records", linkID), nil, nil, nil)
}

// --- Applications ---

type ApplicationsService struct{ c *Client }

func (s *ApplicationsService) List(ctx context.Context, opts ListOptions) ([]schema.Application, error) {
	var out []schema.Application
	err := s.c.do(ctx, http.MethodGet, applicationsPath, opts.values(), nil, &out)
	return out, err
}

func (s *ApplicationsService) Get(ctx context.Context, id string) (schema.Application, error) {
	var out schema.Application
	err := s.c.do(ctx, http.MethodGet, itemPath(applicationsPath, id), nil, nil, &out)
	return out, err
}

func (s *ApplicationsService) Create(ctx context.Context, in schema.ApplicationCreate) (schema.Application, error) {
	var out schema.Application
	err := s.c.do(ctx, http.MethodPost, applicationsPath, nil, in, &out)
	return out, err
}

func (s *ApplicationsService) Update(ctx context.Context, id string, in schema.ApplicationUpdate) (schema.Application, error) {
	var out schema.Application
	err := s.c.do(ctx, http.MethodPatch, itemPath(applicationsPath, id), nil, in, &out)
	return out, err
}

func (s *ApplicationsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, itemPath(applicationsPath, id), nil, nil, nil)
}

// Publish moves a draft to published. There is no way back.
func (s *ApplicationsService) Publish(ctx context.Context, id string) (schema.Application, error) {
	var out schema.Application
	err := s.c.do(ctx, http.MethodPost, itemPath(applicationsPath, id)+"/publish", nil, nil, &out)
	return out, err
}
