// Package devserver is an in-memory stand-in for the builder REST backend.
// It exists so the client, the engines and the seed tool can be exercised
// end to end; it is not a storage implementation.
package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// Error carries the HTTP status and detail a handler should answer with.
// Field is set for validation failures and becomes the last loc element.
type Error struct {
	Status int
	Detail string
	Field  string
}

func (e *Error) Error() string { return e.Detail }

func notFound(kind, id string) error {
	return &Error{Status: http.StatusNotFound, Detail: fmt.Sprintf("%s %s not found", kind, id)}
}

func conflict(status int, format string, args ...any) error {
	return &Error{Status: status, Detail: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &Error{Status: http.StatusForbidden, Detail: fmt.Sprintf(format, args...)}
}

func invalid(field, format string, args ...any) error {
	return &Error{Status: http.StatusUnprocessableEntity, Detail: fmt.Sprintf(format, args...), Field: field}
}

var identifierPattern = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*$`)

// table keeps rows in insertion order.
type table[T any] struct {
	rows  map[string]*T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) put(id string, v *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (*T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) remove(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// each visits rows in insertion order. Returning false stops the walk.
func (t *table[T]) each(fn func(*T) bool) {
	for _, id := range t.order {
		if !fn(t.rows[id]) {
			return
		}
	}
}

type account struct {
	user     schema.User
	password string // sha256 hex
}

type tokenGrant struct {
	userID    string
	expiresAt time.Time
}

// Store is the thread-safe in-memory backend state.
type Store struct {
	mu sync.RWMutex

	accounts map[string]*account // by email
	tokens   map[string]tokenGrant
	tokenTTL time.Duration

	fields        *table[schema.Field]
	objects       *table[schema.Object]
	objectFields  *table[schema.ObjectField]
	records       *table[schema.DataRecord]
	relationships *table[schema.Relationship]
	links         *table[schema.RelationshipRecord]
	apps          *table[schema.Application]

	now func() time.Time
}

// NewStore initializes an empty backend.
func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]*account),
		tokens:        make(map[string]tokenGrant),
		tokenTTL:      time.Hour,
		fields:        newTable[schema.Field](),
		objects:       newTable[schema.Object](),
		objectFields:  newTable[schema.ObjectField](),
		records:       newTable[schema.DataRecord](),
		relationships: newTable[schema.Relationship](),
		links:         newTable[schema.RelationshipRecord](),
		apps:          newTable[schema.Application](),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Store) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	s.tokenTTL = d
	s.mu.Unlock()
}

func newID() string {
	return uuid.NewString()
}

func hashPassword(p string) string {
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:])
}

// SeedSystemCatalog adds the protected entities a fresh backend ships with.
func (s *Store) SeedSystemCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	f := &schema.Field{ID: newID(), Name: "record_owner", Label: "Record Owner", Type: schema.FieldTypeLookup,
		Category: "system", IsSystemField: true, IsGlobal: true, CreatedAt: now, UpdatedAt: now}
	s.fields.put(f.ID, f)

	o := &schema.Object{ID: newID(), Name: "user", Label: "User", PluralName: "Users",
		Category: schema.ObjectCategorySystem, IsSystemObject: true, CreatedAt: now, UpdatedAt: now}
	s.objects.put(o.ID, o)
}

// --- Auth ---

func (s *Store) Register(reg schema.Registration) (schema.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(reg.Email)
	if _, ok := s.accounts[email]; ok {
		return schema.User{}, conflict(http.StatusBadRequest, "Email already registered")
	}
	u := schema.User{ID: newID(), Email: email, FullName: reg.FullName, IsActive: true, CreatedAt: s.now()}
	s.accounts[email] = &account{user: u, password: hashPassword(reg.Password)}
	return u, nil
}

// Login checks credentials and issues a token shaped like a JWT.
func (s *Store) Login(username, password string) (schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[strings.ToLower(username)]
	if !ok || acc.password != hashPassword(password) {
		return schema.Token{}, &Error{Status: http.StatusUnauthorized, Detail: "Incorrect username or password"}
	}
	tok := issueToken(acc.user.ID)
	s.tokens[tok] = tokenGrant{userID: acc.user.ID, expiresAt: s.now().Add(s.tokenTTL)}
	return schema.Token{AccessToken: tok, TokenType: "bearer", ExpiresIn: int(s.tokenTTL.Seconds())}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Store) Authenticate(token string) (schema.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, ok := s.tokens[token]
	if !ok || !s.now().Before(grant.expiresAt) {
		return schema.User{}, false
	}
	for _, acc := range s.accounts {
		if acc.user.ID == grant.userID {
			return acc.user, true
		}
	}
	return schema.User{}, false
}

// RevokeAll drops every issued token.
func (s *Store) RevokeAll() {
	s.mu.Lock()
	s.tokens = make(map[string]tokenGrant)
	s.mu.Unlock()
}

// --- Fields ---

func (s *Store) ListFields(category string, system *bool) []schema.Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.Field{}
	s.fields.each(func(f *schema.Field) bool {
		if category != "" && f.Category != category {
			return true
		}
		if system != nil && f.IsSystemField != *system {
			return true
		}
		out = append(out, *f)
		return true
	})
	return out
}

func (s *Store) GetField(id string) (schema.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields.get(id)
	if !ok {
		return schema.Field{}, notFound("field", id)
	}
	return *f, nil
}

func (s *Store) CreateField(in schema.FieldCreate) (schema.Field, error) {
	if !identifierPattern.MatchString(in.Name) {
		return schema.Field{}, invalid("name", "name must start with a letter or underscore and contain only letters, digits and underscores")
	}
	if !in.Type.Valid() {
		return schema.Field{}, invalid("type", "unsupported field type %q", in.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup := false
	s.fields.each(func(f *schema.Field) bool {
		dup = strings.EqualFold(f.Name, in.Name)
		return !dup
	})
	if dup {
		return schema.Field{}, conflict(http.StatusBadRequest, "Field with name %q already exists", in.Name)
	}

	now := s.now()
	f := &schema.Field{ID: newID(), Name: in.Name, Label: in.Label, Type: in.Type, Category: in.Category,
		Description: in.Description, IsGlobal: in.IsGlobal, CreatedAt: now, UpdatedAt: now}
	s.fields.put(f.ID, f)
	return *f, nil
}

func (s *Store) UpdateField(id string, in schema.FieldUpdate) (schema.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fields.get(id)
	if !ok {
		return schema.Field{}, notFound("field", id)
	}
	if f.IsSystemField {
		return schema.Field{}, forbidden("system field %s cannot be modified", f.Name)
	}
	if in.Label != nil {
		f.Label = *in.Label
	}
	if in.Category != nil {
		f.Category = *in.Category
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.IsGlobal != nil {
		f.IsGlobal = *in.IsGlobal
	}
	f.UpdatedAt = s.now()
	return *f, nil
}

// DeleteField removes a field and every attachment that references it.
func (s *Store) DeleteField(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fields.get(id)
	if !ok {
		return notFound("field", id)
	}
	if f.IsSystemField {
		return forbidden("system field %s cannot be deleted", f.Name)
	}
	var doomed []string
	s.objectFields.each(func(of *schema.ObjectField) bool {
		if of.FieldID == id {
			doomed = append(doomed, of.ID)
		}
		return true
	})
	for _, ofID := range doomed {
		s.objectFields.remove(ofID)
	}
	s.fields.remove(id)
	return nil
}

// --- Objects ---

func (s *Store) ListObjects(category string) []schema.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.Object{}
	s.objects.each(func(o *schema.Object) bool {
		if category == "" || string(o.Category) == category {
			out = append(out, *o)
		}
		return true
	})
	return out
}

func (s *Store) GetObject(id string) (schema.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects.get(id)
	if !ok {
		return schema.Object{}, notFound("object", id)
	}
	return *o, nil
}

func (s *Store) CreateObject(in schema.ObjectCreate) (schema.Object, error) {
	if !identifierPattern.MatchString(in.Name) {
		return schema.Object{}, invalid("name", "name must start with a letter or underscore and contain only letters, digits and underscores")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup := false
	s.objects.each(func(o *schema.Object) bool {
		dup = strings.EqualFold(o.Name, in.Name)
		return !dup
	})
	if dup {
		return schema.Object{}, conflict(http.StatusConflict, "Object with name %q already exists", in.Name)
	}

	category := in.Category
	if category == "" {
		category = schema.ObjectCategoryCustom
	}
	now := s.now()
	o := &schema.Object{ID: newID(), Name: in.Name, Label: in.Label, PluralName: in.PluralName, Category: category,
		Description: in.Description, Icon: in.Icon, Color: in.Color, CreatedAt: now, UpdatedAt: now}
	s.objects.put(o.ID, o)
	return *o, nil
}

func (s *Store) UpdateObject(id string, in schema.ObjectUpdate) (schema.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects.get(id)
	if !ok {
		return schema.Object{}, notFound("object", id)
	}
	if o.IsSystemObject {
		return schema.Object{}, forbidden("system object %s cannot be modified", o.Name)
	}
	if in.Label != nil {
		o.Label = *in.Label
	}
	if in.PluralName != nil {
		o.PluralName = *in.PluralName
	}
	if in.Category != nil {
		o.Category = *in.Category
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Icon != nil {
		o.Icon = *in.Icon
	}
	if in.Color != nil {
		o.Color = *in.Color
	}
	o.UpdatedAt = s.now()
	return *o, nil
}

// DeleteObject cascades to records, attachments, relationships and links.
func (s *Store) DeleteObject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects.get(id)
	if !ok {
		return notFound("object", id)
	}
	if o.IsSystemObject {
		return forbidden("system object %s cannot be deleted", o.Name)
	}

	var recordIDs, attachmentIDs, relIDs []string
	s.records.each(func(r *schema.DataRecord) bool {
		if r.ObjectID == id {
			recordIDs = append(recordIDs, r.ID)
		}
		return true
	})
	s.objectFields.each(func(of *schema.ObjectField) bool {
		if of.ObjectID == id {
			attachmentIDs = append(attachmentIDs, of.ID)
		}
		return true
	})
	s.relationships.each(func(r *schema.Relationship) bool {
		if r.FromObjectID == id || r.ToObjectID == id {
			relIDs = append(relIDs, r.ID)
		}
		return true
	})

	for _, rid := range recordIDs {
		s.dropLinksLocked(func(l *schema.RelationshipRecord) bool {
			return l.FromRecordID == rid || l.ToRecordID == rid
		})
		s.records.remove(rid)
	}
	for _, aid := range attachmentIDs {
		s.objectFields.remove(aid)
	}
	for _, rel := range relIDs {
		s.dropLinksLocked(func(l *schema.RelationshipRecord) bool { return l.RelationshipID == rel })
		s.relationships.remove(rel)
	}
	s.objects.remove(id)
	return nil
}

func (s *Store) dropLinksLocked(match func(*schema.RelationshipRecord) bool) {
	var doomed []string
	s.links.each(func(l *schema.RelationshipRecord) bool {
		if match(l) {
			doomed = append(doomed, l.ID)
		}
		return true
	})
	for _, id := range doomed {
		s.links.remove(id)
	}
}

// --- Object fields ---

func (s *Store) ListObjectFields(objectID string) []schema.ObjectField {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.ObjectField{}
	s.objectFields.each(func(of *schema.ObjectField) bool {
		if objectID != "" && of.ObjectID != objectID {
			return true
		}
		joined := *of
		if f, ok := s.fields.get(of.FieldID); ok {
			fc := *f
			joined.Field = &fc
		}
		out = append(out, joined)
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (s *Store) CreateObjectField(in schema.ObjectFieldCreate) (schema.ObjectField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects.get(in.ObjectID); !ok {
		return schema.ObjectField{}, notFound("object", in.ObjectID)
	}
	f, ok := s.fields.get(in.FieldID)
	if !ok {
		return schema.ObjectField{}, notFound("field", in.FieldID)
	}
	dup := false
	s.objectFields.each(func(of *schema.ObjectField) bool {
		dup = of.ObjectID == in.ObjectID && of.FieldID == in.FieldID
		return !dup
	})
	if dup {
		return schema.ObjectField{}, conflict(http.StatusConflict, "Field %s is already attached to this object", f.Name)
	}

	of := &schema.ObjectField{ID: newID(), ObjectID: in.ObjectID, FieldID: in.FieldID, IsRequired: in.IsRequired,
		IsVisible: in.IsVisible, IsReadonly: in.IsReadonly, IsPrimary: in.IsPrimary, DisplayOrder: in.DisplayOrder}
	if in.FieldOverrides != nil {
		of.FieldOverrides = *in.FieldOverrides
	}
	s.objectFields.put(of.ID, of)

	out := *of
	fc := *f
	out.Field = &fc
	return out, nil
}

func (s *Store) UpdateObjectField(id string, in schema.ObjectFieldUpdate) (schema.ObjectField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	of, ok := s.objectFields.get(id)
	if !ok {
		return schema.ObjectField{}, notFound("object field", id)
	}
	if in.IsRequired != nil {
		of.IsRequired = *in.IsRequired
	}
	if in.IsVisible != nil {
		of.IsVisible = *in.IsVisible
	}
	if in.IsReadonly != nil {
		of.IsReadonly = *in.IsReadonly
	}
	if in.IsPrimary != nil {
		of.IsPrimary = *in.IsPrimary
	}
	if in.DisplayOrder != nil {
		of.DisplayOrder = *in.DisplayOrder
	}
	if in.FieldOverrides != nil {
		of.FieldOverrides = *in.FieldOverrides
	}
	out := *of
	if f, ok := s.fields.get(of.FieldID); ok {
		fc := *f
		out.Field = &fc
	}
	return out, nil
}

func (s *Store) DeleteObjectField(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objectFields.get(id); !ok {
		return notFound("object field", id)
	}
	s.objectFields.remove(id)
	return nil
}

// BulkUpdateOrder applies every order or none. Concurrent callers are
// last-write-wins.
func (s *Store) BulkUpdateOrder(updates []schema.OrderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if _, ok := s.objectFields.get(u.ID); !ok {
			return notFound("object field", u.ID)
		}
	}
	for _, u := range updates {
		of, _ := s.objectFields.get(u.ID)
		of.DisplayOrder = u.DisplayOrder
	}
	return nil
}

// --- Records ---

func (s *Store) ListRecords(objectID string) []schema.DataRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.DataRecord{}
	s.records.each(func(r *schema.DataRecord) bool {
		if objectID == "" || r.ObjectID == objectID {
			out = append(out, copyRecord(r))
		}
		return true
	})
	return out
}

func (s *Store) GetRecord(id string) (schema.DataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records.get(id)
	if !ok {
		return schema.DataRecord{}, notFound("record", id)
	}
	return copyRecord(r), nil
}

func copyRecord(r *schema.DataRecord) schema.DataRecord {
	out := *r
	out.Data = make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		out.Data[k] = v
	}
	return out
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

// checkRequiredLocked enforces is_required attachments against data.
func (s *Store) checkRequiredLocked(objectID string, data map[string]any) error {
	var err error
	s.objectFields.each(func(of *schema.ObjectField) bool {
		if of.ObjectID == objectID && of.IsRequired && isBlank(data[of.FieldID]) {
			err = invalid(of.FieldID, "field required")
			return false
		}
		return true
	})
	return err
}

func (s *Store) CreateRecord(in schema.RecordCreate, createdBy string) (schema.DataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects.get(in.ObjectID); !ok {
		return schema.DataRecord{}, notFound("object", in.ObjectID)
	}
	if err := s.checkRequiredLocked(in.ObjectID, in.Data); err != nil {
		return schema.DataRecord{}, err
	}
	now := s.now()
	r := &schema.DataRecord{ID: newID(), ObjectID: in.ObjectID, Data: make(map[string]any, len(in.Data)),
		CreatedAt: now, CreatedBy: createdBy, UpdatedAt: now}
	for k, v := range in.Data {
		r.Data[k] = v
	}
	s.records.put(r.ID, r)
	return copyRecord(r), nil
}

// UpdateRecord merges patch into the stored data. Keys absent from patch
// keep their values.
func (s *Store) UpdateRecord(id string, patch map[string]any) (schema.DataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records.get(id)
	if !ok {
		return schema.DataRecord{}, notFound("record", id)
	}
	merged := make(map[string]any, len(r.Data)+len(patch))
	for k, v := range r.Data {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	if err := s.checkRequiredLocked(r.ObjectID, merged); err != nil {
		return schema.DataRecord{}, err
	}
	r.Data = merged
	r.UpdatedAt = s.now()
	return copyRecord(r), nil
}

// DeleteRecord removes the record and any links that reference it.
func (s *Store) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records.get(id); !ok {
		return notFound("record", id)
	}
	s.dropLinksLocked(func(l *schema.RelationshipRecord) bool {
		return l.FromRecordID == id || l.ToRecordID == id
	})
	s.records.remove(id)
	return nil
}

// SearchRecords matches query as a case-insensitive substring of any value.
func (s *Store) SearchRecords(objectID, query string) []schema.DataRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []schema.DataRecord{}
	for _, r := range s.ListRecords(objectID) {
		if q == "" {
			out = append(out, r)
			continue
		}
		for _, v := range r.Data {
			if strings.Contains(strings.ToLower(fmt.Sprint(v)), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// --- Relationships ---

func (s *Store) ListRelationships(objectID string) []schema.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.Relationship{}
	s.relationships.each(func(r *schema.Relationship) bool {
		if objectID == "" || r.FromObjectID == objectID || r.ToObjectID == objectID {
			out = append(out, *r)
		}
		return true
	})
	return out
}

func (s *Store) GetRelationship(id string) (schema.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships.get(id)
	if !ok {
		return schema.Relationship{}, notFound("relationship", id)
	}
	return *r, nil
}

func (s *Store) CreateRelationship(in schema.RelationshipCreate) (schema.Relationship, error) {
	if !in.Type.Valid() {
		return schema.Relationship{}, invalid("type", "type must be one_to_many or many_to_many")
	}
	if in.FromObjectID == in.ToObjectID {
		return schema.Relationship{}, invalid("to_object_id", "a relationship needs two distinct objects")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{in.FromObjectID, in.ToObjectID} {
		if _, ok := s.objects.get(id); !ok {
			return schema.Relationship{}, notFound("object", id)
		}
	}
	dup := false
	s.relationships.each(func(r *schema.Relationship) bool {
		dup = strings.EqualFold(r.Name, in.Name)
		return !dup
	})
	if dup {
		return schema.Relationship{}, conflict(http.StatusConflict, "Relationship with name %q already exists", in.Name)
	}

	r := &schema.Relationship{ID: newID(), Name: in.Name, FromObjectID: in.FromObjectID, ToObjectID: in.ToObjectID,
		Type: in.Type, FromLabel: in.FromLabel, ToLabel: in.ToLabel, Description: in.Description, CreatedAt: s.now()}
	s.relationships.put(r.ID, r)
	return *r, nil
}

func (s *Store) UpdateRelationship(id string, in schema.RelationshipUpdate) (schema.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relationships.get(id)
	if !ok {
		return schema.Relationship{}, notFound("relationship", id)
	}
	if in.FromLabel != nil {
		r.FromLabel = *in.FromLabel
	}
	if in.ToLabel != nil {
		r.ToLabel = *in.ToLabel
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	return *r, nil
}

func (s *Store) DeleteRelationship(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships.get(id); !ok {
		return notFound("relationship", id)
	}
	s.dropLinksLocked(func(l *schema.RelationshipRecord) bool { return l.RelationshipID == id })
	s.relationships.remove(id)
	return nil
}

func (s *Store) ListLinks(relationshipID, recordID string) ([]schema.RelationshipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.relationships.get(relationshipID); !ok {
		return nil, notFound("relationship", relationshipID)
	}
	out := []schema.RelationshipRecord{}
	s.links.each(func(l *schema.RelationshipRecord) bool {
		if l.RelationshipID != relationshipID {
			return true
		}
		if recordID == "" || l.FromRecordID == recordID || l.ToRecordID == recordID {
			out = append(out, *l)
		}
		return true
	})
	return out, nil
}

// CreateLink checks that each record belongs to its side of the
// relationship. On one_to_many the "to" record may have a single parent.
func (s *Store) CreateLink(relationshipID string, in schema.LinkCreate) (schema.RelationshipRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, ok := s.relationships.get(relationshipID)
	if !ok {
		return schema.RelationshipRecord{}, notFound("relationship", relationshipID)
	}
	from, ok := s.records.get(in.FromRecordID)
	if !ok {
		return schema.RelationshipRecord{}, notFound("record", in.FromRecordID)
	}
	to, ok := s.records.get(in.ToRecordID)
	if !ok {
		return schema.RelationshipRecord{}, notFound("record", in.ToRecordID)
	}
	if from.ObjectID != rel.FromObjectID {
		return schema.RelationshipRecord{}, invalid("from_record_id", "record does not belong to the relationship's source object")
	}
	if to.ObjectID != rel.ToObjectID {
		return schema.RelationshipRecord{}, invalid("to_record_id", "record does not belong to the relationship's target object")
	}

	var clash error
	s.links.each(func(l *schema.RelationshipRecord) bool {
		if l.RelationshipID != relationshipID {
			return true
		}
		if l.FromRecordID == in.FromRecordID && l.ToRecordID == in.ToRecordID {
			clash = conflict(http.StatusConflict, "records are already linked")
			return false
		}
		if rel.Type == schema.OneToMany && l.ToRecordID == in.ToRecordID {
			clash = conflict(http.StatusConflict, "target record already has a parent in this relationship")
			return false
		}
		return true
	})
	if clash != nil {
		return schema.RelationshipRecord{}, clash
	}

	l := &schema.RelationshipRecord{ID: newID(), RelationshipID: relationshipID, FromRecordID: in.FromRecordID,
		ToRecordID: in.ToRecordID, RelationshipMetadata: in.RelationshipMetadata, CreatedAt: s.now()}
	s.links.put(l.ID, l)
	return *l, nil
}

func (s *Store) DeleteLink(relationshipID, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links.get(linkID)
	if !ok || l.RelationshipID != relationshipID {
		return notFound("link", linkID)
	}
	s.links.remove(linkID)
	return nil
}

// --- Applications ---

func (s *Store) ListApplications() []schema.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []schema.Application{}
	s.apps.each(func(a *schema.Application) bool {
		out = append(out, *a)
		return true
	})
	return out
}

func (s *Store) GetApplication(id string) (schema.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps.get(id)
	if !ok {
		return schema.Application{}, notFound("application", id)
	}
	return *a, nil
}

func (s *Store) CreateApplication(in schema.ApplicationCreate) (schema.Application, error) {
	if !identifierPattern.MatchString(in.Name) {
		return schema.Application{}, invalid("name", "name must start with a letter or underscore and contain only letters, digits and underscores")
	}
	config := in.Config
	if len(config) == 0 {
		config = []byte(`{"objects":[]}`)
	}
	if _, err := schema.ParseAppConfig(config); err != nil {
		return schema.Application{}, invalid("config", "%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup := false
	s.apps.each(func(a *schema.Application) bool {
		dup = strings.EqualFold(a.Name, in.Name)
		return !dup
	})
	if dup {
		return schema.Application{}, conflict(http.StatusConflict, "Application with name %q already exists", in.Name)
	}

	now := s.now()
	a := &schema.Application{ID: newID(), Name: in.Name, Label: in.Label, Description: in.Description, Icon: in.Icon,
		Config: append([]byte(nil), config...), CreatedAt: now, UpdatedAt: now}
	s.apps.put(a.ID, a)
	return *a, nil
}

func (s *Store) UpdateApplication(id string, in schema.ApplicationUpdate) (schema.Application, error) {
	if len(in.Config) > 0 {
		if _, err := schema.ParseAppConfig(in.Config); err != nil {
			return schema.Application{}, invalid("config", "%v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps.get(id)
	if !ok {
		return schema.Application{}, notFound("application", id)
	}
	if in.Label != nil {
		a.Label = *in.Label
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Icon != nil {
		a.Icon = *in.Icon
	}
	if len(in.Config) > 0 {
		a.Config = append([]byte(nil), in.Config...)
	}
	a.UpdatedAt = s.now()
	return *a, nil
}

func (s *Store) DeleteApplication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps.get(id); !ok {
		return notFound("application", id)
	}
	s.apps.remove(id)
	return nil
}

// PublishApplication is a one-way transition.
func (s *Store) PublishApplication(id string) (schema.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps.get(id)
	if !ok {
		return schema.Application{}, notFound("application", id)
	}
	if a.PublishedAt != nil {
		return schema.Application{}, conflict(http.StatusConflict, "application %s is already published", a.Name)
	}
	now := s.now()
	a.PublishedAt = &now
	a.UpdatedAt = now
	return *a, nil
}
