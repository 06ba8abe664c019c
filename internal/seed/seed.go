// Package seed provisions a demo catalogue against a running backend. Every
// step is safe to repeat: a duplicate on create is resolved by looking the
// existing entity up instead.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// DemoObject is the name of the object the seeder creates.
const DemoObject = "contact"

type demoField struct {
	in       schema.FieldCreate
	required bool
	primary  bool
	options  []string
}

var demoFields = []demoField{
	{in: schema.FieldCreate{Name: "first_name", Label: "First Name", Type: schema.FieldTypeText, Category: "personal"}, required: true, primary: true},
	{in: schema.FieldCreate{Name: "last_name", Label: "Last Name", Type: schema.FieldTypeText, Category: "personal"}, required: true},
	{in: schema.FieldCreate{Name: "email", Label: "Email", Type: schema.FieldTypeEmail, Category: "contact"}, required: true},
	{in: schema.FieldCreate{Name: "phone", Label: "Phone", Type: schema.FieldTypePhone, Category: "contact"}},
	{in: schema.FieldCreate{Name: "lead_status", Label: "Lead Status", Type: schema.FieldTypeSelect, Category: "sales"},
		options: []string{"new", "contacted", "qualified", "lost"}},
	{in: schema.FieldCreate{Name: "annual_revenue", Label: "Annual Revenue", Type: schema.FieldTypeCurrency, Category: "sales"}},
	{in: schema.FieldCreate{Name: "notes", Label: "Notes", Type: schema.FieldTypeTextarea, Category: "general"}},
}

var sampleRecords = []map[string]any{
	{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "phone": "+44 20 7946 0000", "lead_status": "qualified", "annual_revenue": 125000},
	{"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com", "lead_status": "contacted", "annual_revenue": 98000.5},
	{"first_name": "Alan", "last_name": "Turing", "email": "alan@example.com", "lead_status": "new", "notes": "Met at the analytical engines meetup."},
}

// Result reports what a run ended up with.
type Result struct {
	Fields      []schema.Field
	Object      schema.Object
	Attachments []schema.ObjectField
	Records     []schema.DataRecord
}

type Seeder struct {
	api sdk.Backend
	log *zap.Logger
}

func New(api sdk.Backend, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{api: api, log: log}
}

// Run provisions fields, the contact object, its attachments and sample
// records, in that order. A failing step stops the run and earlier steps
// are kept.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	for _, df := range demoFields {
		f, err := s.ensureField(ctx, df.in)
		if err != nil {
			return res, err
		}
		res.Fields = append(res.Fields, f)
	}

	obj, err := s.ensureObject(ctx)
	if err != nil {
		return res, err
	}
	res.Object = obj

	for i, df := range demoFields {
		of, err := s.ensureAttachment(ctx, obj.ID, res.Fields[i].ID, i, df)
		if err != nil {
			return res, err
		}
		res.Attachments = append(res.Attachments, of)
	}

	recs, err := s.ensureRecords(ctx, obj.ID, res.Fields)
	if err != nil {
		return res, err
	}
	res.Records = recs

	s.log.Info("seed complete",
		zap.Int("fields", len(res.Fields)),
		zap.String("object", obj.ID),
		zap.Int("records", len(res.Records)))
	return res, nil
}

func (s *Seeder) ensureField(ctx context.Context, in schema.FieldCreate) (schema.Field, error) {
	f, err := s.api.Fields().Create(ctx, in)
	if err == nil {
		s.log.Debug("field created", zap.String("name", in.Name))
		return f, nil
	}
	if !sdk.IsConflict(err) {
		return f, fmt.Errorf("create field %s: %w", in.Name, err)
	}
	all, err := s.api.Fields().List(ctx, sdk.FieldFilter{})
	if err != nil {
		return schema.Field{}, fmt.Errorf("list fields: %w", err)
	}
	for _, f := range all {
		if strings.EqualFold(f.Name, in.Name) {
			s.log.Debug("field exists", zap.String("name", in.Name))
			return f, nil
		}
	}
	return schema.Field{}, fmt.Errorf("field %s reported as duplicate but not found", in.Name)
}

func (s *Seeder) ensureObject(ctx context.Context) (schema.Object, error) {
	in := schema.ObjectCreate{
		Name:        DemoObject,
		Label:       "Contact",
		PluralName:  "Contacts",
		Category:    schema.ObjectCategoryStandard,
		Description: "People you do business with.",
		Icon:        "user",
		Color:       "#2563eb",
	}
	o, err := s.api.Objects().Create(ctx, in)
	if err == nil {
		return o, nil
	}
	if !sdk.IsConflict(err) {
		return o, fmt.Errorf("create object %s: %w", in.Name, err)
	}
	all, err := s.api.Objects().List(ctx, sdk.ObjectFilter{})
	if err != nil {
		return schema.Object{}, fmt.Errorf("list objects: %w", err)
	}
	for _, o := range all {
		if strings.EqualFold(o.Name, in.Name) {
			return o, nil
		}
	}
	return schema.Object{}, fmt.Errorf("object %s reported as duplicate but not found", in.Name)
}

func (s *Seeder) ensureAttachment(ctx context.Context, objectID, fieldID string, order int, df demoField) (schema.ObjectField, error) {
	in := schema.ObjectFieldCreate{
		ObjectID:     objectID,
		FieldID:      fieldID,
		IsRequired:   df.required,
		IsVisible:    true,
		IsPrimary:    df.primary,
		DisplayOrder: order,
	}
	if len(df.options) > 0 {
		in.FieldOverrides = &schema.FieldOverrides{Options: df.options}
	}
	of, err := s.api.ObjectFields().Create(ctx, in)
	if err == nil {
		return of, nil
	}
	if !sdk.IsConflict(err) {
		return of, fmt.Errorf("attach %s: %w", df.in.Name, err)
	}
	all, err := s.api.ObjectFields().List(ctx, objectID)
	if err != nil {
		return schema.ObjectField{}, fmt.Errorf("list attachments: %w", err)
	}
	for _, of := range all {
		if of.FieldID == fieldID {
			return of, nil
		}
	}
	return schema.ObjectField{}, fmt.Errorf("attachment of %s reported as duplicate but not found", df.in.Name)
}

// ensureRecords only inserts the samples into an empty object, so a
// second run leaves existing data alone.
func (s *Seeder) ensureRecords(ctx context.Context, objectID string, fields []schema.Field) ([]schema.DataRecord, error) {
	existing, err := s.api.Records().List(ctx, sdk.RecordFilter{ObjectID: objectID})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	ids := make(map[string]string, len(fields))
	for _, f := range fields {
		ids[f.Name] = f.ID
	}
	out := make([]schema.DataRecord, 0, len(sampleRecords))
	for _, sample := range sampleRecords {
		data := make(map[string]any, len(sample))
		for name, v := range sample {
			data[ids[name]] = v
		}
		rec, err := s.api.Records().Create(ctx, objectID, data)
		if err != nil {
			return out, fmt.Errorf("create sample record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
