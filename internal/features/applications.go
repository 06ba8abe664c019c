package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/celerix-dev/celerix-builder/internal/listing"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

var (
	ErrAlreadyPublished = errors.New("application is already published")
	ErrUnknownTemplate  = errors.New("unknown application template")
)

// Template is a predefined config skeleton for a new application.
type Template struct {
	Name        string
	Label       string
	Description string
	Config      schema.AppConfig
}

var templates = []Template{
	{
		Name:        "blank",
		Label:       "Blank",
		Description: "Start from an empty application.",
		Config:      schema.AppConfig{Objects: []string{}},
	},
	{
		Name:        "crm",
		Label:       "CRM",
		Description: "Contacts, companies and deals.",
		Config: schema.AppConfig{
			Objects:    []string{},
			Features:   []string{"contacts", "companies", "deals", "activities"},
			Navigation: &schema.AppNavigation{Layout: "sidebar"},
		},
	},
	{
		Name:        "project_tracker",
		Label:       "Project Tracker",
		Description: "Projects, tasks and milestones.",
		Config: schema.AppConfig{
			Objects:    []string{},
			Features:   []string{"projects", "tasks", "milestones"},
			Navigation: &schema.AppNavigation{Layout: "tabs"},
		},
	},
	{
		Name:        "helpdesk",
		Label:       "Helpdesk",
		Description: "Tickets, customers and knowledge base.",
		Config: schema.AppConfig{
			Objects:    []string{},
			Features:   []string{"tickets", "customers", "knowledge_base"},
			Navigation: &schema.AppNavigation{Layout: "sidebar"},
		},
	},
}

// Templates returns the available templates, blank first.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func TemplateByName(name string) (Template, bool) {
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// NewApplication builds a create request from a template. An empty
// template name means blank.
func NewApplication(name, label, template string) (schema.ApplicationCreate, error) {
	if template == "" {
		template = "blank"
	}
	tpl, ok := TemplateByName(template)
	if !ok {
		return schema.ApplicationCreate{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, template)
	}
	raw, err := json.Marshal(tpl.Config)
	if err != nil {
		return schema.ApplicationCreate{}, err
	}
	return schema.ApplicationCreate{Name: name, Label: label, Description: tpl.Description, Config: raw}, nil
}

// ValidateApplicationCreate checks the name, label and config shape.
func ValidateApplicationCreate(in schema.ApplicationCreate) []schema.FieldError {
	var errs []schema.FieldError
	errs = checkIdentifier(errs, "name", in.Name)
	errs = requireText(errs, "label", in.Label, "Label")
	if len(in.Config) > 0 {
		if _, err := schema.ParseAppConfig(in.Config); err != nil {
			errs = append(errs, schema.FieldError{Field: "config", Message: configMessage(err)})
		}
	}
	return errs
}

func configMessage(err error) string {
	if errors.Is(err, schema.ErrConfigNotObject) {
		return "Config must be a JSON object"
	}
	return err.Error()
}

// ParseConfigText validates hand-edited config text and returns it
// compacted.
func ParseConfigText(text string) (schema.AppConfig, json.RawMessage, error) {
	raw := []byte(strings.TrimSpace(text))
	cfg, err := schema.ParseAppConfig(raw)
	if err != nil {
		return schema.AppConfig{}, nil, &sdk.APIError{Message: sdk.ValidationMessage,
			Errors: []schema.FieldError{{Field: "config", Message: configMessage(err)}}, Original: err}
	}
	out, err := json.Marshal(cfg)
	if err != nil {
		return schema.AppConfig{}, nil, err
	}
	return cfg, out, nil
}

func CreateApplication(ctx context.Context, api sdk.ApplicationsAPI, in schema.ApplicationCreate) (schema.Application, error) {
	if errs := ValidateApplicationCreate(in); len(errs) > 0 {
		return schema.Application{}, &sdk.APIError{Message: sdk.ValidationMessage, Errors: errs}
	}
	return api.Create(ctx, in)
}

// SetConfig replaces an application's config with validated text.
func SetConfig(ctx context.Context, api sdk.ApplicationsAPI, id, text string) (schema.Application, error) {
	_, raw, err := ParseConfigText(text)
	if err != nil {
		return schema.Application{}, err
	}
	return api.Update(ctx, id, schema.ApplicationUpdate{Config: raw})
}

// Publish moves a draft to published. Published applications are refused
// without a request.
func Publish(ctx context.Context, api sdk.ApplicationsAPI, app schema.Application) (schema.Application, error) {
	if app.Published() {
		return app, fmt.Errorf("%w: %s", ErrAlreadyPublished, app.Name)
	}
	return api.Publish(ctx, app.ID)
}

// Status is "published" or "draft".
func Status(app schema.Application) string {
	if app.Published() {
		return "published"
	}
	return "draft"
}

// ApplicationList searches name, label and description. The chip is the
// status.
func ApplicationList(apps []schema.Application, q ListQuery) listing.Page[schema.Application] {
	return list(apps, q,
		func(a schema.Application) []string { return []string{a.Name, a.Label, a.Description} },
		Status,
	)
}

// RuntimeObjects resolves config.objects against the object list, in
// config order. Unknown ids are skipped.
func RuntimeObjects(app schema.Application, objects []schema.Object) ([]schema.Object, error) {
	if len(app.Config) == 0 {
		return []schema.Object{}, nil
	}
	cfg, err := schema.ParseAppConfig(app.Config)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", app.Name, err)
	}
	byID := make(map[string]schema.Object, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}
	out := make([]schema.Object, 0, len(cfg.Objects))
	for _, id := range cfg.Objects {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}
