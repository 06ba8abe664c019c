// Package features holds the page logic of the builder: list filtering,
// create and edit validation, delete gates, relationship navigation,
// application templates and sign-in.
package features

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/celerix-dev/celerix-builder/internal/listing"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var (
	ErrSystemProtected = errors.New("system entities cannot be edited or deleted")
	ErrNotConfirmed    = errors.New("delete was not confirmed")
)

var identifierPattern = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*$`)

// IdentifierMessage is shown when an API name fails ValidateIdentifier.
const IdentifierMessage = "Must start with a letter or underscore and contain only letters, numbers and underscores"

// ValidateIdentifier reports whether name is a usable API identifier.
func ValidateIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func requireText(errs []schema.FieldError, field, value, label string) []schema.FieldError {
	if strings.TrimSpace(value) == "" {
		return append(errs, schema.FieldError{Field: field, Message: label + " is required"})
	}
	return errs
}

func checkIdentifier(errs []schema.FieldError, field, value string) []schema.FieldError {
	if strings.TrimSpace(value) == "" {
		return append(errs, schema.FieldError{Field: field, Message: "Name is required"})
	}
	if !ValidateIdentifier(value) {
		return append(errs, schema.FieldError{Field: field, Message: IdentifierMessage})
	}
	return errs
}

// Protected is implemented by schema.Field and schema.Object.
type Protected interface {
	Protected() bool
}

// EditGate refuses edit and delete on system entities. Pages show a
// read-only notice instead of a form when it returns an error.
func EditGate(p Protected) error {
	if p.Protected() {
		return ErrSystemProtected
	}
	return nil
}

// ListQuery is the state of a list page.
type ListQuery struct {
	Search   string
	Chip     string
	Page     int
	PageSize int
}

func list[T any](items []T, q ListQuery, text func(T) []string, chip func(T) string) listing.Page[T] {
	out := listing.Search(items, q.Search, text)
	if q.Chip != "" {
		out = listing.Filter(out, func(it T) bool { return chip(it) == q.Chip })
	}
	return listing.Paginate(out, q.Page, q.PageSize)
}

func chips[T any](items []T, chip func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if c := chip(it); c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// DeleteConfirmation gates a destructive action behind typing an exact
// name.
type DeleteConfirmation struct {
	Expected string
	typed    string
}

func NewDeleteConfirmation(name string) *DeleteConfirmation {
	return &DeleteConfirmation{Expected: name}
}

// Type replaces the confirmation input.
func (d *DeleteConfirmation) Type(s string) {
	d.typed = s
}

// Enabled is true only when the input equals the name exactly.
func (d *DeleteConfirmation) Enabled() bool {
	return d.Expected != "" && d.typed == d.Expected
}

// Confirm runs fn when the gate is open.
func (d *DeleteConfirmation) Confirm(ctx context.Context, fn func(context.Context) error) error {
	if !d.Enabled() {
		return ErrNotConfirmed
	}
	return fn(ctx)
}

// Confirm runs fn only when the action was confirmed. Unconfirmed actions
// fail with ErrNotConfirmed before anything is sent.
func Confirm(ctx context.Context, confirmed bool, fn func(context.Context) error) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return fn(ctx)
}
