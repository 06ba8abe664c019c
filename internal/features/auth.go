package features

import (
	"context"
	"strings"

	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// Login signs in and returns the route to show next. The session is
// persisted by the client's token store.
func Login(ctx context.Context, auth sdk.AuthAPI, email, password string) (string, error) {
	var errs []schema.FieldError
	errs = requireText(errs, "email", email, "Email")
	if password == "" {
		errs = append(errs, schema.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		return "", &sdk.APIError{Message: sdk.ValidationMessage, Errors: errs}
	}
	if _, err := auth.Login(ctx, strings.TrimSpace(email), password); err != nil {
		return "", err
	}
	return nav.Dashboard, nil
}
