package sdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-builder/internal/devserver"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

func newDevServer(t *testing.T) (*httptest.Server, *devserver.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := devserver.NewStore()
	if _, err := store.Register(schema.Registration{Email: "test@example.com", Password: "testpass123", FullName: "Test"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	srv := httptest.NewServer(devserver.NewRouter(store, nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestLoginIsFormEncodedAndPersisted(t *testing.T) {
	var gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotBody = r.PostForm.Get("username") + "|" + r.PostForm.Get("password")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"eyJhbGciOi.x.y","token_type":"bearer","expires_in":1800}`))
	}))
	defer srv.Close()

	tokens := sdk.NewMemoryTokenStore()
	c := sdk.New(srv.URL, sdk.WithTokenStore(tokens))
	tok, err := c.Auth().Login(context.Background(), "test@example.com", "testpass123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Expected form content type, got %q", gotType)
	}
	if gotBody != "test@example.com|testpass123" {
		t.Errorf("Unexpected form body %q", gotBody)
	}

	sess, err := tokens.Load()
	if err != nil {
		t.Fatalf("Expected persisted session: %v", err)
	}
	if sess.AccessToken != tok.AccessToken || !strings.HasPrefix(sess.AccessToken, "eyJ") {
		t.Errorf("Unexpected session token %q", sess.AccessToken)
	}
	if until := time.Until(sess.ExpiresAt); until < 29*time.Minute || until > 31*time.Minute {
		t.Errorf("Expected expiry about 30m out, got %v", until)
	}
}

func TestBearerIsAttached(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tokens := sdk.NewMemoryTokenStore()
	c := sdk.New(srv.URL, sdk.WithTokenStore(tokens))

	if _, err := c.Fields().List(context.Background(), sdk.FieldFilter{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := auth.Load().(string); got != "" {
		t.Errorf("Expected no Authorization header without a session, got %q", got)
	}

	_ = tokens.Save(schema.Session{AccessToken: "eyJabc", TokenType: "bearer"})
	if _, err := c.Fields().List(context.Background(), sdk.FieldFilter{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := auth.Load().(string); got != "Bearer eyJabc" {
		t.Errorf("Expected bearer header, got %q", got)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	}))
	defer srv.Close()

	tokens := sdk.NewMemoryTokenStore()
	_ = tokens.Save(schema.Session{AccessToken: "eyJstale"})
	c := sdk.New(srv.URL, sdk.WithTokenStore(tokens))

	// A failed login must not wipe an existing session.
	_, err := c.Auth().Login(context.Background(), "a@b.c", "wrong")
	if !sdk.IsUnauthorized(err) {
		t.Fatalf("Expected 401, got %v", err)
	}
	if _, err := tokens.Load(); err != nil {
		t.Fatalf("Login 401 cleared the session: %v", err)
	}

	_, err = c.Objects().List(context.Background(), sdk.ObjectFilter{})
	if !sdk.IsUnauthorized(err) {
		t.Fatalf("Expected 401, got %v", err)
	}
	var apiErr *sdk.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Not authenticated" {
		t.Errorf("Expected detail as message, got %v", err)
	}
	if _, err := tokens.Load(); !errors.Is(err, sdk.ErrNoSession) {
		t.Errorf("Expected session to be cleared, got %v", err)
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		fields  map[string]string
	}{
		{
			name:    "validation list",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body","name"],"msg":"field required","type":"value_error.missing"},{"loc":["body","label"],"msg":"too short","type":"value_error"}]}`,
			message: sdk.ValidationMessage,
			fields:  map[string]string{"name": "field required", "label": "too short"},
		},
		{name: "string detail", status: http.StatusConflict, body: `{"detail":"Object already exists"}`, message: "Object already exists"},
		{name: "message key", status: http.StatusBadRequest, body: `{"message":"bad input"}`, message: "bad input"},
		{name: "nested error", status: http.StatusForbidden, body: `{"error":{"message":"nope"}}`, message: "nope"},
		{name: "no body", status: http.StatusInternalServerError, body: ``, message: "Internal Server Error"},
		{name: "422 with string detail", status: http.StatusUnprocessableEntity, body: `{"detail":"bad config"}`, message: "bad config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := sdk.New(srv.URL).Fields().Get(context.Background(), "x")
			var apiErr *sdk.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %T", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Errorf("Got %d %q, want %d %q", apiErr.Status, apiErr.Message, tt.status, tt.message)
			}
			for field, msg := range tt.fields {
				if got := apiErr.FieldMessage(field); got != msg {
					t.Errorf("FieldMessage(%q) = %q, want %q", field, got, msg)
				}
			}
			var raw *sdk.ResponseError
			if !errors.As(err, &raw) || raw.Status != tt.status {
				t.Errorf("Expected the raw response to be kept")
			}
		})
	}
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := sdk.New(url, sdk.WithTimeout(time.Second)).Objects().Get(context.Background(), "x")
	if !sdk.IsStatus(err, 0) {
		t.Fatalf("Expected status 0 for a network failure, got %v", err)
	}
}

func TestRecordUpdateMergesAgainstDevServer(t *testing.T) {
	srv, _ := newDevServer(t)
	ctx := context.Background()
	c := sdk.New(srv.URL)
	if _, err := c.Auth().Login(ctx, "test@example.com", "testpass123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	me, err := c.Auth().Me(ctx)
	if err != nil || me.Email != "test@example.com" {
		t.Fatalf("Me = %+v, %v", me, err)
	}

	obj, err := c.Objects().Create(ctx, schema.ObjectCreate{Name: "contact", Label: "Contact", PluralName: "Contacts"})
	if err != nil {
		t.Fatalf("Create object failed: %v", err)
	}
	rec, err := c.Records().Create(ctx, obj.ID, map[string]any{"a": "1", "b": "2"})
	if err != nil {
		t.Fatalf("Create record failed: %v", err)
	}
	if rec.CreatedBy != me.ID {
		t.Errorf("Expected created_by %q, got %q", me.ID, rec.CreatedBy)
	}

	rec, err = c.Records().Update(ctx, rec.ID, map[string]any{"b": "3"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.Data["a"] != "1" || rec.Data["b"] != "3" {
		t.Errorf("Expected merged data, got %v", rec.Data)
	}

	list, err := c.Records().List(ctx, sdk.RecordFilter{ObjectID: obj.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	found, err := c.Records().Search(ctx, schema.RecordSearch{ObjectID: obj.ID, Query: "3"})
	if err != nil || len(found) != 1 {
		t.Errorf("Search = %v, %v", found, err)
	}

	if err := c.Records().Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Records().Get(ctx, rec.ID); !sdk.IsNotFound(err) {
		t.Errorf("Expected 404 after delete, got %v", err)
	}
}

func TestExpiredTokenClearsSessionAgainstDevServer(t *testing.T) {
	srv, store := newDevServer(t)
	ctx := context.Background()
	tokens := sdk.NewMemoryTokenStore()
	c := sdk.New(srv.URL, sdk.WithTokenStore(tokens))
	if _, err := c.Auth().Login(ctx, "test@example.com", "testpass123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.RevokeAll()
	if _, err := c.Fields().List(ctx, sdk.FieldFilter{}); !sdk.IsUnauthorized(err) {
		t.Fatalf("Expected 401, got %v", err)
	}
	if _, err := tokens.Load(); !errors.Is(err, sdk.ErrNoSession) {
		t.Errorf("Expected session cleared, got %v", err)
	}
}

func TestDuplicateIsConflict(t *testing.T) {
	srv, _ := newDevServer(t)
	ctx := context.Background()
	c := sdk.New(srv.URL)
	if _, err := c.Auth().Login(ctx, "test@example.com", "testpass123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	in := schema.FieldCreate{Name: "email", Label: "Email", Type: schema.FieldTypeEmail}
	if _, err := c.Fields().Create(ctx, in); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := c.Fields().Create(ctx, in); !sdk.IsConflict(err) {
		t.Errorf("Expected conflict on duplicate field, got %v", err)
	}

	_, err := c.Fields().Create(ctx, schema.FieldCreate{Name: "x"})
	if !sdk.IsValidation(err) {
		t.Fatalf("Expected 422, got %v", err)
	}
	var apiErr *sdk.APIError
	errors.As(err, &apiErr)
	if apiErr.FieldMessage("label") == "" || apiErr.FieldMessage("type") == "" {
		t.Errorf("Expected per-field messages, got %+v", apiErr.Errors)
	}
}
