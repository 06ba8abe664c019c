package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFieldTypeTraitsAreTotal(t *testing.T) {
	for _, ft := range AllFieldTypes() {
		if !ft.Valid() {
			t.Errorf("%s should be valid", ft)
		}
		if ft.Input() == InputUnsupported {
			t.Errorf("%s has no input kind", ft)
		}
		if ft.Rule() == "" || ft.Cell() == "" {
			t.Errorf("%s has incomplete traits", ft)
		}
	}
	if len(AllFieldTypes()) != len(traits) {
		t.Errorf("ordered list has %d types, trait table has %d", len(AllFieldTypes()), len(traits))
	}
}

func TestFieldTypeUnknownFallback(t *testing.T) {
	ft := FieldType("signature")
	if ft.Valid() {
		t.Fatal("unknown type reported valid")
	}
	if ft.Input() != InputUnsupported {
		t.Errorf("Expected unsupported input, got %s", ft.Input())
	}
	if ft.Rule() != RulePassthrough {
		t.Errorf("Expected passthrough rule, got %s", ft.Rule())
	}
	if ft.Cell() != CellText {
		t.Errorf("Expected text cell, got %s", ft.Cell())
	}
}

func TestFieldTypeDispatch(t *testing.T) {
	cases := map[FieldType]InputKind{
		FieldTypeTextarea:    InputLongText,
		FieldTypeCurrency:    InputNumeric,
		FieldTypeDateTime:    InputDate,
		FieldTypeCheckbox:    InputBoolean,
		FieldTypeRadio:       InputSingleChoice,
		FieldTypeMultiselect: InputMultiChoice,
	}
	for ft, want := range cases {
		if got := ft.Input(); got != want {
			t.Errorf("%s: expected %s, got %s", ft, want, got)
		}
	}
}

func TestParseAppConfig(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(`{"objects":["o1","o2"],"features":["search"],"theme":"blue"}`))
	if err != nil {
		t.Fatalf("ParseAppConfig failed: %v", err)
	}
	if len(cfg.Objects) != 2 || cfg.Objects[1] != "o2" {
		t.Errorf("Unexpected objects: %v", cfg.Objects)
	}
	if string(cfg.Extra["theme"]) != `"blue"` {
		t.Errorf("Extra key lost: %v", cfg.Extra)
	}

	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back map[string]any
	json.Unmarshal(out, &back)
	if back["theme"] != "blue" {
		t.Errorf("Expected theme to round trip, got %v", back)
	}
}

func TestParseAppConfigRejects(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, `42`, ``, `null`} {
		if _, err := ParseAppConfig([]byte(raw)); !errors.Is(err, ErrConfigNotObject) {
			t.Errorf("%q: expected ErrConfigNotObject, got %v", raw, err)
		}
	}
	for _, raw := range []string{`{"objects":"o1"}`, `{"objects":[1,2]}`, `{"objects":[""]}`, `{"features":{}}`} {
		if _, err := ParseAppConfig([]byte(raw)); err == nil {
			t.Errorf("%q: expected error", raw)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	if (Session{}).Expired(now) {
		t.Error("zero expiry should never expire")
	}
	if !(Session{ExpiresAt: now.Add(-time.Second)}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (Session{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
}
