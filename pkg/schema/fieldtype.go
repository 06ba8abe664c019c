package schema

// FieldType is the declared data type of a Field.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiselect FieldType = "multiselect"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeURL         FieldType = "url"
	FieldTypeCurrency    FieldType = "currency"
	FieldTypePercentage  FieldType = "percentage"
	FieldTypeLookup      FieldType = "lookup"
)

// InputKind is the semantic form control a field renders as.
type InputKind string

const (
	InputShortText    InputKind = "short_text"
	InputLongText     InputKind = "long_text"
	InputNumeric      InputKind = "numeric"
	InputDate         InputKind = "date"
	InputBoolean      InputKind = "boolean"
	InputSingleChoice InputKind = "single_choice"
	InputMultiChoice  InputKind = "multi_choice"
	InputUnsupported  InputKind = "unsupported"
)

// RuleKind selects the family of client-side validation rules for a field.
type RuleKind string

const (
	RuleString      RuleKind = "string"
	RuleNumber      RuleKind = "number"
	RulePassthrough RuleKind = "passthrough"
	RuleEnum        RuleKind = "enum"
	RuleArray       RuleKind = "array"
)

// CellKind selects how a value is formatted in a table cell.
type CellKind string

const (
	CellText       CellKind = "text"
	CellEmail      CellKind = "email"
	CellPhone      CellKind = "phone"
	CellURL        CellKind = "url"
	CellCheckbox   CellKind = "checkbox"
	CellDate       CellKind = "date"
	CellDateTime   CellKind = "datetime"
	CellBadge      CellKind = "badge"
	CellBadges     CellKind = "badges"
	CellNumber     CellKind = "number"
	CellCurrency   CellKind = "currency"
	CellPercentage CellKind = "percentage"
	CellLongText   CellKind = "long_text"
)

type fieldTraits struct {
	input InputKind
	rule  RuleKind
	cell  CellKind
}

// traits is the single place a field type is described. Adding a type means
// adding one row here; every mapping below reads from it.
var traits = map[FieldType]fieldTraits{
	FieldTypeText:        {InputShortText, RuleString, CellText},
	FieldTypeEmail:       {InputShortText, RuleString, CellEmail},
	FieldTypePhone:       {InputShortText, RuleString, CellPhone},
	FieldTypeURL:         {InputShortText, RuleString, CellURL},
	FieldTypeLookup:      {InputShortText, RuleString, CellText},
	FieldTypeTextarea:    {InputLongText, RuleString, CellLongText},
	FieldTypeNumber:      {InputNumeric, RuleNumber, CellNumber},
	FieldTypeCurrency:    {InputNumeric, RuleNumber, CellCurrency},
	FieldTypePercentage:  {InputNumeric, RuleNumber, CellPercentage},
	FieldTypeDate:        {InputDate, RulePassthrough, CellDate},
	FieldTypeDateTime:    {InputDate, RulePassthrough, CellDateTime},
	FieldTypeCheckbox:    {InputBoolean, RulePassthrough, CellCheckbox},
	FieldTypeSelect:      {InputSingleChoice, RuleEnum, CellBadge},
	FieldTypeRadio:       {InputSingleChoice, RuleEnum, CellBadge},
	FieldTypeMultiselect: {InputMultiChoice, RuleArray, CellBadges},
}

var orderedTypes = []FieldType{
	FieldTypeText, FieldTypeEmail, FieldTypePhone, FieldTypeNumber,
	FieldTypeDate, FieldTypeDateTime, FieldTypeTextarea, FieldTypeSelect,
	FieldTypeMultiselect, FieldTypeCheckbox, FieldTypeRadio, FieldTypeURL,
	FieldTypeCurrency, FieldTypePercentage, FieldTypeLookup,
}

// AllFieldTypes returns every known field type in display order.
func AllFieldTypes() []FieldType {
	out := make([]FieldType, len(orderedTypes))
	copy(out, orderedTypes)
	return out
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	_, ok := traits[t]
	return ok
}

// Input returns the form control kind. Unknown types map to InputUnsupported.
func (t FieldType) Input() InputKind {
	if tr, ok := traits[t]; ok {
		return tr.input
	}
	return InputUnsupported
}

// Rule returns the validation rule family. Unknown types are passed through.
func (t FieldType) Rule() RuleKind {
	if tr, ok := traits[t]; ok {
		return tr.rule
	}
	return RulePassthrough
}

// Cell returns the table cell formatter. Unknown types render as plain text.
func (t FieldType) Cell() CellKind {
	if tr, ok := traits[t]; ok {
		return tr.cell
	}
	return CellText
}
