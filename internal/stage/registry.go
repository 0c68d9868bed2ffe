// Package stage defines the fixed sample pipeline: its stages, their form
// schemas and the role that owns each one.
package stage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sampletrack/internal/domain"
)

// Key identifies a pipeline stage.
type Key string

const (
	PSI               Key = "psi"
	SampleDevelopment Key = "sample_development"
	PCReview          Key = "pc_review"
	Costing           Key = "costing"
	ShipmentToBrand   Key = "shipment_to_brand"
)

// FieldType is the value type a stage form field accepts.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
)

// Field is one entry of a stage form.
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Stage is one phase of the pipeline.
type Stage struct {
	Key     Key         `json:"key"`
	Name    string      `json:"name"`
	Aliases []string    `json:"aliases"`
	Owner   domain.Role `json:"owner_role"`
	Feature string      `json:"feature_key"`
	Table   string      `json:"-"`
	Fields  []Field     `json:"fields"`
}

// SystemFields are never accepted in a stage payload.
var SystemFields = map[string]struct{}{
	"id":         {},
	"sample_id":  {},
	"created_at": {},
	"updated_at": {},
	"updated_by": {},
	"stage":      {},
}

var stages = []Stage{
	{
		Key:     PSI,
		Name:    "PSI",
		Aliases: []string{"PSI"},
		Owner:   domain.RolePD,
		Feature: domain.FeaturePSI,
		Table:   "stage_psi",
		Fields: []Field{
			{Key: "received_date", Label: "PSI Received Date", Type: TypeDate, Required: true},
			{Key: "sample_type", Label: "Sample Type", Type: TypeString, Required: true},
			{Key: "fabrication", Label: "Fabrication", Type: TypeString},
			{Key: "colorway", Label: "Colorway", Type: TypeString},
			{Key: "size", Label: "Size", Type: TypeString},
			{Key: "quantity", Label: "Quantity", Type: TypeNumber},
			{Key: "remarks", Label: "Remarks", Type: TypeText},
		},
	},
	{
		Key:     SampleDevelopment,
		Name:    "Sample Development",
		Aliases: []string{"FACTORY_EXECUTION"},
		Owner:   domain.RoleFactory,
		Feature: domain.FeatureSampleDevelopment,
		Table:   "stage_sample_development",
		Fields: []Field{
			{Key: "target_xfty_date", Label: "Target X-Factory Date", Type: TypeDate, Required: true},
			{Key: "actual_xfty_date", Label: "Actual X-Factory Date", Type: TypeDate},
			{Key: "factory_name", Label: "Factory", Type: TypeString},
			{Key: "pattern_status", Label: "Pattern Status", Type: TypeString},
			{Key: "remarks", Label: "Remarks", Type: TypeText},
		},
	},
	{
		Key:     PCReview,
		Name:    "PC Review",
		Aliases: []string{"MERCHANDISING_REVIEW"},
		Owner:   domain.RoleMD,
		Feature: domain.FeaturePCReview,
		Table:   "stage_pc_review",
		Fields: []Field{
			{Key: "review_date", Label: "Review Date", Type: TypeDate, Required: true},
			{Key: "fit_result", Label: "Fit Result", Type: TypeString, Required: true},
			{Key: "approved", Label: "Approved", Type: TypeBoolean},
			{Key: "comments", Label: "Comments", Type: TypeText},
		},
	},
	{
		Key:     Costing,
		Name:    "Costing",
		Aliases: []string{"COSTING_ANALYSIS"},
		Owner:   domain.RoleCosting,
		Feature: domain.FeatureCosting,
		Table:   "stage_costing",
		Fields: []Field{
			{Key: "fob_price", Label: "FOB Price", Type: TypeNumber, Required: true},
			{Key: "currency", Label: "Currency", Type: TypeString, Required: true},
			{Key: "costing_date", Label: "Costing Date", Type: TypeDate},
			{Key: "margin_pct", Label: "Margin %", Type: TypeNumber},
			{Key: "remarks", Label: "Remarks", Type: TypeText},
		},
	},
	{
		Key:     ShipmentToBrand,
		Name:    "Shipment to Brand",
		Aliases: []string{"SHIPMENT_TO_BRAND"},
		Owner:   domain.RolePD,
		Feature: domain.FeatureShipmentToBrand,
		Table:   "stage_shipment_to_brand",
		Fields: []Field{
			{Key: "ship_date", Label: "Ship Date", Type: TypeDate, Required: true},
			{Key: "courier", Label: "Courier", Type: TypeString},
			{Key: "awb_number", Label: "AWB Number", Type: TypeString, Required: true},
			{Key: "brand_received_date", Label: "Brand Received Date", Type: TypeDate},
			{Key: "remarks", Label: "Remarks", Type: TypeText},
		},
	},
}

var index = func() map[string]int {
	m := make(map[string]int, len(stages)*2)
	for i, s := range stages {
		m[string(s.Key)] = i
		for _, a := range s.Aliases {
			m[strings.ToLower(a)] = i
		}
	}
	return m
}()

// All returns the stages in pipeline order.
func All() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// Lookup resolves a stage key or alias, case-insensitively.
func Lookup(key string) (Stage, bool) {
	i, ok := index[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Stage{}, false
	}
	return stages[i], true
}

// StageForRole returns the primary stage owned by role.
func StageForRole(role domain.Role) (Stage, bool) {
	for _, s := range stages {
		if s.Owner == role {
			return s, true
		}
	}
	return Stage{}, false
}

// StagesForRole returns every stage owned by role, in order.
func StagesForRole(role domain.Role) []Stage {
	var out []Stage
	for _, s := range stages {
		if s.Owner == role {
			out = append(out, s)
		}
	}
	return out
}

// FieldsForStage returns the ordered form schema for key, or nil.
func FieldsForStage(key string) []Field {
	s, ok := Lookup(key)
	if !ok {
		return nil
	}
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	return out
}

// First returns the entry stage of the pipeline.
func First() Stage { return stages[0] }

// Next returns the stage after key. ok is false for the last stage or an unknown key.
func Next(key string) (Stage, bool) {
	i, ok := index[strings.ToLower(strings.TrimSpace(key))]
	if !ok || i+1 >= len(stages) {
		return Stage{}, false
	}
	return stages[i+1], true
}

// Field returns the field definition for key within s.
func (s Stage) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// ValidateFields checks a partial stage payload against the schema.
func ValidateFields(s Stage, values map[string]any) error {
	var errs []domain.FieldError
	for k, v := range values {
		if _, sys := SystemFields[k]; sys {
			errs = append(errs, domain.FieldError{Field: k, Message: "system field is not editable"})
			continue
		}
		f, ok := s.Field(k)
		if !ok {
			errs = append(errs, domain.FieldError{Field: k, Message: fmt.Sprintf("unknown field for stage %s", s.Key)})
			continue
		}
		if v == nil {
			continue
		}
		if msg := checkType(f.Type, v); msg != "" {
			errs = append(errs, domain.FieldError{Field: k, Message: msg})
		}
	}
	if len(errs) > 0 {
		sortFieldErrors(errs)
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// MissingRequired lists required fields that are absent or empty in values.
func MissingRequired(s Stage, values map[string]any) []string {
	var missing []string
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, ok := values[f.Key]
		if !ok || v == nil {
			missing = append(missing, f.Key)
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func checkType(t FieldType, v any) string {
	switch t {
	case TypeString, TypeText:
		if _, ok := v.(string); !ok {
			return "must be a string"
		}
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int64, int32:
		default:
			return "must be a number"
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return "must be a boolean"
		}
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return "must be a date string (YYYY-MM-DD)"
		}
		if s == "" {
			return ""
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return "must be a date string (YYYY-MM-DD)"
			}
		}
	}
	return ""
}

func sortFieldErrors(errs []domain.FieldError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
}
