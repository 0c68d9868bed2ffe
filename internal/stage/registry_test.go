package stage

import (
	"testing"

	"sampletrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{in: "psi", want: PSI, ok: true},
		{in: "PSI", want: PSI, ok: true},
		{in: "sample_development", want: SampleDevelopment, ok: true},
		{in: "FACTORY_EXECUTION", want: SampleDevelopment, ok: true},
		{in: "merchandising_review", want: PCReview, ok: true},
		{in: "COSTING_ANALYSIS", want: Costing, ok: true},
		{in: "shipment_to_brand", want: ShipmentToBrand, ok: true},
		{in: "warehouse", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			s, ok := Lookup(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, s.Key)
			}
		})
	}
}

func TestStageForRole(t *testing.T) {
	t.Parallel()

	s, ok := StageForRole(domain.RolePD)
	require.True(t, ok)
	assert.Equal(t, PSI, s.Key)

	s, ok = StageForRole(domain.RoleFactory)
	require.True(t, ok)
	assert.Equal(t, SampleDevelopment, s.Key)

	s, ok = StageForRole(domain.RoleMD)
	require.True(t, ok)
	assert.Equal(t, PCReview, s.Key)

	s, ok = StageForRole(domain.RoleCosting)
	require.True(t, ok)
	assert.Equal(t, Costing, s.Key)

	_, ok = StageForRole(domain.RoleTD)
	assert.False(t, ok)
	_, ok = StageForRole(domain.RoleAdmin)
	assert.False(t, ok)

	pd := StagesForRole(domain.RolePD)
	require.Len(t, pd, 2)
	assert.Equal(t, PSI, pd[0].Key)
	assert.Equal(t, ShipmentToBrand, pd[1].Key)
}

func TestFieldsForStage(t *testing.T) {
	t.Parallel()

	fields := FieldsForStage("costing")
	require.NotEmpty(t, fields)
	assert.Equal(t, "fob_price", fields[0].Key)
	assert.True(t, fields[0].Required)

	assert.Nil(t, FieldsForStage("unknown"))
}

func TestNext(t *testing.T) {
	t.Parallel()

	n, ok := Next("psi")
	require.True(t, ok)
	assert.Equal(t, SampleDevelopment, n.Key)

	_, ok = Next("shipment_to_brand")
	assert.False(t, ok)
	_, ok = Next("nope")
	assert.False(t, ok)
	assert.Equal(t, PSI, First().Key)
}

func TestEveryStageFeatureIsKnown(t *testing.T) {
	t.Parallel()
	for _, s := range All() {
		assert.True(t, domain.IsKnownFeature(s.Feature), s.Key)
		assert.True(t, s.Owner.IsEditor(), s.Key)
	}
}

func TestValidateFields(t *testing.T) {
	t.Parallel()

	costing, _ := Lookup("costing")

	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{name: "valid partial", values: map[string]any{"fob_price": 12.5, "currency": "USD"}},
		{name: "null clears field", values: map[string]any{"remarks": nil}},
		{name: "valid date", values: map[string]any{"costing_date": "2024-03-01"}},
		{name: "empty payload", values: map[string]any{}},
		{name: "unknown field", values: map[string]any{"color": "red"}, wantErr: true},
		{name: "system field", values: map[string]any{"sample_id": "x"}, wantErr: true},
		{name: "wrong number type", values: map[string]any{"fob_price": "12"}, wantErr: true},
		{name: "bad date", values: map[string]any{"costing_date": "03/01/2024"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFields(costing, tt.values)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMissingRequired(t *testing.T) {
	t.Parallel()

	review, _ := Lookup("pc_review")
	assert.Equal(t, []string{"review_date", "fit_result"}, MissingRequired(review, map[string]any{}))
	assert.Equal(t, []string{"fit_result"}, MissingRequired(review, map[string]any{"review_date": "2024-01-01", "fit_result": "  "}))
	assert.Empty(t, MissingRequired(review, map[string]any{"review_date": "2024-01-01", "fit_result": "pass"}))
}
