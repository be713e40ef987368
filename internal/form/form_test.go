package form

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseInputValidate_TrimsAndNullsAddress(t *testing.T) {
	fields, err := HouseInput{Name: " Main St ", Address: "   "}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Main St", fields.Name)
	assert.Nil(t, fields.Address)
}

func TestHouseInputValidate_KeepsAddress(t *testing.T) {
	fields, err := HouseInput{Name: "Main St", Address: " 12 Elm Road "}.Validate()
	require.NoError(t, err)
	require.NotNil(t, fields.Address)
	assert.Equal(t, "12 Elm Road", *fields.Address)
}

func TestHouseInputValidate_RequiresName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := HouseInput{Name: name, Address: "x"}.Validate()

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "name %q", name)
		assert.Equal(t, "name", verr.Field)
	}
}

func TestHouseInputValidate_NameTooLong(t *testing.T) {
	_, err := HouseInput{Name: strings.Repeat("a", maxNameLen+1)}.Validate()
	assert.Error(t, err)
}

func TestInspectionInputValidate_DateOnly(t *testing.T) {
	fields, err := InspectionInput{Title: "Roof", InspectionDate: "2024-03-15"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Roof", fields.Title)
	assert.Nil(t, fields.Notes)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), fields.InspectionDate)
}

func TestInspectionInputValidate_RFC3339(t *testing.T) {
	fields, err := InspectionInput{Title: "Roof", InspectionDate: "2024-03-15T10:30:00+02:00", Notes: " leak "}.Validate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC), fields.InspectionDate)
	require.NotNil(t, fields.Notes)
	assert.Equal(t, "leak", *fields.Notes)
}

func TestInspectionInputValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input InspectionInput
		field string
	}{
		{name: "missing title", input: InspectionInput{Title: "  ", InspectionDate: "2024-03-15"}, field: "title"},
		{name: "missing date", input: InspectionInput{Title: "Roof"}, field: "inspection_date"},
		{name: "bad date", input: InspectionInput{Title: "Roof", InspectionDate: "15/03/2024"}, field: "inspection_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDateInputRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", DateInput(d))
}
