package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/agristat/internal/location"
)

func TestFlag_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Yes Flag `json:"yes"`
		No  Flag `json:"no"`
	}{Yes: true, No: false})
	require.NoError(t, err)

	assert.JSONEq(t, `{"yes":1,"no":0}`, string(data))
}

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Flag
		wantErr  bool
	}{
		{name: "number one", input: `1`, expected: true},
		{name: "number zero", input: `0`, expected: false},
		{name: "bool true", input: `true`, expected: true},
		{name: "bool false", input: `false`, expected: false},
		{name: "string yes", input: `"Yes"`, expected: true},
		{name: "null", input: `null`, expected: false},
		{name: "unsupported number", input: `2`, wantErr: true},
		{name: "unsupported string", input: `"maybe"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flag
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		input    string
		expected Flag
		wantErr  bool
	}{
		{input: "1", expected: true},
		{input: "1.0", expected: true},
		{input: " TRUE ", expected: true},
		{input: "no", expected: false},
		{input: "", expected: false},
		{input: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFlag(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFarmer_JSONFieldNames(t *testing.T) {
	farmer := Farmer{
		Location:            location.Location{County: "Nairobi", Subcounty: "Westlands", Ward: "Parklands"},
		ID:                  1,
		Name:                "Farmer 1",
		Gender:              "Female",
		YearOfBirth:         1984,
		CropProduction:      true,
		LivestockProduction: false,
		Education:           "Secondary",
		TrainingScore:       2,
	}

	data, err := json.Marshal(farmer)
	require.NoError(t, err)

	expected := `{
		"id": 1,
		"name": "Farmer 1",
		"gender": "Female",
		"year_of_birth": 1984,
		"county": "Nairobi",
		"subcounty": "Westlands",
		"ward": "Parklands",
		"crop_production": 1,
		"livestock_production": 0,
		"highest_level_of_formal_education": "Secondary",
		"formal_training_in_agriculture": 2
	}`
	assert.JSONEq(t, expected, string(data))
}

func TestLivestock_TotalIsDerived(t *testing.T) {
	herd := Livestock{
		Location:    location.Location{County: "Kiambu", Subcounty: "Thika", Ward: "Ward 1"},
		ID:          3,
		FarmerID:    9,
		MaleCount:   4,
		FemaleCount: 11,
	}
	assert.Equal(t, 15, herd.TotalCount())

	data, err := json.Marshal(herd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(15), decoded["total_livestock_count"])
	assert.Equal(t, float64(4), decoded["male_livestock_count"])
	assert.Equal(t, "Thika", decoded["subcounty"])

	t.Run("input total is ignored", func(t *testing.T) {
		var in Livestock
		err := json.Unmarshal([]byte(`{"male_livestock_count":2,"female_livestock_count":3,"total_livestock_count":99}`), &in)
		require.NoError(t, err)
		assert.Equal(t, 5, in.TotalCount())
	})
}

func TestEmptyDataset_SerializesAsArrays(t *testing.T) {
	ds := EmptyDataset()

	data, err := json.Marshal(ds.Farmers)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = json.Marshal(ds.Livestock)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
