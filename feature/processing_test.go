package feature

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuckets(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"position zero", SegmentPosition(0), "beginning"},
		{"position quarter", SegmentPosition(0.25), "beginning"},
		{"position half", SegmentPosition(0.5), "early"},
		{"position 0.6", SegmentPosition(0.6), "middle"},
		{"position 0.75", SegmentPosition(0.75), "middle"},
		{"position 0.9", SegmentPosition(0.9), "end"},
		{"completion zero is outside", CompletionCategory(0), ""},
		{"completion 0.1", CompletionCategory(0.1), "barely_watched"},
		{"completion 0.5", CompletionCategory(0.5), "partial"},
		{"completion 0.85", CompletionCategory(0.85), "mostly"},
		{"completion 1.0", CompletionCategory(1.0), "complete"},
		{"completion above one", CompletionCategory(1.2), ""},
		{"completion NaN", CompletionCategory(math.NaN()), ""},
		{"experience 100", UserExperience(100), "new"},
		{"experience 101", UserExperience(101), "casual"},
		{"experience 2000", UserExperience(2000), "regular"},
		{"experience large", UserExperience(1e6), "heavy"},
		{"experience zero", UserExperience(0), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := FitLabelEncoder([]string{"tv", "mobile", "desktop", "tv"})
	assert.Equal(t, []string{"desktop", "mobile", "tv"}, enc.Classes)

	code, ok := enc.Encode("mobile")
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	code, ok = enc.Encode("watch")
	assert.False(t, ok)
	assert.Equal(t, UnseenCode, code)
}

func TestEncoderSet_RoundTrip(t *testing.T) {
	set := EncoderSet{
		ColDeviceType: FitLabelEncoder([]string{"tv", "mobile"}),
		ColSex:        FitLabelEncoder([]string{"Male", "Female", "Other"}),
	}
	path := filepath.Join(t.TempDir(), "encoders.json")
	require.NoError(t, SaveEncoders(path, set))

	loaded, err := LoadEncoders(path)
	require.NoError(t, err)
	assert.Equal(t, set[ColSex].Classes, loaded[ColSex].Classes)
	assert.Equal(t, set[ColDeviceType].Classes, loaded[ColDeviceType].Classes)
}

func TestEncoderSetFromMappings_Invalid(t *testing.T) {
	_, err := EncoderSetFromMappings(map[string]map[string]int{"sex": {"a": 0, "b": 0}})
	assert.Error(t, err)
}

func TestAdapter_ColumnOrderFollowsFrozenList(t *testing.T) {
	encoders := EncoderSet{ColDeviceType: FitLabelEncoder([]string{"desktop", "mobile", "tv"})}
	frozen := []string{ColIsWeekend, "device_type_encoded", ColPacingScore, "legacy_feature"}
	adapter := NewAdapter(encoders, frozen)

	records := []Record{
		{PacingScore: 3, DeviceType: "tv", IsWeekend: 1},
		{PacingScore: math.NaN(), DeviceType: "smart-fridge"},
	}
	m, stats := adapter.Transform(records)

	assert.Equal(t, frozen, m.Columns)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, []float64{1, 2, 3, 0}, m.Rows[0])
	assert.Equal(t, []float64{0, UnseenCode, 0, 0}, m.Rows[1])
	assert.Equal(t, 1, stats.Unseen[ColDeviceType])
	assert.Equal(t, 1, stats.UnseenTotal())
	assert.Equal(t, []string{"legacy_feature"}, stats.MissingColumns)
}

func TestAdapter_CategoricalWithoutEncoderIsZero(t *testing.T) {
	adapter := NewAdapter(EncoderSet{}, []string{"sex_encoded"})
	m, stats := adapter.Transform([]Record{{Sex: "Female"}})
	assert.Equal(t, []float64{0}, m.Rows[0])
	assert.Equal(t, []string{"sex_encoded"}, stats.MissingColumns)
}

func TestImputer(t *testing.T) {
	records := []Record{
		{Openness: 0.2, Sex: "Male", Genres: "drama"},
		{Openness: 0.8, Sex: "Female", Genres: "action"},
		{Openness: math.NaN(), Sex: "", Genres: "action"},
		{Openness: 0.4, Sex: "Female", Genres: ""},
		{Openness: 1.0, Sex: "Male", Genres: "drama"},
	}
	imp := FitImputer(records)
	imp.Apply(records)

	assert.InDelta(t, 0.6, records[2].Openness, 1e-9)
	// Male 与 Female 并列，取字典序最小
	assert.Equal(t, "Female", records[2].Sex)
	assert.Equal(t, "action", records[3].Genres)
	// 整列缺失
	assert.Equal(t, UnknownCategory, records[0].CompletionCategory)
}

func TestColumns(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, 36)
	assert.Equal(t, ColAge, cols[0])
	assert.Equal(t, ColIntensityExtraversionMatch, cols[25])
	assert.Equal(t, "sex_encoded", cols[26])
	assert.Equal(t, "completion_category_encoded", cols[34])
	assert.Equal(t, ColIsWeekend, cols[35])
}

func TestFeatureMetadata_Formats(t *testing.T) {
	dir := t.TempDir()

	objPath := filepath.Join(dir, "features.json")
	require.NoError(t, SaveFeatureMetadata(objPath, NewFeatureMetadata(Columns(), "v1", "2024-01-01T00:00:00Z")))
	meta, err := LoadFeatureMetadata(objPath)
	require.NoError(t, err)
	assert.Equal(t, Columns(), meta.FeatureColumns)
	assert.Equal(t, "v1", meta.ModelVersion)

	listPath := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(listPath, []byte(`["age","sex_encoded"]`), 0o644))
	meta, err = LoadFeatureMetadata(listPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "sex_encoded"}, meta.FeatureColumns)

	_, err = LoadFeatureMetadata(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
