package models_test

import (
	"testing"

	"anonmatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		input string
		want  models.FieldValue
	}{
		{"m", models.FieldValue{Kind: models.FieldRecognized, Value: "Male"}},
		{" MALE ", models.FieldValue{Kind: models.FieldRecognized, Value: "Male"}},
		{"F", models.FieldValue{Kind: models.FieldRecognized, Value: "Female"}},
		{"female", models.FieldValue{Kind: models.FieldRecognized, Value: "Female"}},
		{"skip", models.FieldValue{Kind: models.FieldSkipped, Value: "Not specified"}},
		{"SKIP", models.FieldValue{Kind: models.FieldSkipped, Value: "Not specified"}},
		{"   ", models.FieldValue{Kind: models.FieldSkipped, Value: "Not specified"}},
		{"Non-binary", models.FieldValue{Kind: models.FieldFreeform, Value: "Non-binary"}},
		{"males", models.FieldValue{Kind: models.FieldFreeform, Value: "males"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, models.NormalizeGender(tt.input))
		})
	}
}

func TestNormalizeAge(t *testing.T) {
	assert.Equal(t, models.FieldValue{Kind: models.FieldRecognized, Value: "25"}, models.NormalizeAge(" 25 "))
	assert.Equal(t, models.FieldValue{Kind: models.FieldRecognized, Value: "7"}, models.NormalizeAge("007"))
	assert.Equal(t, models.FieldValue{Kind: models.FieldFreeform, Value: "twenty"}, models.NormalizeAge("twenty"))
	assert.Equal(t, models.FieldValue{Kind: models.FieldSkipped, Value: "Not specified"}, models.NormalizeAge("Skip"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Anonymous", models.NormalizeName("skip").String())
	assert.Equal(t, "Anonymous", models.NormalizeName("").String())
	assert.Equal(t, models.FieldFreeform, models.NormalizeName(" Alex ").Kind)
	assert.Equal(t, "Alex", models.NormalizeName(" Alex ").String())
}

func TestNormalizeFavorite(t *testing.T) {
	_, ok := models.NormalizeFavorite("   ")
	assert.False(t, ok, "blank answers are re-prompted")

	v, ok := models.NormalizeFavorite("skip")
	assert.True(t, ok)
	assert.Equal(t, models.FieldSkipped, v.Kind)
	assert.Equal(t, "Not specified", v.String())

	v, ok = models.NormalizeFavorite(" Chess ")
	assert.True(t, ok)
	assert.Equal(t, models.FieldValue{Kind: models.FieldFreeform, Value: "Chess"}, v)
}

func TestNextStep(t *testing.T) {
	assert.Equal(t, models.StepGender, models.NextStep(models.StepName))
	assert.Equal(t, models.StepFavoriteMusic, models.NextStep(models.StepFavoriteMovie))
	assert.Equal(t, "", models.NextStep(models.StepFavoriteMusic))
	assert.Equal(t, "", models.NextStep("unknown"))
}

func TestProfileDraftFields(t *testing.T) {
	d := &models.ProfileDraft{Answers: map[string]string{
		models.StepName:          "Alex",
		models.StepGender:        "Male",
		models.StepAge:           "30",
		models.StepFavoriteGame:  "Chess",
		models.StepFavoriteMovie: "Alien",
		models.StepFavoriteMusic: "Jazz",
	}}

	f := d.Fields()

	assert.Equal(t, "Alex", f.DisplayName)
	assert.Equal(t, "Male", f.Gender)
	assert.Equal(t, "30", f.Age)
	assert.Equal(t, "Chess", f.FavoriteGame)
	assert.Equal(t, "Alien", f.FavoriteMovie)
	assert.Equal(t, "Jazz", f.FavoriteMusic)
}
