package localization_test

import (
	"testing"
	"testing/fstest"

	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalizer_EmbeddedEnglish(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	assert.Contains(t, l.GetString("en", localization.KeyMatchFound), "Match found")
	assert.Contains(t, l.GetString("en", localization.KeyPartnerUnavailable), "Starting new search")

	for _, step := range models.OnboardingSteps[1:] {
		assert.NotEqual(t, localization.StepKey(step), l.GetString("en", localization.StepKey(step)),
			"missing prompt for step %s", step)
	}
}

func TestGetString_FallsBackToEnglishThenKey(t *testing.T) {
	fsys := fstest.MapFS{
		"en.json": {Data: []byte(`{"greeting": "hello", "bye": "goodbye"}`)},
		"uk.json": {Data: []byte(`{"greeting": "привіт"}`)},
	}
	l, err := localization.NewLocalizerFS(fsys)
	require.NoError(t, err)

	assert.Equal(t, "привіт", l.GetString("uk", "greeting"))
	assert.Equal(t, "goodbye", l.GetString("uk", "bye"))
	assert.Equal(t, "hello", l.GetString("de", "greeting"))
	assert.Equal(t, "missing", l.GetString("en", "missing"))
}

func TestFormat(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	text := l.Format("en", localization.KeyBroadcastDone, 5, 2)

	assert.Contains(t, text, "Sent to: 5 users")
	assert.Contains(t, text, "Failed: 2 users")
}

func TestNewLocalizerFS_InvalidJSON(t *testing.T) {
	_, err := localization.NewLocalizerFS(fstest.MapFS{"en.json": {Data: []byte("{")}})
	assert.Error(t, err)
}
