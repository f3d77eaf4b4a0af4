package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarPreferences_UnmarshalMixedTypes(t *testing.T) {
	body := `{
		"usage": "şehir içi",
		"family_size": 4,
		"driving_experience": "5 yıl",
		"fuel_type": "hibrit",
		"gearbox": "otomatik",
		"body_type": "SUV",
		"new_or_used": "ikinci el",
		"priority": "yakıt ekonomisi",
		"tech_level": true,
		"extra_desc": null,
		"userId": "legacy-id"
	}`

	var prefs CarPreferences
	require.NoError(t, json.Unmarshal([]byte(body), &prefs))

	assert.Equal(t, PreferenceValue("şehir içi"), prefs.Usage)
	assert.Equal(t, PreferenceValue("4"), prefs.FamilySize)
	assert.Equal(t, PreferenceValue("true"), prefs.TechLevel)
	assert.Equal(t, PreferenceValue(""), prefs.ExtraDesc)
	assert.Equal(t, "legacy-id", prefs.UserID)
}

func TestPreferenceValue_RejectsObjects(t *testing.T) {
	var prefs CarPreferences
	err := json.Unmarshal([]byte(`{"usage": {"nested": true}}`), &prefs)
	assert.Error(t, err)
}
