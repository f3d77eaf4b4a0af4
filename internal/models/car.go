package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PreferenceValue accepts a JSON string, number or boolean. The mobile
// client is not consistent about sending family_size as a number or a string.
type PreferenceValue string

func (p *PreferenceValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PreferenceValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*p = PreferenceValue(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*p = PreferenceValue(strconv.FormatBool(b))
	return nil
}

// CarPreferences is the questionnaire submitted by the mobile client.
type CarPreferences struct {
	Usage             PreferenceValue `json:"usage" validate:"max=200"`
	FamilySize        PreferenceValue `json:"family_size" validate:"max=50"`
	DrivingExperience PreferenceValue `json:"driving_experience" validate:"max=200"`
	FuelType          PreferenceValue `json:"fuel_type" validate:"max=100"`
	Gearbox           PreferenceValue `json:"gearbox" validate:"max=100"`
	BodyType          PreferenceValue `json:"body_type" validate:"max=100"`
	NewOrUsed         PreferenceValue `json:"new_or_used" validate:"max=100"`
	Priority          PreferenceValue `json:"priority" validate:"max=200"`
	TechLevel         PreferenceValue `json:"tech_level" validate:"max=200"`
	ExtraDesc         PreferenceValue `json:"extra_desc,omitempty" validate:"max=1000"`
	// UserID is accepted for older app builds but ignored; the verified
	// token decides whose credits are spent.
	UserID string `json:"userId,omitempty"`
}

// CarRecommendation is one entry of the generated JSON array.
type CarRecommendation struct {
	Model   string `json:"model"`
	Why     string `json:"why"`
	Segment string `json:"segment"`
}
