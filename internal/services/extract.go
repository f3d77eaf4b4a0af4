package services

import (
	"bytes"
	"encoding/json"

	"github.com/arabadanismani/backend/internal/models"
)

// ExtractJSONArray returns the text between the first '[' and the last ']'
// inclusive. Models often wrap the array in prose or a code fence.
func ExtractJSONArray(text string) ([]byte, bool) {
	raw := []byte(text)
	start := bytes.IndexByte(raw, '[')
	end := bytes.LastIndexByte(raw, ']')
	if start < 0 || end <= start {
		return nil, false
	}
	return raw[start : end+1], true
}

// ParseRecommendations extracts and decodes the recommendation array. The
// returned raw bytes are the extracted array exactly as generated.
func ParseRecommendations(text string) ([]models.CarRecommendation, json.RawMessage, error) {
	raw, ok := ExtractJSONArray(text)
	if !ok {
		return nil, nil, ErrMalformedOutput
	}

	var cars []models.CarRecommendation
	if err := json.Unmarshal(raw, &cars); err != nil {
		return nil, nil, ErrMalformedOutput
	}
	return cars, json.RawMessage(raw), nil
}
