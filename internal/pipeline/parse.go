package pipeline

import (
	"encoding/json"
	"fmt"

	"maternal-risk/internal/features"
	"maternal-risk/internal/models"
)

// ParseSample decodes a raw JSON object into a VitalSample while
// distinguishing absent fields from explicit nulls. Standard decoding
// collapses both into a nil pointer, so the object is inspected key by
// key before the typed decode.
func ParseSample(data []byte) (models.VitalSample, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.VitalSample{}, fmt.Errorf("decode sample: %w", err)
	}

	var missing, null []string
	for _, name := range models.RequiredFields {
		val, ok := raw[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if string(val) == "null" {
			null = append(null, name)
		}
	}
	if len(missing) > 0 {
		return models.VitalSample{}, &features.MissingFeatureError{Fields: missing}
	}
	if len(null) > 0 {
		return models.VitalSample{}, &NullFeatureError{Fields: null}
	}

	var sample models.VitalSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return models.VitalSample{}, fmt.Errorf("decode sample: %w", err)
	}
	return sample, nil
}
