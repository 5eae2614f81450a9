package types

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a StudentRecord from a flat JSON object. Numeric
// members become feature fields; student_id and semester are pulled out and
// never enter the feature map. Non-numeric members other than those two are
// rejected so a malformed row fails loudly instead of predicting garbage.
func (r *StudentRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Fields = make(map[string]float64, len(raw))
	for key, val := range raw {
		switch key {
		case "student_id":
			if err := json.Unmarshal(val, &r.StudentID); err != nil {
				return fmt.Errorf("student_id must be a string: %w", err)
			}
		case "semester":
			if err := json.Unmarshal(val, &r.Semester); err != nil {
				return fmt.Errorf("semester must be an integer: %w", err)
			}
		default:
			var num float64
			if err := json.Unmarshal(val, &num); err != nil {
				// Tolerate JSON null as an absent field.
				var isNull interface{}
				if jerr := json.Unmarshal(val, &isNull); jerr == nil && isNull == nil {
					continue
				}
				return fmt.Errorf("field %q must be numeric: %w", key, err)
			}
			r.Fields[key] = num
		}
	}
	return nil
}

// MarshalJSON flattens a StudentRecord back to the wire shape.
func (r StudentRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Fields)+2)
	for k, v := range r.Fields {
		flat[k] = v
	}
	if r.StudentID != "" {
		flat["student_id"] = r.StudentID
	}
	if r.Semester != 0 {
		flat["semester"] = r.Semester
	}
	return json.Marshal(flat)
}
