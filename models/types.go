package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list of free-text values stored as a JSON array in a
// text column, so the same model works on both MySQL and SQLite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(l, src)
}

// Customization is a per-line add-on selected by the customer. The name and
// price are snapshots taken at order time.
type Customization struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type CustomizationList []Customization

func (l CustomizationList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CustomizationList) Scan(src interface{}) error {
	return scanJSON(l, src)
}

// AllergenSummary is the derived aggregate computed once at order creation.
// It is never recomputed afterwards.
type AllergenSummary struct {
	AvoidAllergens          StringList `json:"avoid_allergens"`
	DietaryPreferences      StringList `json:"dietary_preferences"`
	SpecialInstructionCount int        `json:"special_instruction_count"`
}

func (s AllergenSummary) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *AllergenSummary) Scan(src interface{}) error {
	return scanJSON(s, src)
}

// HasConcerns reports whether the order carries any allergen or dietary
// handling requirement the kitchen should be alerted about.
func (s AllergenSummary) HasConcerns() bool {
	return len(s.AvoidAllergens) > 0 || len(s.DietaryPreferences) > 0
}

func scanJSON(dst interface{}, src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
