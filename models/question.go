package models

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionDropdown       QuestionType = "dropdown"
	QuestionDate           QuestionType = "date"
	QuestionTime           QuestionType = "time"
	QuestionRating         QuestionType = "rating"
	// QuestionNumber is never produced by the form editor but older
	// payloads carry it and the report treats it like a rating.
	QuestionNumber QuestionType = "number"
)

// IsValid reports whether t may appear in an authored form.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionText, QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown,
		QuestionDate, QuestionTime, QuestionRating:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckbox || t == QuestionDropdown
}

func (t QuestionType) IsNumeric() bool {
	return t == QuestionRating || t == QuestionNumber
}

type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Description string       `json:"description,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Required    bool         `json:"required"`
}

// ValidateQuestions checks ids are present and unique and types are known.
// Choice questions may have no options.
func ValidateQuestions(qs []Question) error {
	verr := &ValidationError{}
	seen := make(map[string]struct{}, len(qs))
	for i, q := range qs {
		if q.ID == "" {
			verr.Add(fieldName("questions", i, "id"), "is required")
		} else if _, dup := seen[q.ID]; dup {
			verr.Add(fieldName("questions", i, "id"), "duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if !q.Type.IsValid() {
			verr.Add(fieldName("questions", i, "type"), "unknown question type %q", q.Type)
		}
	}
	return verr.OrNil()
}
