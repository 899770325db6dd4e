package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValueKind tags which field of an AnswerValue is meaningful.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindText
	KindChoice
	KindMultiChoice
	KindNumber
)

// AnswerValue is one submitted answer. On the wire it is the bare JSON
// value: a string, a list of strings or a number.
type AnswerValue struct {
	Kind    ValueKind
	Text    string
	Choices []string
	Number  float64
}

func TextValue(s string) AnswerValue { return AnswerValue{Kind: KindText, Text: s} }
func ChoiceValue(s string) AnswerValue { return AnswerValue{Kind: KindChoice, Text: s} }
func MultiChoiceValue(s ...string) AnswerValue { return AnswerValue{Kind: KindMultiChoice, Choices: s} }
func NumberValue(f float64) AnswerValue { return AnswerValue{Kind: KindNumber, Number: f} }

// IsEmpty reports whether the value counts as "no answer". Zero and an
// empty selection list are answers.
func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case KindNone:
		return true
	case KindText, KindChoice:
		return v.Text == ""
	}
	return false
}

// String renders the value the way it is counted in text summaries:
// lists are comma joined, numbers use the shortest decimal form.
func (v AnswerValue) String() string {
	switch v.Kind {
	case KindText, KindChoice:
		return v.Text
	case KindMultiChoice:
		return strings.Join(v.Choices, ",")
	case KindNumber:
		return FormatNumber(v.Number)
	}
	return ""
}

func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText, KindChoice:
		return json.Marshal(v.Text)
	case KindMultiChoice:
		if v.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Choices)
	case KindNumber:
		return json.Marshal(v.Number)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts any scalar or a flat list. Strings decode as
// text; the submission boundary narrows them to choices per question.
func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		choices := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				choices = append(choices, s)
				continue
			}
			if r[0] == '{' || r[0] == '[' {
				return fmt.Errorf("answer list may only hold scalars")
			}
			choices = append(choices, string(bytes.TrimSpace(r)))
		}
		*v = MultiChoiceValue(choices...)
	case 't', 'f':
		var bv bool
		if err := json.Unmarshal(b, &bv); err != nil {
			return err
		}
		*v = TextValue(strconv.FormatBool(bv))
	case '{':
		return fmt.Errorf("answer must be a string, number or list")
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*v = NumberValue(f)
	}
	return nil
}

type Answer struct {
	QuestionID string      `json:"question_id"`
	Value      AnswerValue `json:"answer"`
}

// NormalizeAnswers checks a submission against the form's questions and
// coerces every value into the shape its question type expects.
// Unanswered optional questions are dropped.
func NormalizeAnswers(questions []Question, answers []Answer) ([]Answer, error) {
	verr := &ValidationError{}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answered := make(map[string]struct{}, len(answers))
	out := make([]Answer, 0, len(answers))
	for i, a := range answers {
		field := fieldName("answers", i, "answer")
		q, ok := byID[a.QuestionID]
		if !ok {
			verr.Add(fieldName("answers", i, "question_id"), "unknown question %q", a.QuestionID)
			continue
		}
		if _, dup := answered[a.QuestionID]; dup {
			verr.Add(fieldName("answers", i, "question_id"), "question %q answered twice", a.QuestionID)
			continue
		}
		if a.Value.IsEmpty() {
			continue
		}
		val, err := coerce(q, a.Value)
		if err != nil {
			verr.Add(field, "%s", err.Error())
			continue
		}
		answered[a.QuestionID] = struct{}{}
		out = append(out, Answer{QuestionID: a.QuestionID, Value: val})
	}

	for _, q := range questions {
		if _, ok := answered[q.ID]; q.Required && !ok {
			verr.Add("answers", "question %q is required", q.ID)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func coerce(q Question, v AnswerValue) (AnswerValue, error) {
	switch {
	case q.Type.IsNumeric():
		switch v.Kind {
		case KindNumber:
			return v, nil
		case KindText, KindChoice:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
			if err != nil {
				return v, fmt.Errorf("expected a number, got %q", v.Text)
			}
			return NumberValue(f), nil
		}
		return v, fmt.Errorf("expected a number")

	case q.Type == QuestionCheckbox:
		var picked []string
		switch v.Kind {
		case KindMultiChoice:
			picked = v.Choices
		case KindText, KindChoice, KindNumber:
			picked = []string{v.String()}
		}
		for _, p := range picked {
			if !allowedOption(q, p) {
				return v, fmt.Errorf("%q is not an option", p)
			}
		}
		return MultiChoiceValue(picked...), nil

	case q.Type.IsChoice():
		var picked string
		switch v.Kind {
		case KindMultiChoice:
			if len(v.Choices) != 1 {
				return v, fmt.Errorf("expected a single choice")
			}
			picked = v.Choices[0]
		default:
			picked = v.String()
		}
		if !allowedOption(q, picked) {
			return v, fmt.Errorf("%q is not an option", picked)
		}
		return ChoiceValue(picked), nil
	}

	if v.Kind == KindMultiChoice {
		return v, fmt.Errorf("expected a single value")
	}
	return TextValue(v.String()), nil
}

// Questions without declared options accept any value.
func allowedOption(q Question, s string) bool {
	return len(q.Options) == 0 || slices.Contains(q.Options, s)
}

func fieldName(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}
