package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValueJSON(t *testing.T) {
	cases := []struct {
		in   string
		want AnswerValue
	}{
		{`"hello"`, TextValue("hello")},
		{`4`, NumberValue(4)},
		{`0`, NumberValue(0)},
		{`["a","b"]`, MultiChoiceValue("a", "b")},
		{`["a",3]`, MultiChoiceValue("a", "3")},
		{`[]`, MultiChoiceValue()},
		{`null`, AnswerValue{}},
		{`true`, TextValue("true")},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var v AnswerValue
			require.NoError(t, json.Unmarshal([]byte(tc.in), &v))
			assert.Equal(t, tc.want.Kind, v.Kind)
			assert.Equal(t, tc.want.String(), v.String())
		})
	}

	var v AnswerValue
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`[["nested"]]`), &v))
}

func TestAnswerMarshalKeepsRawShape(t *testing.T) {
	b, err := json.Marshal([]Answer{
		{QuestionID: "q1", Value: ChoiceValue("Yes")},
		{QuestionID: "q2", Value: MultiChoiceValue("A", "C")},
		{QuestionID: "q3", Value: NumberValue(3.5)},
		{QuestionID: "q4", Value: MultiChoiceValue()},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"question_id":"q1","answer":"Yes"},
		{"question_id":"q2","answer":["A","C"]},
		{"question_id":"q3","answer":3.5},
		{"question_id":"q4","answer":[]}
	]`, string(b))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, AnswerValue{}.IsEmpty())
	assert.True(t, TextValue("").IsEmpty())
	assert.False(t, NumberValue(0).IsEmpty())
	assert.False(t, MultiChoiceValue().IsEmpty())
	assert.False(t, TextValue("0").IsEmpty())
}

func testQuestions() []Question {
	return []Question{
		{ID: "name", Type: QuestionText, Required: true},
		{ID: "color", Type: QuestionMultipleChoice, Options: []string{"Red", "Blue"}},
		{ID: "langs", Type: QuestionCheckbox, Options: []string{"Go", "Rust", "Zig"}},
		{ID: "score", Type: QuestionRating},
		{ID: "free", Type: QuestionDropdown},
	}
}

func TestNormalizeAnswersCoerces(t *testing.T) {
	out, err := NormalizeAnswers(testQuestions(), []Answer{
		{QuestionID: "name", Value: TextValue("Ann")},
		{QuestionID: "color", Value: TextValue("Blue")},
		{QuestionID: "langs", Value: TextValue("Go")},
		{QuestionID: "score", Value: TextValue(" 4 ")},
		{QuestionID: "free", Value: MultiChoiceValue("anything")},
	})
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, TextValue("Ann"), out[0].Value)
	assert.Equal(t, ChoiceValue("Blue"), out[1].Value)
	assert.Equal(t, MultiChoiceValue("Go"), out[2].Value)
	assert.Equal(t, NumberValue(4), out[3].Value)
	assert.Equal(t, ChoiceValue("anything"), out[4].Value)
}

func TestNormalizeAnswersDropsUnanswered(t *testing.T) {
	out, err := NormalizeAnswers(testQuestions(), []Answer{
		{QuestionID: "name", Value: TextValue("Ann")},
		{QuestionID: "color", Value: TextValue("")},
		{QuestionID: "score", Value: NumberValue(0)},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "score", out[1].QuestionID)
	assert.Equal(t, NumberValue(0), out[1].Value)
}

func TestNormalizeAnswersRejects(t *testing.T) {
	cases := map[string][]Answer{
		"missing required": {{QuestionID: "color", Value: TextValue("Red")}},
		"unknown question": {{QuestionID: "name", Value: TextValue("x")}, {QuestionID: "nope", Value: TextValue("x")}},
		"bad option":       {{QuestionID: "name", Value: TextValue("x")}, {QuestionID: "color", Value: TextValue("Green")}},
		"bad checkbox":     {{QuestionID: "name", Value: TextValue("x")}, {QuestionID: "langs", Value: MultiChoiceValue("Go", "C")}},
		"not a number":     {{QuestionID: "name", Value: TextValue("x")}, {QuestionID: "score", Value: TextValue("five")}},
		"list for text":    {{QuestionID: "name", Value: MultiChoiceValue("a", "b")}},
		"duplicate":        {{QuestionID: "name", Value: TextValue("x")}, {QuestionID: "name", Value: TextValue("y")}},
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeAnswers(testQuestions(), answers)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Fields)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	assert.NoError(t, ValidateQuestions(testQuestions()))
	assert.NoError(t, ValidateQuestions([]Question{{ID: "a", Type: QuestionCheckbox}}))

	err := ValidateQuestions([]Question{
		{ID: "a", Type: QuestionText},
		{ID: "a", Type: QuestionText},
		{ID: "", Type: "slider"},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}

func TestRoleRank(t *testing.T) {
	assert.Less(t, RoleUser.Rank(), RoleAdmin.Rank())
	assert.Less(t, RoleAdmin.Rank(), RoleSuperAdmin.Rank())
	assert.False(t, Role("owner").IsValid())
	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.co"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("a b@c.d"))
}
