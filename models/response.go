package models

import (
	"time"

	"gorm.io/datatypes"
)

type Response struct {
	ID          uint                       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FormID      uint                       `gorm:"column:form_id;not null;index" json:"form_id"`
	Form        *Form                      `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"form,omitempty"`
	UserID      *uint                      `gorm:"column:user_id;index" json:"user_id,omitempty"`
	User        *User                      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Answers     datatypes.JSONSlice[Answer] `gorm:"column:answers" json:"answers"`
	SubmittedAt time.Time                  `gorm:"column:submitted_at;autoCreateTime;index" json:"submitted_at"`
}

func (Response) TableName() string {
	return "responses"
}

// AnswerFor returns the answer to questionID, if any.
func (r Response) AnswerFor(questionID string) (AnswerValue, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a.Value, true
		}
	}
	return AnswerValue{}, false
}
