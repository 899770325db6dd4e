package models

import (
	"time"

	"gorm.io/datatypes"
)

// Template is a reusable question set. It has no published state; a
// template is visible when it is public.
type Template struct {
	ID          uint                         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string                       `gorm:"column:title;size:255;not null" json:"title"`
	Description string                       `gorm:"column:description;type:text" json:"description"`
	Questions   datatypes.JSONSlice[Question] `gorm:"column:questions" json:"questions"`
	IsPublic    bool                         `gorm:"column:is_public;index" json:"is_public"`
	Category    string                       `gorm:"column:category;size:100;not null;default:'general'" json:"category"`
	OwnerID     uint                         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Owner       *User                        `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	CreatedAt   time.Time                    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}
