package models

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultCategory = "general"

type Form struct {
	ID           uint                         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title        string                       `gorm:"column:title;size:255;not null" json:"title"`
	Description  string                       `gorm:"column:description;type:text" json:"description"`
	Questions    datatypes.JSONSlice[Question] `gorm:"column:questions" json:"questions"`
	IsPublic     bool                         `gorm:"column:is_public;index" json:"is_public"`
	IsPublished  bool                         `gorm:"column:is_published;index" json:"is_published"`
	RequireLogin bool                         `gorm:"column:require_login" json:"require_login"`
	Category     string                       `gorm:"column:category;size:100;not null;default:'general'" json:"category"`
	OwnerID      uint                         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Owner        *User                        `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	TemplateID   *uint                        `gorm:"column:template_id;index" json:"template_id,omitempty"`
	CreatedAt    time.Time                    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Form) TableName() string {
	return "forms"
}
