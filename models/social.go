package models

import "time"

// Items that can be liked or commented on.
const (
	ItemForm     = "form"
	ItemTemplate = "template"
)

type Like struct {
	ItemType  string    `gorm:"column:item_type;primaryKey;size:20" json:"item_type"`
	ItemID    uint      `gorm:"column:item_id;primaryKey" json:"item_id"`
	UserID    uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

type Comment struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ItemType  string    `gorm:"column:item_type;size:20;not null;index:idx_comment_item" json:"item_type"`
	ItemID    uint      `gorm:"column:item_id;not null;index:idx_comment_item" json:"item_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ParentID  *uint     `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Text      string    `gorm:"column:text;type:text;not null" json:"text"`
	Replies   []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
