package schema

import (
	"time"
)

// Character represents the characters table - a user may play several characters,
// and items can be bound to one of them.
type Character struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;index"`
	Name      string    `gorm:"column:name;not null;type:varchar(64)"`
	Level     int       `gorm:"column:level;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Character model
func (Character) TableName() string {
	return "characters"
}
