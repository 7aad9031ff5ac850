package schema

import (
	"gorm.io/datatypes"
)

// Item represents the items table - an owned instance of an item type.
// Ownership (OwnerID) and equip state are independently mutable; equip state
// has no bearing on ownership transfer.
type Item struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TypeID references the item type in the catalogue
	TypeID uint64 `gorm:"column:type_id;not null;index"`
	// CharacterID references the character the item is bound to (nil when unbound)
	CharacterID *uint64 `gorm:"column:character_id;index"`
	// OwnerID references the owning user (nil for unowned world drops)
	OwnerID *uint64 `gorm:"column:owner_id;index"`
	// IsEquipped marks whether the item is currently equipped
	IsEquipped bool `gorm:"column:is_equipped;not null;default:false"`
	// Attributes holds rolled per-instance stats as JSON
	Attributes datatypes.JSON `gorm:"column:attributes;type:jsonb"`

	// Associations
	Type      ItemType   `gorm:"foreignKey:TypeID;constraint:OnDelete:RESTRICT"`
	Character *Character `gorm:"foreignKey:CharacterID;constraint:OnDelete:SET NULL"`
	Owner     *User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}
