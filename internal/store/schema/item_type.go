package schema

// ItemType represents the item_types table - the static catalogue of item kinds.
type ItemType struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;not null;type:varchar(50)"`
	Kind        string `gorm:"column:kind;not null;type:varchar(50)"`
	Rarity      string `gorm:"column:rarity;not null;type:varchar(50)"`
	Description string `gorm:"column:description;type:text"`
}

// TableName specifies the table name for the ItemType model
func (ItemType) TableName() string {
	return "item_types"
}
