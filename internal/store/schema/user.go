package schema

import (
	"time"
)

// User represents the users table - one account per player.
// Credential verification happens outside this service; only the hash is stored.
type User struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Username is the unique login name
	Username string `gorm:"column:username;not null;type:varchar(48);uniqueIndex"`
	// Email is the unique contact address
	Email string `gorm:"column:email;not null;type:varchar(64);uniqueIndex"`
	// PasswordHash is the salted password hash issued by the auth service
	PasswordHash string `gorm:"column:password_hash;not null;type:text"`
	// IsActive marks whether the account may participate in transfers
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// CreatedAt is the timestamp when this account was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this account was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
