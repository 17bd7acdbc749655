package models

// Relative is a person a user shares expenses with.
type Relative struct {
	Base
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_relatives_user_name" json:"user_id"`
	Name     string `gorm:"not null;uniqueIndex:idx_relatives_user_name" json:"name"`
	Degree   string `json:"degree"`
	Email    string `json:"email"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
