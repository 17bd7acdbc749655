package models

// User owns every other row. Deleting a user removes all of its data.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
