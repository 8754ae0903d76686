// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// DefaultBio is assigned to freshly registered users.
const DefaultBio = "Hello, I am new here!"

// User represents a user in the Diorama application.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Bio      string `json:"bio"`
	// Character holds the avatar customization document: mesh variation
	// selections and color overrides keyed by body part.
	Character CharacterConfig `gorm:"type:json" json:"character"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
	Posts     []Post          `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

// CharacterConfig is the avatar customization document. Variations maps a
// body part to a mesh variation name; Colors maps a body part to a hex color.
// Stored as a single JSON column because the frontend treats it as an opaque
// document.
type CharacterConfig struct {
	Variations map[string]string `json:"variations"`
	Colors     map[string]string `json:"colors"`
}

// Value implements driver.Valuer so GORM can persist the config as JSON.
func (c CharacterConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (c *CharacterConfig) Scan(value any) error {
	if value == nil {
		*c = CharacterConfig{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	}
	if len(data) == 0 {
		*c = CharacterConfig{}
		return nil
	}
	return json.Unmarshal(data, c)
}
