package user

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;type:text" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" json:"email"`
	Name         string    `gorm:"type:text" json:"name"`
	PasswordHash string    `gorm:"not null;type:text" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// AuthToken stores an issued refresh token so it can be revoked on logout.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null;type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the AuthToken entity.
func (AuthToken) TableName() string {
	return "auth_tokens"
}

// TokenPair represents access and refresh tokens issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the decoded identity carried by a verified token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}
