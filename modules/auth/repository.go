package auth

import (
	"errors"

	domain "github.com/RK62021/Realtime-chat-app/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("username or email already exists")
	// ErrTokenNotFound is returned when a refresh token is not on record.
	ErrTokenNotFound = errors.New("refresh token not found")
)

// UserRepository handles user and refresh-token persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(user *domain.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(id uint) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByUsername finds a user by username.
func (r *UserRepository) FindByUsername(username string) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// Exists checks whether a user with the given username or email exists.
func (r *UserRepository) Exists(username, email string) (bool, error) {
	var count int64
	result := r.db.Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// SaveRefreshToken records an issued refresh token.
func (r *UserRepository) SaveRefreshToken(userID uint, token string) error {
	return r.db.Create(&domain.AuthToken{UserID: userID, Token: token}).Error
}

// RefreshTokenExists reports whether a refresh token is on record.
func (r *UserRepository) RefreshTokenExists(token string) (bool, error) {
	var count int64
	result := r.db.Model(&domain.AuthToken{}).Where("token = ?", token).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// DeleteRefreshToken revokes a refresh token.
func (r *UserRepository) DeleteRefreshToken(token string) error {
	result := r.db.Where("token = ?", token).Delete(&domain.AuthToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
