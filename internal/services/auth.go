package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already in use")
	ErrInvalidUsername    = errors.New("username must be 3-50 characters (letters, numbers, underscores)")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 8 characters with letters and numbers")
	ErrInvalidRole        = errors.New("invalid role")
)

type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Security.BcryptCost)
	return string(bytes), err
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// CreateUser validates and creates a new user. Fails with ErrUserExists when
// the username or email is already taken.
func (s *AuthService) CreateUser(username, email, password, role string) (*models.User, error) {
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !ValidPassword(password) {
		return nil, ErrWeakPassword
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidRole
	}

	var existing models.User
	if err := models.DB.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := models.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// Register creates a self-service account; the role is always "user".
func (s *AuthService) Register(username, email, password string) (*models.User, error) {
	return s.CreateUser(username, email, password, models.RoleUser)
}

// Authenticate verifies credentials. The failure is the same generic
// ErrInvalidCredentials whether the username or the password was wrong.
func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := models.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// CreateDefaultAdmin seeds the configured admin account on an empty database.
func (s *AuthService) CreateDefaultAdmin() error {
	var count int64
	models.DB.Model(&models.User{}).Count(&count)

	if count == 0 {
		_, err := s.CreateUser(
			s.cfg.DefaultAdmin.Username,
			s.cfg.DefaultAdmin.Email,
			s.cfg.DefaultAdmin.Password,
			models.RoleAdmin,
		)
		return err
	}

	return nil
}
