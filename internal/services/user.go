package services

import (
	"errors"

	"gorm.io/gorm"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

var ErrCannotDeleteSelf = errors.New("you cannot delete your own account")

type UserService struct {
	cfg         *config.Config
	authService *AuthService
}

func NewUserService(cfg *config.Config) *UserService {
	return &UserService{
		cfg:         cfg,
		authService: NewAuthService(cfg),
	}
}

// GetUsers returns all users without their password hashes.
func (s *UserService) GetUsers() ([]models.User, error) {
	var users []models.User
	if err := models.DB.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	for i := range users {
		users[i].PasswordHash = ""
	}

	return users, nil
}

// GetUser returns a specific user by ID
func (s *UserService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := models.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return &user, nil
}

// CreateUser creates a new user (admin operation, role is caller-supplied).
func (s *UserService) CreateUser(username, email, password, role string) (*models.User, error) {
	user, err := s.authService.CreateUser(username, email, password, role)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile updates a user's own username and email. A conflict with
// another account reports ErrUserExists without saying which field collided.
func (s *UserService) UpdateProfile(id uint, username, email string) (*models.User, error) {
	var user models.User
	if err := models.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	var existing models.User
	err := models.DB.Where("(username = ? OR email = ?) AND id != ?", username, email, id).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user.Username = username
	user.Email = email

	if err := models.DB.Save(&user).Error; err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &user, nil
}

// DeleteCascade deletes a user and all of their bookings in one transaction,
// dependent rows first. Admins cannot delete their own account.
func (s *UserService) DeleteCascade(actingUserID, targetUserID uint) error {
	if actingUserID == targetUserID {
		return ErrCannotDeleteSelf
	}

	var user models.User
	if err := models.DB.First(&user, targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", targetUserID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.User{}, targetUserID).Error; err != nil {
			return err
		}
		// The user's live sessions die with the account.
		return tx.Where("user_id = ?", targetUserID).Delete(&models.Session{}).Error
	})
}
