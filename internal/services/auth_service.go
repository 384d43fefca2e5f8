package services

import (
	"time"

	"pasar/internal/apperrors"
	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token validation.
type AuthService struct {
	uow       repositories.UnitOfWork
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(uow repositories.UnitOfWork, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{uow: uow, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// RegisterUser creates a customer account with a bcrypt-hashed password.
func (s *AuthService) RegisterUser(user *models.User) error {
	if _, err := s.uow.Users().GetByEmail(user.Email); err == nil {
		return apperrors.ErrEmailDuplication
	} else if apperrors.Kind(err) != apperrors.ErrCustomerNotFound {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}
	user.Password = string(hashed)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Status = models.UserActivated
	return s.uow.Users().Create(user)
}

// LoginUser checks the credentials and issues a signed JWT. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) LoginUser(email, password string) (string, error) {
	user, err := s.uow.Users().GetByEmail(email)
	if err != nil {
		if apperrors.Kind(err) == apperrors.ErrCustomerNotFound {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}
	if user.Status != models.UserActivated {
		return "", apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidCredentials
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrInvalidCredentials)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidCredentials
	}
	return claims, nil
}

// GetUserByID retrieves a customer profile.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	return s.uow.Users().GetByID(id)
}

// UpdateUser replaces mutable profile fields of an existing customer.
func (s *AuthService) UpdateUser(user *models.User) error {
	current, err := s.uow.Users().GetByID(user.ID)
	if err != nil {
		return err
	}
	user.Email = current.Email
	user.Password = current.Password
	user.Role = current.Role
	user.Status = current.Status
	return s.uow.Users().Update(user)
}
