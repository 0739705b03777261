package service

import (
	"errors"

	"coursepay/config"
	"coursepay/internal/auth"
	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type AuthService struct {
	cfg         *config.Config
	userRepo    *repository.UserRepository
	creatorRepo *repository.CreatorRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, creatorRepo *repository.CreatorRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, creatorRepo: creatorRepo}
}

// Register creates a user account. Creators get a profile with a fresh
// referral code; CMO and admin accounts are provisioned operationally,
// not through self-signup.
func (s *AuthService) Register(email, name, password, role string) (*models.User, string, string, error) {
	if role != domain.RoleStudent && role != domain.RoleCreator {
		role = domain.RoleStudent
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	if role == domain.RoleCreator {
		if _, err := s.creatorRepo.GetOrCreate(u.ID, nil); err != nil {
			return nil, "", "", err
		}
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, nil
}
