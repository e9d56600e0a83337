package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/spinlab/campaign-engine/internal/config"
	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
	"github.com/spinlab/campaign-engine/internal/utils"
)

// ErrInvalidCredentials is returned for any login failure so callers cannot
// distinguish unknown emails from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService defines the interface for operator authentication
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register creates a new operator account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("an account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      "operator",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		slog.Error("Failed to create operator account", "error", err, "email", req.Email)
		return nil, err
	}

	slog.Info("Operator account created", "userId", user.ID.Hex(), "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues a JWT
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role, s.cfg)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.JWT.ExpiresIn) * time.Second),
	}, nil
}
