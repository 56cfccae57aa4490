package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/pocketledger/internal/domain"
)

// ErrEmailTaken is returned when registering an email that already exists.
// It must not wrap domain.ErrRecordAlreadyExists.
var ErrEmailTaken = errors.New("email already registered")

// UserUseCase handles registration and authentication.
type UserUseCase struct {
	userRepo UserRepository
	tokens   TokenIssuer
	idRetry  IDRetryPolicy
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(userRepo UserRepository, tokens TokenIssuer, idRetry IDRetryPolicy) *UserUseCase {
	idRetry.Entity = "user"
	return &UserUseCase{userRepo: userRepo, tokens: tokens, idRetry: idRetry}
}

// RegisterInput represents input for creating a user
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a user with a hashed password.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := domain.CreateUser(input.Email, input.Name, input.Password)
	if err != nil {
		return nil, err
	}

	existing, err := uc.userRepo.GetByEmail(ctx, nil, user.Email())
	switch {
	case err == nil && existing != nil:
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	err = SaveWithIDRetry(ctx, uc.idRetry, user, func(ctx context.Context, u *domain.User) error {
		return uc.userRepo.Create(ctx, nil, u)
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuthenticateInput represents authentication input
type AuthenticateInput struct {
	Email    string
	Password string
}

// Authenticate verifies credentials and issues an access token.
func (uc *UserUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*domain.User, string, error) {
	email, err := domain.ParseEmail(input.Email)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := uc.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.CheckPassword(input.Password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id domain.ID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, nil, id)
}
