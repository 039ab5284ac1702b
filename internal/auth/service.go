package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// RepositoryPort abstracts user persistence for the service.
type RepositoryPort interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (int64, error)
	Update(ctx context.Context, u User) error
	SetPassword(ctx context.Context, id int64, hash string) error
}

// Service wraps authentication and user management rules.
type Service struct {
	repo   RepositoryPort
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login validates credentials and issues an access token. Failures never
// reveal whether the username or the password was wrong.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

// Me returns the account behind an actor id.
func (s *Service) Me(ctx context.Context, userID int64) (User, error) {
	return s.repo.FindByID(ctx, userID)
}

// CreateUserInput describes an account to provision.
type CreateUserInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     string
}

// CreateUser provisions an account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return User{}, fmt.Errorf("%w: username required", shared.ErrValidation)
	}
	if len(input.Password) < 6 {
		return User{}, fmt.Errorf("%w: password must be at least 6 characters", shared.ErrValidation)
	}
	if !ValidRole(input.Role) {
		return User{}, fmt.Errorf("%w: invalid role %q", shared.ErrValidation, input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Email:        input.Email,
		Role:         input.Role,
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.ID = id
	return user, nil
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateUserInput carries editable account fields.
type UpdateUserInput struct {
	FullName string
	Email    string
	Role     string
	IsActive bool
}

// UpdateUser rewrites profile fields and role.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	if !ValidRole(input.Role) {
		return User{}, fmt.Errorf("%w: invalid role %q", shared.ErrValidation, input.Role)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.FullName = input.FullName
	user.Email = input.Email
	user.Role = input.Role
	user.IsActive = input.IsActive
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangePassword replaces a user's password.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, id, string(hash))
}
