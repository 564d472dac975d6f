package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"equipmarket/internal/domain"
	"equipmarket/internal/pkg/validator"
)

type TokenIssuer interface {
	GenerateToken(username, role string) (string, error)
}

type Service struct {
	users  *Repository
	tokens TokenIssuer
}

func NewService(users *Repository, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token    string      `json:"token"`
	Role     domain.Role `json:"role"`
	Username string      `json:"username"`
}

// Authenticate checks the password and returns the account's role.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.Role, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return "", ErrBadCredential
	}
	role, ok := domain.ParseRole(u.Role)
	if !ok {
		log.Printf("auth_bad_role username=%q role=%q", u.Username, u.Role)
		return "", ErrBadCredential
	}
	return role, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	role, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			log.Printf("login_failed username=%q reason=%q", username, err)
		}
		return LoginResult{}, err
	}

	username = strings.TrimSpace(username)
	token, err := s.tokens.GenerateToken(username, string(role))
	if err != nil {
		return LoginResult{}, err
	}
	log.Printf("login_ok username=%q role=%s", username, role)
	return LoginResult{Token: token, Role: role, Username: username}, nil
}

type newUser struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"min=4,max=128"`
	Role     string `json:"role" validate:"oneof=admin seller"`
}

// CreateUser stores a seller or admin account. With useBcrypt the password is
// stored as bcrypt, otherwise as SHA-256 hex.
func (s *Service) CreateUser(ctx context.Context, username, password string, role domain.Role, useBcrypt bool) (*User, error) {
	in := newUser{Username: strings.TrimSpace(username), Password: password, Role: string(role)}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	hash := HashPassword(password)
	if useBcrypt {
		var err error
		if hash, err = HashPasswordBcrypt(password); err != nil {
			return nil, err
		}
	}

	u := &User{Username: in.Username, PasswordHash: hash, Role: in.Role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("user_created username=%q role=%s", u.Username, u.Role)
	return u, nil
}
