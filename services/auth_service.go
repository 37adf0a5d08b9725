package services

import (
	"fmt"

	"team-chat/auth"
	"team-chat/domain"
	"team-chat/errors"
	"team-chat/repositories"
)

type IAuthService interface {
	Register(name, email, password string) (domain.User, Token, error)
	Login(email, password string) (domain.User, Token, error)
	Me(userID string) (domain.User, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
}

type Token string

func NewAuthService(repo repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(name, email, password string) (domain.User, Token, error) {
	valReq := auth.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}

	// Validate business rules before the expensive cryptographic work. The
	// error is passed through untouched: the HTTP layer distinguishes
	// validator.ValidationErrors from the complexity sentinel.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", err
	}

	// Hashing happens in the service layer so the repository never sees a
	// plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(name, email, hashedPassword)
	if err != nil {
		return domain.User{}, "", err // propagates ErrUserAlreadyExists
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}

func (s *AuthService) Login(email, password string) (domain.User, Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}

func (s *AuthService) Me(userID string) (domain.User, error) {
	return s.userRepository.GetUserByID(userID)
}
