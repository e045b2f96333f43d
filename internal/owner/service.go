package owner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mbobrov/filebox/internal/auth"
	"github.com/mbobrov/filebox/internal/config"
	"github.com/mbobrov/filebox/internal/folder"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordLength = 72 // bcrypt limit

// ownerStore abstracts the persistence layer.
type ownerStore interface {
	CreateOwner(ctx context.Context, name, passwordHash string) (Owner, folder.Folder, error)
	FindByName(ctx context.Context, name string) (Owner, error)
}

// Service encapsulates owner registration and authentication.
type Service struct {
	store   ownerStore
	cfg     config.AuthConfig
	nowFunc func() time.Time
	issuer  string
	parser  *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store ownerStore, cfg config.AuthConfig) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		nowFunc: time.Now,
		issuer:  "filebox",
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Register creates a new owner together with the owner's root folder.
func (s *Service) Register(ctx context.Context, name, password string) (Owner, folder.Folder, error) {
	if err := validateCredentials(name, password); err != nil {
		return Owner{}, folder.Folder{}, err
	}

	hash, err := hashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return Owner{}, folder.Folder{}, fmt.Errorf("hash password: %w", err)
	}

	o, root, err := s.store.CreateOwner(ctx, strings.TrimSpace(name), hash)
	if err != nil {
		if errors.Is(err, ErrNameAlreadyExists) {
			return Owner{}, folder.Folder{}, ErrNameAlreadyExists
		}
		return Owner{}, folder.Folder{}, fmt.Errorf("create owner: %w", err)
	}

	return o, root, nil
}

// Login authenticates credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, name, password string) (Owner, Token, error) {
	if err := validateCredentials(name, password); err != nil {
		return Owner{}, Token{}, ErrInvalidCredentials
	}

	o, err := s.store.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return Owner{}, Token{}, ErrInvalidCredentials
		}
		return Owner{}, Token{}, fmt.Errorf("find owner: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)); err != nil {
		return Owner{}, Token{}, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(o)
	if err != nil {
		return Owner{}, Token{}, fmt.Errorf("generate access token: %w", err)
	}

	return o, token, nil
}

// ValidateAccessToken verifies the token signature and extracts claims.
func (s *Service) ValidateAccessToken(tokenString string) (auth.Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Claims{}, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return auth.Claims{}, ErrUnauthorized
	}

	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return auth.Claims{}, ErrUnauthorized
	}

	name, _ := claims["name"].(string)

	expFloat, okExp := claims["exp"].(float64)
	if !okExp {
		return auth.Claims{}, ErrUnauthorized
	}
	exp := time.Unix(int64(expFloat), 0)

	iat := time.Time{}
	if iatFloat, ok := claims["iat"].(float64); ok {
		iat = time.Unix(int64(iatFloat), 0)
	}

	if exp.Before(s.nowFunc()) {
		return auth.Claims{}, ErrUnauthorized
	}

	return auth.Claims{
		OwnerID:   ownerID,
		Name:      name,
		ExpiresAt: exp,
		IssuedAt:  iat,
	}, nil
}

func (s *Service) generateAccessToken(o Owner) (Token, error) {
	now := s.nowFunc()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":  o.ID.String(),
		"iss":  s.issuer,
		"aud":  "filebox-api",
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		"name": o.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return Token{}, err
	}

	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func validateCredentials(name, password string) error {
	if len(strings.TrimSpace(name)) == 0 || len(strings.TrimSpace(password)) == 0 {
		return ErrInvalidCredentials
	}
	if strings.Contains(name, "/") {
		return ErrInvalidCredentials
	}
	if len(password) < 8 || len(password) > maxPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}
