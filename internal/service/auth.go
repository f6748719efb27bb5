package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/repository"
	"github.com/summit-hub/booking-api/internal/utils"
)

// UserAccounts is the user persistence behind registration and login.
type UserAccounts interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthConfig holds token and hashing settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService registers traders and issues bearer tokens.
type AuthService struct {
	users UserAccounts
	cfg   AuthConfig
}

func NewAuthService(u UserAccounts, cfg AuthConfig) *AuthService {
	return &AuthService{users: u, cfg: cfg}
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	LegalID  string `json:"legalId"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a user together with a freshly signed token.
type Session struct {
	User  *model.User       `json:"user"`
	Token utils.AccessToken `json:"-"`
}

func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

func normalizeEmail(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return s, false
	}
	return s, true
}

// Register validates req, stores a TRADER and signs a token for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	fullName := strings.Join(strings.Fields(req.FullName), " ")
	if !lengthBetween(fullName, 5, 100) {
		return nil, apperr.Validation("fullName must be between 5 and 100 characters")
	}
	legalID := utils.DigitsOnly(req.LegalID)
	if !utils.ValidLegalID(legalID) {
		return nil, apperr.Validation("legalId is not a valid CPF")
	}
	phone := utils.DigitsOnly(req.Phone)
	if len(phone) < 10 || len(phone) > 15 {
		return nil, apperr.Validation("phone must have between 10 and 15 digits")
	}
	company := strings.TrimSpace(req.Company)
	if !lengthBetween(company, 2, 100) {
		return nil, apperr.Validation("company must be between 2 and 100 characters")
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		return nil, apperr.Validation("invalid email")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &model.User{
		Name:         FirstName(fullName),
		FullName:     fullName,
		LegalID:      legalID,
		Phone:        phone,
		Company:      company,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleTrader,
	}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Validation("email already registered")
		case errors.Is(err, repository.ErrDuplicateLegalID):
			return nil, apperr.Validation("legalId already registered")
		}
		return nil, apperr.Internal(err)
	}
	return s.session(u)
}

// Login checks credentials.  Unknown e-mail and wrong password are
// indistinguishable to the client.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.session(u)
}

func (s *AuthService) session(u *model.User) (*Session, error) {
	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, string(u.Role), s.cfg.TokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: u, Token: tok}, nil
}

// FirstName returns the first word of a full name.
func FirstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return full
}
