package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/cache"
    "github.com/summit-hub/booking-api/internal/model"
    "github.com/summit-hub/booking-api/internal/service"
)

// AuthHandler serves registration, login and session helpers.
type AuthHandler struct {
    Auth *service.AuthService
    CSRF cache.TokenStore
}

func NewAuthHandler(auth *service.AuthService, csrf cache.TokenStore) *AuthHandler {
    return &AuthHandler{Auth: auth, CSRF: csrf}
}

type authResp struct {
    User      *model.User `json:"user"`
    Token     string      `json:"token"`
    ExpiresAt time.Time   `json:"expiresAt"`
}

func sessionResp(s *service.Session) authResp {
    return authResp{User: s.User, Token: s.Token.Token, ExpiresAt: s.Token.Exp}
}

// CSRFToken: GET /api/auth/csrf-token
func (h *AuthHandler) CSRFToken(c echo.Context) error {
    tok, exp, err := h.CSRF.Issue(c.Request().Context())
    if err != nil {
        return apperr.Internal(err)
    }
    return c.JSON(http.StatusOK, echo.Map{"csrfToken": tok, "expiresAt": exp.UTC()})
}

// Register: POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.RegisterRequest
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    s, err := h.Auth.Register(ctx, req)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, sessionResp(s))
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
    var req service.LoginRequest
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    s, err := h.Auth.Login(ctx, req)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, sessionResp(s))
}

// Me: GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"user": u})
}
