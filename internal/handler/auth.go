package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type userPart struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        model.Role `json:"role"`
}

type authResp struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	User      userPart  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newAuthResp(res service.AuthResult, msg string) authResp {
	a := res.Account
	return authResp{
		Success:   true,
		Message:   msg,
		User:      userPart{ID: a.ID, PhoneNumber: a.PhoneNumber, FirstName: a.FirstName, LastName: a.LastName, Role: a.Role},
		Token:     res.Token.Token,
		ExpiresAt: res.Token.Exp,
	}
}

// Register: create the account and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.Registration
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newAuthResp(res, "account registered"))
}

// Login: exchange a phone number (and, for admins, a password) for a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req model.Credentials
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.Auth.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAuthResp(res, ""))
}

// Profile: the authenticated caller's own account.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := service.IdentityFrom(ctx)
	if !ok {
		return apperr.New(apperr.KindMissingToken, "missing bearer token")
	}
	acc, err := h.Auth.Profile(ctx, id.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": acc})
}

// UpdateProfile: PUT|PATCH the caller's own account. The token is not
// reissued; claims catch up on the next login.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := service.IdentityFrom(ctx)
	if !ok {
		return apperr.New(apperr.KindMissingToken, "missing bearer token")
	}
	var patch model.AccountPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	acc, err := h.Auth.UpdateProfile(ctx, id.ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": acc})
}
