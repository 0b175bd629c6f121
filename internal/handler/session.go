package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/session"
)

// SessionHandler exposes sign-in, sign-up and profile edits.
type SessionHandler struct {
	Session *session.Store
}

// NewSessionHandler wires the handler to its store.
func NewSessionHandler(s *session.Store) *SessionHandler {
	return &SessionHandler{Session: s}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Get handles GET /v1/session: returns the current session snapshot;
// anonymous is a 200 too.
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Session.Snapshot())
}

// Login handles POST /v1/session/login.  Bad credentials answer 401 with
// the backend message and no redirect.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	u, err := h.Session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Signup handles POST /v1/session/signup: answers 201.  When the backend
// issued no token the body carries signInRequired=true and the UI moves to
// the sign-in form.
func (h *SessionHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	res, err := h.Session.Signup(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Logout handles POST /v1/session/logout.  It succeeds when already signed
// out.
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.Session.Logout(c.Request().Context()); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile handles PUT /v1/session/profile.  Only the fields present
// in the body are sent.
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req gateway.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	u, err := h.Session.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
