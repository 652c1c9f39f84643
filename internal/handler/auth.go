package handler

import (
    "context" // provides context with cancellation for DB calls
    "errors"
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // token expiry timestamps

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/coworking-booking/internal/config"     // app configuration
    "github.com/iliyamo/coworking-booking/internal/middleware" // caller identity
    "github.com/iliyamo/coworking-booking/internal/model"
    "github.com/iliyamo/coworking-booking/internal/repository" // DB repositories
    "github.com/iliyamo/coworking-booking/internal/utils"      // hashing, token issuing
)

// UserStore is the user persistence used by AuthHandler.
type UserStore interface {
    Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the refresh token persistence used by AuthHandler.
type TokenStore interface {
    Issue(ctx context.Context, userID uint64, hash string, exp time.Time) error
    Consume(ctx context.Context, hash string, now time.Time) (uint64, error)
    Revoke(ctx context.Context, hash string, now time.Time) error
    RevokeUser(ctx context.Context, userID uint64, now time.Time) (int64, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair for u and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.Issue(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register creates a MEMBER account and returns tokens immediately.  Staff
// and admin accounts are created with the CLI.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "email/password required")
    }
    if !strings.Contains(req.Email, "@") {
        return errorJSON(c, http.StatusBadRequest, "invalid email")
    }
    if err := utils.CheckPasswordPolicy(req.Password); err != nil {
        return errorJSON(c, http.StatusBadRequest, err.Error())
    }

    ctx, cancel := requestContext(c, h.Cfg.RequestTimeout)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Password, model.RoleMember, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return errorJSON(c, http.StatusConflict, "email already exists")
        }
        c.Logger().Errorf("register %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "create user failed")
    }

    resp, err := h.issue(ctx, userPart{ID: uid, Email: req.Email, Role: model.RoleMember})
    if err != nil {
        return errorJSON(c, http.StatusInternalServerError, "issue tokens failed")
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "email/password required")
    }

    ctx, cancel := requestContext(c, h.Cfg.RequestTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
        }
        return errorJSON(c, http.StatusInternalServerError, "query failed")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
    }
    if !u.IsActive {
        return errorJSON(c, http.StatusForbidden, "account disabled")
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return errorJSON(c, http.StatusInternalServerError, "issue tokens failed")
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return errorJSON(c, http.StatusBadRequest, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := requestContext(c, h.Cfg.RequestTimeout)
    defer cancel()

    userID, err := h.Tokens.Consume(ctx, hash, time.Now())
    if errors.Is(err, repository.ErrTokenInvalid) {
        return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
    }
    if err != nil {
        c.Logger().Errorf("refresh: %v", err)
        return errorJSON(c, http.StatusInternalServerError, "refresh failed")
    }

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
        }
        return errorJSON(c, http.StatusInternalServerError, "load user failed")
    }
    if !u.IsActive {
        return errorJSON(c, http.StatusForbidden, "account disabled")
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return errorJSON(c, http.StatusInternalServerError, "issue tokens failed")
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout revokes a single refresh token when one is given in the body,
// otherwise every refresh token of the bearer's user.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid, _ = claims.UserID()
        }
    }

    // Invalid JSON simply leaves the refresh token empty; the bearer may
    // still be enough.
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := requestContext(c, h.Cfg.RequestTimeout)
    defer cancel()

    switch {
    case refreshToken != "":
        err := h.Tokens.Revoke(ctx, utils.HashRefreshRaw(refreshToken), time.Now())
        if errors.Is(err, repository.ErrTokenInvalid) {
            return errorJSON(c, http.StatusUnauthorized, "invalid refresh token")
        }
        if err != nil {
            return errorJSON(c, http.StatusInternalServerError, "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    case uid != 0:
        n, err := h.Tokens.RevokeUser(ctx, uid, time.Now())
        if err != nil {
            return errorJSON(c, http.StatusInternalServerError, "logout failed")
        }
        c.Logger().Debugf("logout: revoked %d refresh tokens of user %d", n, uid)
        return c.NoContent(http.StatusNoContent)
    }
    return errorJSON(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": uid,
        "role":    middleware.Role(c),
    })
}
