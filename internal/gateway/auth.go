package gateway

import (
	"context"
	"fmt"

	"github.com/otcheredev/hms-web/internal/models"
)

// AuthAPI is the auth service's REST surface
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{client: c}
}

// authResponse is the payload of a successful login
type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
	CID      string `json:"cid"`
	FullName string `json:"fullName"`
	Theme    string `json:"theme"`
}

// Login exchanges credentials for a session payload
func (a *AuthAPI) Login(ctx context.Context, username, password string) (*models.Session, error) {
	var resp authResponse
	body := map[string]string{"username": username, "password": password}
	if err := a.client.post(ctx, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, a.client.fail("POST", "/api/auth/login", 0, "", fmt.Errorf("login response carried no token"))
	}

	theme := models.Theme(resp.Theme)
	if !theme.Valid() {
		theme = models.ThemeDark
	}
	return &models.Session{
		Username: resp.Username,
		FullName: resp.FullName,
		Role:     models.ParseRole(resp.Role),
		CID:      resp.CID,
		Token:    resp.Token,
		Theme:    theme,
	}, nil
}

// Register creates a user account
func (a *AuthAPI) Register(ctx context.Context, req *models.RegisterRequest) error {
	return a.client.post(ctx, "/api/auth/register", nil, req, nil)
}

// Users lists accounts; cid "" lists every tenant (SUPER_ADMIN only)
func (a *AuthAPI) Users(ctx context.Context, cid string) ([]models.User, error) {
	users := []models.User{}
	if err := a.client.get(ctx, "/api/auth/users", cidQuery(cid), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleStatus enables or disables a user account
func (a *AuthAPI) ToggleStatus(ctx context.Context, id int64) error {
	return a.client.post(ctx, fmt.Sprintf("/api/auth/%d/toggle-status", id), nil, nil, nil)
}

// UpdateTheme stores the session user's theme preference
func (a *AuthAPI) UpdateTheme(ctx context.Context, theme models.Theme) error {
	return a.client.put(ctx, "/api/auth/theme", map[string]string{"theme": string(theme)}, nil)
}

