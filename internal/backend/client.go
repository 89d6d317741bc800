package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/pkg/response"
)

const apiPrefix = "/api/v1/auth"

// Client is the HTTP implementation of Backend. It decodes the shared
// {success, data, message, error} envelope and maps every transport failure
// to an APIError with code NETWORK_ERROR, so callers see exactly one error
// shape.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenStore
	logger  *logrus.Logger
}

// NewClient builds a Client against baseURL. tokens supplies the session
// credential for each call and receives the one issued at sign-in.
func NewClient(baseURL string, timeout time.Duration, tokens TokenStore, logger *logrus.Logger) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// envelope mirrors response.Envelope with the payload left raw.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

func networkError() *APIError {
	return &APIError{Code: response.CodeNetworkError, Message: NetworkErrorMessage}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return networkError()
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return networkError()
	}
	req.Header.Set("Content-Type", "application/json")
	if t := c.tokens.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("path", path).Debug("backend request failed")
		}
		return networkError()
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// A response we cannot parse is indistinguishable from no response.
		return networkError()
	}

	if resp.StatusCode >= 300 || !env.Success {
		code, msg := "UNKNOWN_ERROR", "An error occurred"
		if env.Error != nil {
			if env.Error.Code != "" {
				code = env.Error.Code
			}
			if env.Error.Message != "" {
				msg = env.Error.Message
			}
		}
		return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return networkError()
		}
	}
	return nil
}

type sessionPayload struct {
	User      map[string]any `json:"user"`
	SessionID string         `json:"sessionId"`
}

type profilePayload struct {
	User map[string]any `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	body := map[string]any{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	var data sessionPayload
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/signup", body, &data); err != nil {
		return nil, err
	}
	if data.SessionID != "" {
		c.tokens.SetToken(data.SessionID)
	}
	return &AuthResult{User: data.User, SessionID: data.SessionID}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]any{"email": email, "password": password}
	var data sessionPayload
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/signin", body, &data); err != nil {
		return nil, err
	}
	if data.SessionID != "" {
		c.tokens.SetToken(data.SessionID)
	}
	return &AuthResult{User: data.User, SessionID: data.SessionID}, nil
}

// SignOut tells the backend to drop the session. The local credential is
// cleared whether or not the call succeeds.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, apiPrefix+"/signout", nil, nil)
	c.tokens.ClearToken()
	return err
}

func (c *Client) GetProfile(ctx context.Context) (map[string]any, error) {
	var data profilePayload
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/profile", nil, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (map[string]any, error) {
	body := map[string]any{}
	if upd.Name != nil {
		body["name"] = *upd.Name
	}
	if upd.Email != nil {
		body["email"] = *upd.Email
	}
	var data profilePayload
	if err := c.do(ctx, http.MethodPut, apiPrefix+"/profile", body, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]any{"currentPassword": currentPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPut, apiPrefix+"/change-password", body, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, apiPrefix+"/verify-email", map[string]any{"token": token}, nil)
}

func (c *Client) ResendVerificationEmail(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, apiPrefix+"/resend-verification", map[string]any{"email": email}, nil)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, apiPrefix+"/request-password-reset", map[string]any{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]any{"token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, apiPrefix+"/reset-password", body, nil)
}

// ProbeSessionAlive issues a HEAD request against the profile endpoint; only
// the status code matters. Ambiguous outcomes report ProbeUnknown.
func (c *Client) ProbeSessionAlive(ctx context.Context) ProbeStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+apiPrefix+"/profile", nil)
	if err != nil {
		return ProbeUnknown
	}
	if t := c.tokens.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Debug("session probe failed")
		}
		return ProbeUnknown
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ProbeOK
	case resp.StatusCode == http.StatusUnauthorized:
		return ProbeUnauthorized
	default:
		return ProbeUnknown
	}
}
