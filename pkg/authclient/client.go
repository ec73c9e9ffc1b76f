// Package authclient calls the auth service over HTTP on behalf of other services and tools.
// Tokens travel as cookies, the same way a browser would send them.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Session holds the token pair returned in Set-Cookie headers.
type Session struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
}

type User struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  *uint  `json:"tenantId,omitempty"`
}

// StatusError carries the status and first message of a failed call.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth service responded %d: %s", e.Status, e.Message)
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return c.session(ctx, "/auth/login", bytes.NewReader(body), nil)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.session(ctx, "/auth/refresh", nil, []*http.Cookie{{Name: refreshCookie, Value: refreshToken}})
}

func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, []*http.Cookie{
		{Name: accessCookie, Value: accessToken},
		{Name: refreshCookie, Value: refreshToken},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expect(resp, http.StatusOK)
}

func (c *Client) Self(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/self", nil, []*http.Cookie{{Name: accessCookie, Value: accessToken}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &user, nil
}

func (c *Client) session(ctx context.Context, path string, body io.Reader, cookies []*http.Cookie) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body, cookies)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var result struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sess := &Session{UserID: result.ID}
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case accessCookie:
			sess.AccessToken = ck.Value
		case refreshCookie:
			sess.RefreshToken = ck.Value
		}
	}
	return sess, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, cookies []*http.Cookie) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func expect(resp *http.Response, status int) error {
	if resp.StatusCode == status {
		return nil
	}
	var envelope struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && len(envelope.Errors) > 0 {
		msg = envelope.Errors[0].Msg
	}
	return &StatusError{Status: resp.StatusCode, Message: msg}
}
