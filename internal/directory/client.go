package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sales-saas/internal/config"
)

var (
	ErrUserNotFound = errors.New("directory: user not found")
	ErrInvalidID    = errors.New("directory: invalid user id")
)

// Identity is the display identity attached to records for privileged callers.
// It lives for one response and is never persisted.
type Identity struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

// User is the subset of the directory's user resource this service reads.
type User struct {
	ID              string         `json:"id"`
	FirstName       *string        `json:"first_name"`
	LastName        *string        `json:"last_name"`
	ImageURL        string         `json:"image_url"`
	EmailAddresses  []EmailAddress `json:"email_addresses"`
	PrivateMetadata map[string]any `json:"private_metadata"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

func (u User) Identity() Identity {
	out := Identity{ID: u.ID, ImageURL: u.ImageURL}
	if u.FirstName != nil {
		out.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		out.LastName = *u.LastName
	}
	if len(u.EmailAddresses) > 0 {
		out.EmailAddress = u.EmailAddresses[0].EmailAddress
	}
	return out
}

// Client talks to the identity directory's backend API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client

	lookupTimeout time.Duration
	fanoutLimit   int
	privilegeKey  string
}

func NewClient(cfg config.DirectoryConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:     cfg.SecretKey,
		http:          &http.Client{Timeout: timeout},
		lookupTimeout: cfg.LookupTimeout,
		fanoutLimit:   cfg.FanoutLimit,
		privilegeKey:  cfg.PrivilegeKey,
	}
	if c.lookupTimeout <= 0 {
		c.lookupTimeout = 3 * time.Second
	}
	if c.fanoutLimit <= 0 {
		c.fanoutLimit = 8
	}
	if c.privilegeKey == "" {
		c.privilegeKey = "admin"
	}
	return c
}

// GetUser fetches one user. Non-2xx responses are errors; 404 is ErrUserNotFound.
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	if id == "" || strings.ContainsAny(id, "/?#") {
		return User{}, ErrInvalidID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/"+url.PathEscape(id), nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("directory: get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return User{}, ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return User{}, fmt.Errorf("directory: get user: unexpected status %d", resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return User{}, fmt.Errorf("directory: decode user: %w", err)
	}
	if u.ID == "" {
		u.ID = id
	}
	return u, nil
}

// IsPrivileged reports whether the user's private metadata carries the admin flag.
// Only the literal JSON true counts; "true", 1 or any other value does not.
func (c *Client) IsPrivileged(ctx context.Context, callerID string) (bool, error) {
	u, err := c.GetUser(ctx, callerID)
	if err != nil {
		return false, err
	}
	v, ok := u.PrivateMetadata[c.privilegeKey]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	return ok && b, nil
}
