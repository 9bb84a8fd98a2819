// Package client, sunucunun HTTP ve websocket API'sini kullanan istemci tarafı:
// konuşma listesini ve açık konuşmayı fetch + push ile senkron tutan Store,
// HTTP API client'ı ve push aboneliği.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/akinalp/dmline/models"
)

// API, Store'un sunucudan ihtiyaç duyduğu üç çağrı.
type API interface {
	Conversations(ctx context.Context) ([]models.ConversationSummary, error)
	Messages(ctx context.Context, peerID string) ([]models.Message, error)
	Send(ctx context.Context, peerID string, req *models.SendMessageRequest) (*models.Message, error)
}

// APIError, sunucunun {success:false} yanıtı.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Session, register/login yanıtından istemcinin kullandığı kısım.
type Session struct {
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// HTTPClient, /api endpoint'leri için API implementasyonu.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient, constructor. hc nil ise http.DefaultClient kullanılır.
func NewHTTPClient(baseURL, token string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: hc}
}

// Register, yeni hesap açar ve oturum döner.
func Register(ctx context.Context, baseURL, username, password string) (*Session, error) {
	return authenticate(ctx, baseURL, "/api/auth/register", username, password)
}

// Login, mevcut hesapla oturum açar.
func Login(ctx context.Context, baseURL, username, password string) (*Session, error) {
	return authenticate(ctx, baseURL, "/api/auth/login", username, password)
}

func authenticate(ctx context.Context, baseURL, path, username, password string) (*Session, error) {
	c := NewHTTPClient(baseURL, "", nil)
	body := map[string]string{"username": username, "password": password}
	return doJSON[*Session](ctx, c, http.MethodPost, path, body)
}

// Token, Authorization header'ında kullanılan access token.
func (c *HTTPClient) Token() string {
	return c.token
}

func (c *HTTPClient) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	return doJSON[[]models.ConversationSummary](ctx, c, http.MethodGet, "/api/conversations", nil)
}

func (c *HTTPClient) Messages(ctx context.Context, peerID string) ([]models.Message, error) {
	return doJSON[[]models.Message](ctx, c, http.MethodGet, "/api/messages/"+url.PathEscape(peerID), nil)
}

func (c *HTTPClient) Send(ctx context.Context, peerID string, req *models.SendMessageRequest) (*models.Message, error) {
	return doJSON[*models.Message](ctx, c, http.MethodPost, "/api/messages/"+url.PathEscape(peerID), req)
}

func doJSON[T any](ctx context.Context, c *HTTPClient, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, &APIError{Status: resp.StatusCode, Message: "malformed response"}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return zero, &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	return env.Data, nil
}
