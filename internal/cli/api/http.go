package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"NoteKeeper/internal/cli/repo"
)

// AuthCookieName совпадает с именем cookie сервера.
const AuthCookieName = "auth_token"

// Error: ответ сервера со статусом не 2xx.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server status %d", e.Status)
	}
	return fmt.Sprintf("server status %d: %s", e.Status, e.Message)
}

// StatusOf возвращает HTTP-статус из ошибки сервера или 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client: HTTP-клиент NoteKeeper API. Token передаётся как Bearer.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// DoJSON отправляет payload (если не nil) как JSON и декодирует ответ в out (если не nil).
// Возвращает ответ, чтобы вызывающий мог прочитать cookie.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, out any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// Upload отправляет multipart/form-data с файлом в поле file и дополнительными полями.
func (c *Client) Upload(ctx context.Context, method, path string, fields map[string]string, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, err = c.do(req, out)
	return err
}

// Download копирует тело ответа в w и возвращает его Content-Type.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", errorFromBody(resp.StatusCode, resp.Body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(req *http.Request, out any) (*http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return resp, errorFromBody(resp.StatusCode, resp.Body)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decode: %w", err)
		}
	}
	return resp, nil
}

func errorFromBody(status int, r io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var m struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &m) == nil && m.Message != "" {
		msg = m.Message
	}
	return &Error{Status: status, Message: msg}
}

// PersistAuthFromResponse сохраняет токен из auth cookie, а если её нет, то из тела ответа.
func PersistAuthFromResponse(resp *http.Response, bodyToken string, store repo.TokenStore) error {
	if resp != nil {
		for _, c := range resp.Cookies() {
			if c.Name == AuthCookieName && c.Value != "" {
				return store.Save(c.Value)
			}
		}
	}
	if bodyToken != "" {
		return store.Save(bodyToken)
	}
	return errors.New("no auth token in response")
}
