// Package client is the HTTP client the portal CLI drives.  It talks
// to the report service, persists the session between runs, and keeps
// the last successful listings so a flaky connection still shows the
// most recent known state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TransportError marks failures that happened before the server could
// answer: refused connections, timeouts, DNS.  Callers can distinguish
// these from server rejections and fall back to cached listings.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError carries a server rejection: the HTTP status and the message
// from the error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("server: %d %s", e.Status, e.Message) }

// User is the identity part of a session response.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the response of a successful login or refresh.
type Session struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
	Refresh struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"refresh"`
}

// Report mirrors the server's report listing entry.
type Report struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	Name        string    `json:"name"`
	Version     uint32    `json:"version"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
}

// Project mirrors the server's project listing entry.
type Project struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	ClientID    uint64    `json:"client_id"`
	ClientEmail string    `json:"client_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Reports     []Report  `json:"reports"`
}

// Comment mirrors a thread entry under a report.
type Comment struct {
	ID        uint64    `json:"id"`
	ReportID  uint64    `json:"report_id"`
	UserEmail string    `json:"user_email"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientRecord mirrors a registry entry in the admin listing.
type ClientRecord struct {
	ID      uint64    `json:"id"`
	Email   string    `json:"email"`
	Status  string    `json:"status"`
	AddedAt time.Time `json:"added_at"`
}

// Client talks to the report service.  Listings are cached after each
// successful fetch; the cache is served only when the server cannot be
// reached and is dropped on any mutation that could stale it.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Session SessionStore

	mu           sync.Mutex
	lastProjects []Project
	lastClients  []ClientRecord
}

// New builds a Client against baseURL with the given session store.
func New(baseURL string, session SessionStore) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Session: session,
	}
}

// CurrentUser reports the stored identity, if any.
func (c *Client) CurrentUser() (string, bool) {
	return c.Session.Get(keyUser)
}

// ---- Login flows ----

// RequestOTP asks the server to send a one-time code to email.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/generate-otp", map[string]string{"email": email}, nil)
}

// VerifyOTP exchanges a pending code for a client session and stores it.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	var s Session
	if err := c.postJSON(ctx, "/verify-otp", map[string]string{"email": email, "otp": code}, &s); err != nil {
		return nil, err
	}
	return &s, c.storeSession(&s)
}

// AdminLogin performs the password login for admin emails and stores
// the resulting session.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.postJSON(ctx, "/admin-login", map[string]string{"email": email, "password": password}, &s); err != nil {
		return nil, err
	}
	return &s, c.storeSession(&s)
}

// Me asks the server who the stored token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes every server session for the stored identity and
// clears the local one.  The local session is cleared even when the
// server cannot be reached, so the CLI never stays logged in against
// the user's wish.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout-all", nil, "", nil)
	if clearErr := c.Session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	c.mu.Lock()
	c.lastProjects = nil
	c.lastClients = nil
	c.mu.Unlock()
	return err
}

func (c *Client) storeSession(s *Session) error {
	if err := c.Session.Set(keyUser, s.User.Email); err != nil {
		return err
	}
	return c.Session.Set(keyToken, s.Token)
}

// ---- Listings ----

// Projects fetches the projects the session may see.  On a transport
// failure the last successful result, when present, is returned instead.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var list []Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, "", &list)
	var te *TransportError
	if errors.As(err, &te) {
		c.mu.Lock()
		cached := c.lastProjects
		c.mu.Unlock()
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lastProjects = list
	c.mu.Unlock()
	return list, nil
}

// Clients fetches the registry.  Admin only; same offline fallback as
// Projects.
func (c *Client) Clients(ctx context.Context) ([]ClientRecord, error) {
	var list []ClientRecord
	err := c.do(ctx, http.MethodGet, "/admin/clients", nil, "", &list)
	var te *TransportError
	if errors.As(err, &te) {
		c.mu.Lock()
		cached := c.lastClients
		c.mu.Unlock()
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lastClients = list
	c.mu.Unlock()
	return list, nil
}

// Comments fetches the thread under a report, oldest first.
func (c *Client) Comments(ctx context.Context, reportID uint64) ([]Comment, error) {
	var list []Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/comments/%d", reportID), nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ---- Mutations ----

// AddClient registers a new client email.
func (c *Client) AddClient(ctx context.Context, email string) error {
	defer c.dropClients()
	return c.postJSON(ctx, "/admin/add-client", map[string]string{"email": email}, nil)
}

// UpdateClient changes a client's email.
func (c *Client) UpdateClient(ctx context.Context, id uint64, email string) error {
	defer c.dropClients()
	body, _ := json.Marshal(map[string]string{"email": email})
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/update-client/%d", id), bytes.NewReader(body), "application/json", nil)
}

// ToggleClient flips a client between active and inactive.
func (c *Client) ToggleClient(ctx context.Context, id uint64) error {
	defer c.dropClients()
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/toggle-client/%d", id), nil, "", nil)
}

// DeleteClient removes a client from the registry.
func (c *Client) DeleteClient(ctx context.Context, id uint64) error {
	defer c.dropClients()
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/delete-client/%d", id), nil, "", nil)
}

// CreateProject creates a project for clientID with filePath as its
// first report.
func (c *Client) CreateProject(ctx context.Context, title string, clientID uint64, filePath string) error {
	defer c.dropProjects()
	fields := map[string]string{
		"title":     title,
		"client_id": fmt.Sprintf("%d", clientID),
	}
	return c.upload(ctx, "/admin/create-project", fields, filePath)
}

// AddReport uploads a follow-up report to an existing project.
func (c *Client) AddReport(ctx context.Context, projectID uint64, filePath string) error {
	defer c.dropProjects()
	return c.upload(ctx, fmt.Sprintf("/project/%d/add-report", projectID), nil, filePath)
}

// PostComment appends text to a report's thread.
func (c *Client) PostComment(ctx context.Context, reportID uint64, text string) error {
	return c.postJSON(ctx, fmt.Sprintf("/comments/%d", reportID), map[string]string{"text": text}, nil)
}

// Download writes the report's file into dir and returns the path.
func (c *Client) Download(ctx context.Context, reportID uint64, dir string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/download/%d", reportID), nil, "")
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &TransportError{Op: "download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}
	name := fmt.Sprintf("report-%d", reportID)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	dest := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func (c *Client) dropProjects() {
	c.mu.Lock()
	c.lastProjects = nil
	c.mu.Unlock()
}

func (c *Client) dropClients() {
	c.mu.Lock()
	c.lastClients = nil
	c.mu.Unlock()
}

// ---- Plumbing ----

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, ok := c.Session.Get(keyToken); ok && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// upload sends a multipart form with the given fields plus filePath as
// the "file" part.
func (c *Client) upload(ctx context.Context, path string, fields map[string]string, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), nil)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
