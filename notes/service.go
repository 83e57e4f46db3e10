package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/noted/middleware"
)

var (
	// ErrInvalidNote is returned before any I/O when a note request is incomplete.
	ErrInvalidNote = errors.New("invalid note")
	// ErrInvalidCredentials is returned for an empty username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyToken is returned when the server answers a login without a token.
	ErrEmptyToken = errors.New("auth response carries no token")
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	notesPath    = "/api/notes"
	healthPath   = "/api/health/status"
)

func invalidNote(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidNote, reason)
}

// Service calls the notes API at a base URL.
type Service struct {
	http    *http.Client
	baseURL string
}

// NewService returns a service using client for every call. A nil client uses
// http.DefaultClient. baseURL may be empty for same-origin relative requests.
func NewService(client *http.Client, baseURL string) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the API base address.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// Login exchanges credentials for a token.
func (s *Service) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var out AuthResponse
	if err := s.do(ctx, http.MethodPost, loginPath, LoginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return nil, ErrEmptyToken
	}
	return &out, nil
}

// Register creates an account and returns its first token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	var out AuthResponse
	if err := s.do(ctx, http.MethodPost, registerPath, req, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if out.Token == "" {
		return nil, ErrEmptyToken
	}
	return &out, nil
}

// List returns the caller's notes.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	var out []Note
	if err := s.do(ctx, http.MethodGet, notesPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

// Get returns one note.
func (s *Service) Get(ctx context.Context, id int64) (*Note, error) {
	var out Note
	if err := s.do(ctx, http.MethodGet, notePath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return &out, nil
}

// Create stores a new note.
func (s *Service) Create(ctx context.Context, req NoteRequest) (*Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out Note
	if err := s.do(ctx, http.MethodPost, notesPath, req, &out); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &out, nil
}

// Update replaces a note's content.
func (s *Service) Update(ctx context.Context, id int64, req NoteRequest) (*Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out Note
	if err := s.do(ctx, http.MethodPut, notePath(id), req, &out); err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}
	return &out, nil
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.do(ctx, http.MethodDelete, notePath(id), nil, nil); err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	return nil
}

// Health probes the unauthenticated health endpoint.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := s.do(ctx, http.MethodGet, healthPath, nil, &out); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &out, nil
}

func notePath(id int64) string {
	return notesPath + "/" + strconv.FormatInt(id, 10)
}

func (s *Service) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return middleware.NewStatusError(req, resp)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
