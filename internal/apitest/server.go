// Package apitest is an in-memory notes API used by tests and the demo. It speaks
// the same routes and JSON shapes as the real service and answers 401 for missing,
// invalid or revoked bearer tokens.
package apitest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/noted/jwt"
	"github.com/MrEthical07/noted/middleware"
	"github.com/MrEthical07/noted/notes"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	username string
	email    string
	role     string
	hash     []byte
}

type storedNote struct {
	owner string
	note  notes.Note
}

// Server is an in-memory notes API. The zero value is not usable; call [New].
type Server struct {
	mu     sync.Mutex
	users  map[string]user
	notes  map[int64]*storedNote
	nextID int64
	tokens *jwt.Manager
	router *mux.Router
	seen   []string
}

// New returns an empty server issuing one-hour tokens.
func New() *Server {
	s := &Server{
		users:  make(map[string]user),
		notes:  make(map[int64]*storedNote),
		tokens: newManager(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/health/status", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)

	api := r.PathPrefix("/api/notes").Subrouter()
	api.Use(s.requireBearer)
	api.HandleFunc("", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	s.router = r

	return s
}

func newManager() *jwt.Manager {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	m, err := jwt.NewManager(jwt.Config{Secret: secret, TTL: time.Hour, Issuer: "noted-apitest"})
	if err != nil {
		panic(err)
	}
	return m
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.seen = append(s.seen, r.Header.Get("Authorization"))
	s.mu.Unlock()
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account with a bcrypt-hashed password.
func (s *Server) AddUser(username, email, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return errors.New("user exists")
	}
	s.users[username] = user{username: username, email: email, role: role, hash: hash}
	return nil
}

// Issue returns a valid token for username without a login round trip.
func (s *Server) Issue(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Issue(username, "USER")
}

// Revoke invalidates every token issued so far, so the next authenticated call
// answers 401.
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = newManager()
}

// AuthorizationHeaders returns the Authorization header of every request received,
// "" for requests without one.
func (s *Server) AuthorizationHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.seen))
	copy(out, s.seen)
	return out
}

type usernameKey struct{}

func caller(r *http.Request) string {
	name, _ := r.Context().Value(usernameKey{}).(string)
	return name
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		s.mu.Lock()
		claims, err := s.tokens.Parse(token)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey{}, claims.Username())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, notes.Health{Status: "UP"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req notes.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	s.writeAuth(w, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req notes.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.AddUser(req.Username, req.Email, req.Password, "USER"); err != nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}

	s.mu.Lock()
	u := s.users[req.Username]
	s.mu.Unlock()
	s.writeAuth(w, u)
}

func (s *Server) writeAuth(w http.ResponseWriter, u user) {
	s.mu.Lock()
	token, err := s.tokens.Issue(u.username, u.role)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, notes.AuthResponse{Token: token, Username: u.username, Role: u.role})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner := caller(r)

	s.mu.Lock()
	out := make([]notes.Note, 0)
	for _, n := range s.notes {
		if n.owner == owner {
			out = append(out, n.note)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()

	s.mu.Lock()
	s.nextID++
	n := notes.Note{
		ID:        s.nextID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		ImageURL:  req.ImageURL,
		Public:    req.Public,
		CreatedAt: notes.NewTimestamp(now),
		UpdatedAt: notes.NewTimestamp(now),
	}
	s.notes[n.ID] = &storedNote{owner: caller(r), note: n}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withOwnedNote(w, r, func(n *storedNote) {
		writeJSON(w, http.StatusOK, n.note)
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	s.withOwnedNote(w, r, func(n *storedNote) {
		n.note.Title = req.Title
		n.note.Content = req.Content
		n.note.Tags = req.Tags
		n.note.ImageURL = req.ImageURL
		n.note.Public = req.Public
		n.note.UpdatedAt = notes.NewTimestamp(time.Now().UTC())
		writeJSON(w, http.StatusOK, n.note)
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.withOwnedNote(w, r, func(n *storedNote) {
		delete(s.notes, n.note.ID)
		w.WriteHeader(http.StatusOK)
	})
}

// withOwnedNote runs fn under the server lock when the note exists and belongs to
// the caller.
func (s *Server) withOwnedNote(w http.ResponseWriter, r *http.Request, fn func(*storedNote)) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if n.owner != caller(r) {
		writeError(w, http.StatusForbidden, "You are not allowed to access this note")
		return
	}
	fn(n)
}

func decodeNote(w http.ResponseWriter, r *http.Request) (notes.NoteRequest, bool) {
	var req notes.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"status":  status,
		"error":   http.StatusText(status),
		"message": msg,
	})
}
