// Package fakeapi runs an in-process stand-in for the dummyjson catalog API.
//
// Like the real service it accepts writes without persisting them: add,
// update and delete echo the resulting record, later reads still see the
// seeded catalog.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default credentials accepted by the server.
const (
	Username = "emilys"
	Password = "emilyspass"
)

var signingKey = []byte("fakeapi")

// Server is a fake catalog API.
type Server struct {
	*httptest.Server

	// RequireAuth rejects product calls without a bearer token.
	RequireAuth bool

	mu       sync.Mutex
	products []map[string]any
	requests []Request
	fail     map[string]int
}

// Request is a recorded call.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          map[string]any
}

// New starts a server seeded with three products. Close it when done.
func New() *Server {
	s := &Server{
		products: SeedProducts(),
		fail:     map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/products", s.handleList)
	mux.HandleFunc("/products/add", s.handleAdd)
	mux.HandleFunc("/products/", s.handleProduct)
	s.Server = httptest.NewServer(Chain(mux, Recover, s.record, s.failures, s.auth))
	return s
}

// SeedProducts returns the catalog every server starts with.
func SeedProducts() []map[string]any {
	return []map[string]any{
		{"id": 1, "title": "Essence Mascara Lash Princess", "price": 9.99, "stock": 99, "brand": "Essence", "category": "beauty", "rating": 2.56},
		{"id": 2, "title": "Eyeshadow Palette with Mirror", "price": 19.99, "stock": 34, "brand": "Glamour Beauty", "category": "beauty", "rating": 2.86},
		{"id": 3, "title": "Powder Canister", "price": 14.99, "stock": 89, "brand": "Velvet Touch", "category": "beauty", "rating": 4.64},
	}
}

// FailNext makes the next call to "METHOD /path" answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	s.fail[method+" "+path] = status
	s.mu.Unlock()
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent call.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
		return
	}
	body := bodyFrom(r.Context())
	user, _ := body["username"].(string)
	pass, _ := body["password"].(string)
	if user == "" || pass == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Username and password required"})
		return
	}
	if user != Username || pass != Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid credentials"})
		return
	}

	ttl := 60 * time.Minute
	if mins, ok := body["expiresInMins"].(float64); ok && mins > 0 {
		ttl = time.Duration(mins) * time.Minute
	}
	now := time.Now()
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(signingKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           1,
		"username":     Username,
		"email":        "emily.johnson@x.dummyjson.com",
		"firstName":    "Emily",
		"lastName":     "Johnson",
		"accessToken":  access,
		"refreshToken": "refresh-" + strconv.FormatInt(now.UnixNano(), 36),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
		return
	}
	s.mu.Lock()
	all := append([]map[string]any(nil), s.products...)
	s.mu.Unlock()

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page := all
	if skip > 0 {
		page = page[min(skip, len(page)):]
	}
	if limit > 0 {
		page = page[:min(limit, len(page))]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": page,
		"total":    len(all),
		"skip":     skip,
		"limit":    len(page),
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
		return
	}
	s.mu.Lock()
	next := len(s.products) + 1
	s.mu.Unlock()

	out := map[string]any{"id": next}
	for k, v := range bodyFrom(r.Context()) {
		if k != "id" {
			out[k] = v
		}
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/products/")
	p, ok := s.find(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": fmt.Sprintf("Product with id '%s' not found", id)})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut, http.MethodPatch:
		for k, v := range bodyFrom(r.Context()) {
			if k != "id" {
				p[k] = v
			}
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		p["isDeleted"] = true
		p["deletedOn"] = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, p)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	}
}

// find returns a copy of the product with the given id.
func (s *Server) find(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if fmt.Sprint(p["id"]) == id {
			c := make(map[string]any, len(p))
			for k, v := range p {
				c[k] = v
			}
			return c, true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
