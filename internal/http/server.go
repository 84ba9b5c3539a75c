package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/minipress-io/minipress/internal/auth"
	"github.com/minipress-io/minipress/internal/config"
	"github.com/minipress-io/minipress/internal/model"
	"github.com/minipress-io/minipress/internal/store"
)

type contextKey string

// identityKey holds the authenticated username for the request.
const identityKey contextKey = "identity"

type Server struct {
	store store.Store
	auth  *auth.Service
	cfg   config.Config
	mux   *chi.Mux
}

func NewServer(st store.Store, authSvc *auth.Service, cfg config.Config) *Server {
	s := &Server{store: st, auth: authSvc, cfg: cfg}

	r := chi.NewRouter()
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Route("/posts", func(r chi.Router) {
		// All post routes sit behind the auth gate, reads included. Any
		// registered caller may act on any post.
		r.Use(s.requireAuth)
		r.Post("/", s.handleCreatePost)
		r.Get("/", s.handleListPosts)
		r.Get("/{id}", s.handleGetPost)
		r.Put("/{id}", s.handleUpdatePost)
		r.Delete("/{id}", s.handleDeletePost)
	})
	s.mux = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// requireAuth resolves the caller's identity from the bearer token before the
// handler body runs, short-circuiting with 401 on any failure.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing Authorization header")
			return
		}
		bearer := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		identity, err := s.auth.Authenticate(r.Context(), bearer)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity returns the authenticated username from the request context, or
// empty if the request did not pass the auth gate.
func Identity(r *http.Request) string {
	identity, _ := r.Context().Value(identityKey).(string)
	return identity
}

// handleSignup godoc
//
//	@Summary		Register a user
//	@Description	Create a user with a unique username. The password is stored as a bcrypt hash.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{username=string,password=string}	true	"Credentials"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	map[string]string	"Missing fields or duplicate username"
//	@Router			/signup [post]
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "Missing 'username' or 'password'")
		return
	}

	if err := s.auth.Register(r.Context(), *req.Username, *req.Password); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not create user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange credentials for a bearer token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{username=string,password=string}	true	"Credentials"
//	@Success		200		{object}	map[string]string	"access_token"
//	@Failure		400		{object}	map[string]string	"Missing fields"
//	@Failure		401		{object}	map[string]string	"Invalid credentials"
//	@Router			/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "Missing 'username' or 'password'")
		return
	}

	token, err := s.auth.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not log in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	Create a post with an id issued by the postid sequence.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post	body		object{title=string,content=string}	true	"Post data"
//	@Success		201		{object}	model.Post
//	@Failure		400		{object}	map[string]string	"Missing fields"
//	@Failure		401		{object}	map[string]string
//	@Router			/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Title == nil || req.Content == nil {
		writeError(w, http.StatusBadRequest, "Missing 'title' or 'content'")
		return
	}

	id, err := s.store.NextSequence(r.Context(), store.PostIDSequence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not allocate post id")
		return
	}
	post := model.Post{ID: id, Title: *req.Title, Content: *req.Content}
	if err := s.store.CreatePost(r.Context(), &post); err != nil {
		writeError(w, http.StatusInternalServerError, "Could not create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// handleListPosts godoc
//
//	@Summary		List all posts
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		model.Post
//	@Failure		401	{object}	map[string]string
//	@Router			/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Post ID"
//	@Success		200	{object}	model.Post
//	@Failure		401	{object}	map[string]string
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.postID(w, r)
	if !ok {
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Post with ID %d not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not load post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleUpdatePost godoc
//
//	@Summary		Update a post
//	@Description	Merge the supplied title and/or content into an existing post. Absent fields are left unchanged.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int									true	"Post ID"
//	@Param			post	body		object{title=string,content=string}	true	"Fields to update"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	map[string]string	"No updatable fields"
//	@Failure		401		{object}	map[string]string
//	@Failure		404		{object}	map[string]string	"Post not found"
//	@Router			/posts/{id} [put]
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.postID(w, r)
	if !ok {
		return
	}
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Title == nil && req.Content == nil {
		writeError(w, http.StatusBadRequest, "Missing 'title' or 'content'")
		return
	}

	post, err := s.store.UpdatePost(r.Context(), id, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Post with ID %d not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not update post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Post ID"
//	@Success		200	{object}	map[string]string	"Deletion message"
//	@Failure		401	{object}	map[string]string
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.postID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Post with ID %d not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not delete post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Post with ID %d has been deleted successfully", id),
	})
}

// postID parses the {id} path segment. A non-integer id never matches a post,
// so it reports 404 with the raw segment in the description.
func (s *Server) postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Post with ID %s not found", raw))
		return 0, false
	}
	return id, true
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders errors as {"error": "<code> <reason>: <description>"}.
// Clients match on this format, so it stays fixed.
func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, map[string]string{
		"error": fmt.Sprintf("%d %s: %s", status, http.StatusText(status), description),
	})
}
