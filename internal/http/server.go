package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/auth"
	"github.com/mahmouddwidar/foxsoft-test/internal/config"
	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/posts"
	"github.com/mahmouddwidar/foxsoft-test/internal/rate"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"

	_ "github.com/mahmouddwidar/foxsoft-test/docs" // swagger docs

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type Server struct {
	store   store.Store
	auth    *auth.Service
	posts   *posts.Service
	limiter rate.Limiter
	cfg     config.Config
	logger  *slog.Logger
}

func NewServer(st store.Store, authSvc *auth.Service, postSvc *posts.Service, limiter rate.Limiter, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, auth: authSvc, posts: postSvc, limiter: limiter, cfg: cfg, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		s.handleAPI(rec, r)
	case strings.HasPrefix(r.URL.Path, "/swagger/"):
		httpSwagger.WrapHandler.ServeHTTP(rec, r)
	default:
		notFound(rec)
	}

	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", time.Since(start).Milliseconds(),
		"ip", s.clientIP(r),
	)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 2 && segments[0] == "users" && segments[1] == "login":
		if r.Method == http.MethodPost {
			s.handleUserLogin(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "admins" && segments[1] == "login":
		if r.Method == http.MethodPost {
			s.handleAdminLogin(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "logout":
		if r.Method == http.MethodPost {
			s.handleLogout(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "user":
		if r.Method == http.MethodGet {
			s.handleCurrentUser(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		if r.Method == http.MethodGet {
			s.handleListPosts(w, r)
			return
		}
		if r.Method == http.MethodPost {
			s.handleCreatePost(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		switch r.Method {
		case http.MethodGet:
			s.handleGetPost(w, r, segments[1])
			return
		case http.MethodPut, http.MethodPatch:
			s.handleUpdatePost(w, r, segments[1])
			return
		case http.MethodDelete:
			s.handleDeletePost(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "health":
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) validate() map[string][]string {
	errs := make(map[string][]string)
	if strings.TrimSpace(req.Email) == "" {
		errs["email"] = append(errs["email"], "The email field is required.")
	}
	if req.Password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// handleUserLogin godoc
//
//	@Summary		User login
//	@Description	Authenticate a user with email and password, returns a bearer token.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		object{email=string,password=string}	true	"Credentials"
//	@Success		200			{object}	map[string]interface{}	"Token and user"
//	@Failure		422			{object}	map[string]interface{}	"Invalid credentials"
//	@Failure		429			{object}	map[string]interface{}	"Rate limited"
//	@Router			/api/users/login [post]
func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "login", s.cfg.RateLimits.LoginPerMinute) {
		return
	}
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if errs := req.validate(); errs != nil {
		writeValidation(w, errs)
		return
	}

	token, user, err := s.auth.LoginUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeInvalidCredentials(w)
			return
		}
		s.serverError(w, "user login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "User logged in successfully",
		"user":       user,
		"token":      token.Token,
		"expires_at": token.ExpiresAt.Format(time.RFC3339),
	})
}

// handleAdminLogin godoc
//
//	@Summary		Admin login
//	@Description	Authenticate an admin with email and password, returns a bearer token.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		object{email=string,password=string}	true	"Credentials"
//	@Success		200			{object}	map[string]interface{}	"Token and admin"
//	@Failure		422			{object}	map[string]interface{}	"Invalid credentials"
//	@Failure		429			{object}	map[string]interface{}	"Rate limited"
//	@Router			/api/admins/login [post]
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "login", s.cfg.RateLimits.LoginPerMinute) {
		return
	}
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if errs := req.validate(); errs != nil {
		writeValidation(w, errs)
		return
	}

	token, admin, err := s.auth.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeInvalidCredentials(w)
			return
		}
		s.serverError(w, "admin login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Admin logged in successfully",
		"admin":      admin,
		"token":      token.Token,
		"expires_at": token.ExpiresAt.Format(time.RFC3339),
	})
}

// handleLogout godoc
//
//	@Summary		Logout
//	@Description	Revoke the presented bearer token. Works for users and admins.
//	@Tags			Authentication
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Router			/api/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	bearer, ok := bearerToken(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	if err := s.auth.Logout(r.Context(), bearer); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeUnauthenticated(w)
			return
		}
		s.serverError(w, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleCurrentUser godoc
//
//	@Summary		Current actor
//	@Description	Return the profile of the authenticated user or admin.
//	@Tags			Authentication
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]string
//	@Router			/api/user [get]
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	switch actor.Kind {
	case model.KindAdmin:
		admin, err := s.store.GetAdmin(r.Context(), actor.ID)
		if err != nil {
			s.serverError(w, "get admin", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": admin.ID, "name": admin.Name, "email": admin.Email, "kind": actor.Kind,
		})
	default:
		user, err := s.store.GetUser(r.Context(), actor.ID)
		if err != nil {
			s.serverError(w, "get user", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": user.ID, "name": user.Name, "email": user.Email, "kind": actor.Kind,
		})
	}
}

// handleListPosts godoc
//
//	@Summary		List posts
//	@Description	List posts visible to the caller, newest first. Users see only their own posts,
//	@Description	admins see every post. Supports case-insensitive substring search over title and
//	@Description	content, and page/per_page pagination. A page past the end returns empty data
//	@Description	with accurate meta, not an error.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			search		query		string	false	"Substring to match in title or content"
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			per_page	query		int		false	"Items per page"	default(10)
//	@Success		200			{object}	map[string]interface{}	"data + meta envelope"
//	@Failure		401			{object}	map[string]string
//	@Router			/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	page, err := s.posts.List(r.Context(), posts.ListingRequest{
		Actor:   actor,
		Search:  r.URL.Query().Get("search"),
		Page:    parseIntDefault(r.URL.Query().Get("page"), 1),
		PerPage: parseIntDefault(r.URL.Query().Get("per_page"), 0),
	})
	if err != nil {
		s.serverError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": page.Items,
		"meta": map[string]any{
			"current_page": page.CurrentPage,
			"last_page":    page.LastPage,
			"per_page":     page.PerPage,
			"total":        page.Total,
		},
	})
}

type postRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
	UserID  *int64  `json:"user_id"`
}

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	Create a post. A user always becomes the owner of what they create; a
//	@Description	client-supplied user_id is ignored for non-admins. Admins must supply
//	@Description	user_id to assign the post to an existing user.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post	body		object{title=string,content=string,status=string,user_id=int}	true	"Post fields"
//	@Success		201		{object}	map[string]interface{}
//	@Failure		401		{object}	map[string]string
//	@Failure		422		{object}	map[string]interface{}	"Validation errors"
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	in := posts.CreateInput{OwnerID: req.UserID}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Content != nil {
		in.Content = *req.Content
	}
	if req.Status != nil {
		in.Status = model.PostStatus(*req.Status)
	}

	post, err := s.posts.Create(r.Context(), actor, in)
	if err != nil {
		s.writePostError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"post":    post,
	})
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Description	Fetch a single post. Users may only fetch their own posts; admins may fetch any.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Post ID"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/api/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, idStr string) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}
	post, err := s.posts.Get(r.Context(), actor, id)
	if err != nil {
		s.writePostError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": post})
}

// handleUpdatePost godoc
//
//	@Summary		Update a post
//	@Description	Update title, content or status of a post the caller is allowed to edit.
//	@Description	Absent fields are left unchanged. Only admins can reassign ownership via
//	@Description	user_id; for everyone else the field is ignored.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int	true	"Post ID"
//	@Param			post	body		object{title=string,content=string,status=string,user_id=int}	true	"Fields to update"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		401		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		422		{object}	map[string]interface{}	"Validation errors"
//	@Router			/api/posts/{id} [put]
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, idStr string) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}
	var req postRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	in := posts.UpdateInput{Title: req.Title, Content: req.Content, OwnerID: req.UserID}
	if req.Status != nil {
		status := model.PostStatus(*req.Status)
		in.Status = &status
	}

	post, err := s.posts.Update(r.Context(), actor, id, in)
	if err != nil {
		s.writePostError(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": post})
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Delete a post the caller is allowed to remove. Users can delete their own
//	@Description	posts, admins can delete any post. The delete is permanent.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Post ID"
//	@Success		200	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/api/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, idStr string) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := s.posts.Delete(r.Context(), actor, id); err != nil {
		s.writePostError(w, "delete post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.serverError(w, "read openapi doc", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// writePostError maps post service failures onto the API's status
// codes: Forbidden 403, NotFound 404, validation 422, anything else 500.
func (s *Server) writePostError(w http.ResponseWriter, op string, err error) {
	var verr *posts.ValidationError
	switch {
	case errors.Is(err, posts.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{
			"message": "This action is unauthorized.",
			"error":   "Forbidden",
		})
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Post not found")
	case errors.As(err, &verr):
		writeValidation(w, verr.Fields)
	default:
		s.serverError(w, op, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "err", err)
	writeMessage(w, http.StatusInternalServerError, "server error")
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if limit <= 0 {
		return true
	}
	key := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
	if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"message":     "Too many attempts, please retry later.",
			"retry_after": int(retry.Seconds()),
		})
		return false
	}
	return true
}

// requireActor resolves the bearer token to an actor or writes the
// standard 401 response for unauthenticated requests.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	bearer, ok := bearerToken(r)
	if !ok {
		writeUnauthenticated(w)
		return model.Actor{}, false
	}
	actor, err := s.auth.Authenticate(r.Context(), bearer)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
			writeUnauthenticated(w)
			return model.Actor{}, false
		}
		s.serverError(w, "authenticate", err)
		return model.Actor{}, false
	}
	return actor, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func (s *Server) clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"message": "Please log in to access this resource.",
		"error":   "Unauthenticated",
	})
}

func writeValidation(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

func writeInvalidCredentials(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "Invalid credentials",
		"errors": map[string][]string{
			"email": {"The provided credentials are incorrect."},
		},
	})
}

func notFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, "not found")
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
