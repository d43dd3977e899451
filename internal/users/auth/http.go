// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vtes-biased/rulings-website/internal/platform/middleware"
	requestutil "github.com/vtes-biased/rulings-website/internal/platform/request"
	"github.com/vtes-biased/rulings-website/internal/platform/respond"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
	"github.com/vtes-biased/rulings-website/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication and user management HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login        : Delegates to VEKN, returns a JWT.
//   - POST /logout       : Revokes the presented token.
//   - GET  /me           : Returns the authenticated account.
//   - GET  /users        : Lists accounts (admin).
//   - GET  /users/search : Completes a vekn prefix (admin).
//   - POST /users/{id}/promote, /users/{id}/demote : Category changes (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
	})

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/users", handler.listUsers)
		r.Get("/users/search", handler.searchUsers)
		r.Post("/users/{id}/promote", handler.promote)
		r.Post("/users/{id}/demote", handler.demote)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
Login authenticates a VEKN member and issues a session token.

POST /api/v1/auth/login

Description: Credentials are verified against the VEKN API. The first
successful login creates the local account with the BASIC category.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: Session: Access token and account
  - 401: ErrUnauthorized: Invalid VEKN credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(time.Until(session.ExpiresAt) / time.Second),
		FieldUser:        session.User,
	})
}

/*
Logout revokes the presented bearer token.

POST /api/v1/auth/logout

Description: Idempotent. Requests without a bearer token succeed as a no-op.

Response:
  - 204: No Content: Token revoked
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := bearerToken(request)
	if token != "" {
		if err := handler.authService.Logout(request.Context(), token); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}
	respond.NoContent(writer)
}

/*
Me returns the authenticated account.

GET /api/v1/auth/me

Response:
  - 200: User: Fresh account row (category changes apply immediately)
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.GetUser(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
ListUsers returns the first accounts for the admin page.

GET /api/v1/auth/users

Response:
  - 200: []User: Accounts sorted by vekn
  - 403: ErrForbidden: Admin only
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.authService.ListUsers(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, users)
}

/*
SearchUsers completes a VEKN id prefix.

GET /api/v1/auth/users/search?query=123

Response:
  - 200: []User: Matching accounts
  - 403: ErrForbidden: Admin only
*/
func (handler *Handler) searchUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.authService.SearchUsers(request.Context(), request.URL.Query().Get(FieldQuery))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, users)
}

/*
Promote grants an account the RULEMONGER category.

POST /api/v1/auth/users/{id}/promote

Response:
  - 204: No Content: Category updated
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) promote(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Promote(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Demote resets an account to the BASIC category.

POST /api/v1/auth/users/{id}/demote

Response:
  - 204: No Content: Category updated
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) demote(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Demote(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// bearerToken extracts the raw JWT from the Authorization header, or "".
func bearerToken(request *http.Request) string {
	header := request.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
