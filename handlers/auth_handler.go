package handlers

import (
	"mime"
	"net/http"

	"github.com/Dosada05/team-roster/middleware"
	"github.com/Dosada05/team-roster/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login принимает JSON или form-data с email и password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	} else {
		if err := parseRequestForm(w, r); err != nil {
			badRequestResponse(w, r, err)
			return
		}
		input.Email = formValue(r, "email")
		input.Password = r.FormValue("password")
	}

	token, err := h.authService.Login(r.Context(), services.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while logging in.", "AuthHandler.Login", "email", input.Email)
		return
	}

	response := jsonResponse{
		"access_token": token,
		"token_type":   "Bearer",
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err, "Error while logging in.", "AuthHandler.Login")
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
		return
	}

	if err := h.authService.Logout(r.Context(), principal.TokenID); err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while logging out.", "AuthHandler.Logout", "user_id", principal.User.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser returns the caller behind the bearer token.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newUserResource(principal.User)}, nil); err != nil {
		serverErrorResponse(w, r, err, "Error while getting the user.", "AuthHandler.CurrentUser")
	}
}
