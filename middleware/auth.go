package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/team-roster/services"
)

// Authenticate требует валидный Bearer токен и кладёт Principal в контекст.
func Authenticate(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, services.ErrUnauthenticated) {
					writeMessage(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
					return
				}
				services.LogError(r.Context(), LoggerFromContext(r.Context()), err,
					"failed to authenticate request", "middleware.Authenticate")
				writeMessage(w, http.StatusInternalServerError, "Server Error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin пропускает только администраторов. Ставится после Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
			return
		}
		if !principal.User.IsAdmin {
			writeMessage(w, http.StatusForbidden, services.ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
