package middleware

import (
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/turnosalud/ts-queue/internal/pkg/jwt"
	"github.com/turnosalud/ts-queue/internal/pkg/session"
	"github.com/turnosalud/ts-queue/pkg/response"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type StaffClaims struct {
	gojwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// StaffSession verifies the staff identity assertion and attaches the
// account to the request context. Role gating happens per route via
// RequireRole; the queue engine itself only re-checks the actor-clinic
// binding.
type StaffSession struct {
	jsonWebToken *jwt.JSONWebToken
	sessionStore session.Store
}

func NewStaffSessionMiddleware(jsonWebToken *jwt.JSONWebToken, sessionStore session.Store) *StaffSession {
	return &StaffSession{
		jsonWebToken: jsonWebToken,
		sessionStore: sessionStore,
	}
}

func (m *StaffSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		bearer := r.Header.Get("Authorization")
		token := strings.TrimPrefix(bearer, "Bearer ")
		if token == "" || token == bearer {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "authorization token is missing",
			})

			return
		}

		claims := &StaffClaims{}
		if err := m.jsonWebToken.Parse(token, claims); err != nil {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "token is invalid or has expired",
			})

			return
		}

		acc, err := m.sessionStore.Find(ctx, claims.Email)
		if err != nil {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "session is no longer valid",
			})

			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(ctx, acc)))
	}
}

// RequireRole gates a route to the given staff roles. It must run inside
// Verify so the account is already on the context.
func (m *StaffSession) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			acc, err := session.GetAccountFromCtx(r.Context())
			if err != nil {
				response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
					Status:  status.UNAUTHORIZED,
					Message: "no account attached to the request",
				})

				return
			}

			for _, role := range roles {
				if acc.Role == role {
					next(w, r)
					return
				}
			}

			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "account's role is not allowed to perform this operation",
			})
		}
	}
}
