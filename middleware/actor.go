package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"civicfix/models"
)

// actorContextKey is the request-context key carrying the verified actor
type contextKey string

const actorContextKey contextKey = "actor"

// ActorMiddleware validates the JWT Bearer token and attaches the verified
// ActorContext to the request. Tokens carry user_id, role and, for
// department roles, department_id.
type ActorMiddleware struct {
	jwtSecret []byte
}

// NewActorMiddleware creates a new actor middleware
func NewActorMiddleware(jwtSecret string) *ActorMiddleware {
	return &ActorMiddleware{jwtSecret: []byte(jwtSecret)}
}

// RequireActor validates the token and sets the actor in context
func (m *ActorMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required.")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token.")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token claims.")
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token: user_id not found.")
			return
		}
		roleStr, _ := claims["role"].(string)
		role := models.Role(roleStr)
		if !models.ValidRole(role) || role == models.RoleSystem {
			// SYSTEM is an in-process principal; a token claiming it is forged.
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token: unknown role.")
			return
		}
		departmentID, _ := claims["department_id"].(string)

		actor := models.ActorContext{
			ActorType:    models.ActorUser,
			UserID:       int64(userIDFloat),
			Role:         role,
			DepartmentID: departmentID,
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole wraps RequireActor and additionally restricts to the listed
// roles. SUPER_ADMIN passes wherever ADMIN is listed.
func (m *ActorMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "No verified actor on request.")
				return
			}
			for _, role := range roles {
				if actor.Role == role || (role == models.RoleAdmin && actor.Role == models.RoleSuperAdmin) {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "Forbidden", "Insufficient role for this endpoint.")
		}))
	}
}

// WithActor returns a context carrying a verified actor
func WithActor(ctx context.Context, actor models.ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFrom extracts the verified actor from a request context
func ActorFrom(ctx context.Context) (models.ActorContext, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.ActorContext)
	return actor, ok
}

// Helper function for error responses
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := fmt.Sprintf(`{"error":"%s","message":"%s","code":%d}`, errorType, message, statusCode)
	w.Write([]byte(body))
}
