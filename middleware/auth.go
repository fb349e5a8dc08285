package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/bookworm-app/backend/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userKey contextKey = "user"

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// UserResolver looks up the token's subject. Implementations must return
// (nil, nil) when no user matches and must not include the password field.
type UserResolver interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Auth verifies the bearer token and attaches the resolved user to the
// request context. A valid signature for a deleted user is rejected the
// same way as a bad token.
func Auth(jwtSecret string, users UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, `{"message":"No authentication token, access denied"}`, http.StatusUnauthorized)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, `{"message":"No authentication token, access denied"}`, http.StatusUnauthorized)
				return
			}
			parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !parsed.Valid {
				log.Printf("auth: token verification failed: %v", err)
				http.Error(w, `{"message":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}
			claims, ok := parsed.Claims.(*Claims)
			if !ok {
				http.Error(w, `{"message":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				http.Error(w, `{"message":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}
			user, err := users.UserByID(r.Context(), userID)
			if err != nil {
				log.Printf("auth: user lookup: %v", err)
				http.Error(w, `{"message":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}
			if user == nil {
				http.Error(w, `{"message":"Token is not valid"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns ctx carrying the resolved identity.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
