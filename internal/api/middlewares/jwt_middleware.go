package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fintrack/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware verifies the HS256 token from the Authorization header or the
// Bearer cookie and puts the caller's uid and email on the request context.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.WriteError(w, "Unauthorized: Missing Bearer token", http.StatusUnauthorized)
				return
			}

			parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					utils.WriteError(w, "token expired", http.StatusUnauthorized)
					return
				}
				utils.Logger.WithError(err).Debug("rejected login token")
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			claims, ok := parsedToken.Claims.(jwt.MapClaims)
			if !ok || !parsedToken.Valid {
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			userID := claimString(claims["uid"])
			email, _ := claims["email"].(string)
			if userID == "" || strings.TrimSpace(email) == "" {
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), utils.UserIDKey, userID)
			ctx = context.WithValue(ctx, utils.EmailKey, email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	cookie, err := r.Cookie("Bearer")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(cookie.Value, "Bearer ")
}

// claimString accepts uid as a string or as a JSON number.
func claimString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
