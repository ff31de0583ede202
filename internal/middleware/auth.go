package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/platform/logger"
	"github.com/stillpath/stillpath-backend/internal/requestdata"
)

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(secret),
	}
}

// RequireAuth validates the bearer token and stashes the caller identity
// in the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		rd, err := am.parseToken(tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin runs after RequireAuth and gates on the role claim.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.Role != "ADMIN" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) parseToken(tokenString string) (*requestdata.RequestData, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing sub claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("sub is not a user id: %w", err)
	}
	role, _ := claims["role"].(string)
	return &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
	}, nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return c.Query("token")
}
