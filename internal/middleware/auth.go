package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"anoa.com/estatecrm/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
	RoleUser  = "user"
)

// Claims is the bearer token issued by the CRM's identity service. Subject
// holds the user or agent UUID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		})

		if err != nil || !token.Valid || claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		role := claims.Role
		if role == "" {
			role = RoleUser
		}

		c.Set(response.SubjectIDKey, claims.Subject)
		c.Set(response.RoleKey, role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(response.RoleKey)
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		c.Abort()
	}
}

// IssueToken signs an HS256 token for subject. Used by tests and local tooling.
func (m *AuthMiddleware) IssueToken(subject, role string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = subject
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: role, RegisteredClaims: claims})
	return token.SignedString(m.secret)
}
