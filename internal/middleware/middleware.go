package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/Meesho/BharatMLStack/model-serving/internal/auth/handler"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/token"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/infra"
	"github.com/dgrijalva/jwt-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	middlewareOnce sync.Once
	middleware     Middleware
)

type Middleware interface {
	GetMiddleWares() []gin.HandlerFunc
}

type MiddlewareHandler struct {
	tokenRepo token.Repository
}

func NewMiddleware() Middleware {
	middlewareOnce.Do(func() {
		connection, _ := infra.SQL.GetConnection()
		sqlConn := connection.(*infra.SQLConnection)
		tokenRepo, err := token.NewRepository(sqlConn)
		if err != nil {
			log.Error().Msgf("Error in creating token repository: %v", err)
		}

		middleware = &MiddlewareHandler{
			tokenRepo: tokenRepo,
		}
	})
	return middleware
}

func (m *MiddlewareHandler) GetMiddleWares() []gin.HandlerFunc {
	var middlewares []gin.HandlerFunc
	middlewares = append(middlewares, m.Cors()...)
	middlewares = append(middlewares, m.AuthMiddleware())

	return middlewares
}

func (m *MiddlewareHandler) Cors() []gin.HandlerFunc {
	var middlewares []gin.HandlerFunc
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true

	middlewares = append(middlewares, cors.New(corsConfig))
	return middlewares
}

// AuthMiddleware checks for a valid JWT token except on login, register and health routes
func (m *MiddlewareHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/login") ||
			strings.HasPrefix(c.Request.URL.Path, "/register") ||
			strings.HasPrefix(c.Request.URL.Path, "/health") {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Error().
				Str("reason", "Authorization header required").
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("unauthorized request blocked by auth middleware")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			log.Error().
				Str("reason", "Authorization token must be Bearer <token>").
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("unauthorized request blocked by auth middleware")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token must be Bearer <token>"})
			c.Abort()
			return
		}

		valid, err := m.tokenRepo.IsTokenValid(tokenString)
		if err != nil || !valid {
			log.Error().
				Str("reason", "Invalid token").
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("unauthorized request blocked by auth middleware")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims := &handler.Claims{}
		parsedToken, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return handler.JwtKey, nil
		})
		if err != nil || !parsedToken.Valid {
			log.Error().
				Str("reason", "Invalid or expired token").
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("unauthorized request blocked by auth middleware")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Set claims in the context for later use
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}
