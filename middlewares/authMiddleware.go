package middlewares

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/gin-gonic/gin"
)

// getUser retrieves the authenticated user from redis, falling back to the
// database. The cached copy lives as long as a token can.
func getUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}

	if !exists {
		db := config.GetDB()
		if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Take(&user).Error; err != nil {
			return nil, err
		}

		tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
		if err != nil {
			tokenLifespan = 24
		}
		if err := config.SetRedisObject("User:"+user.Username, &user, time.Duration(tokenLifespan)*time.Hour); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// AuthMiddleware validates the bearer token, loads the user and stores the
// identity in the request context. When roles are given, only those roles
// pass; admin always passes.
func AuthMiddleware(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		token, err := utils.JwtValidate(tokenString)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		claims, ok := token.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		user, err := getUser(c.Request.Context(), claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.IsActive != nil && !*user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is deactivated"})
			return
		}

		if len(allowedRoles) > 0 && user.Role != models.UserRoleAdmin {
			allowed := false
			for _, role := range allowedRoles {
				if role == user.Role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
		}

		ctx := c.Request.Context()
		ctx = utils.SetTokenInContext(ctx, tokenString)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetRoleInContext(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
