package middleware

import (
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthenticateUser requires a valid bearer token of any role
func AuthenticateUser(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, jwtService); !ok {
			return
		}
		c.Next()
	}
}

// AuthenticateAdmin requires a valid bearer token with the admin role.
// A missing or invalid token yields 401, a non-admin token 403.
func AuthenticateAdmin(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := authenticate(c, jwtService)
		if !ok {
			return
		}
		if !principal.IsAdmin() {
			response.AbortWithMessage(c, code.ErrForbidden, "Insufficient permissions: requires admin role")
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by the auth middleware
func CurrentPrincipal(c *gin.Context) *services.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := value.(*services.Principal)
	return principal
}

func authenticate(c *gin.Context, jwtService services.InterfaceJWTService) (*services.Principal, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.AbortWithMessage(c, code.ErrTokenInvalid, "Authorization header is required")
		return nil, false
	}

	principal, err := jwtService.Authenticate(authHeader)
	if err != nil {
		response.AbortWithMessage(c, code.ErrTokenInvalid, err.Error())
		return nil, false
	}

	c.Set(principalKey, principal)
	c.Set("userID", principal.ID)
	c.Set("role", principal.Role)
	return principal, true
}
