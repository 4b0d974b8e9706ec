package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/example/vital/internal/ctxutil"
)

const AuthHeaderKey = "Authorization"

// JWTAuth verifies HS256 bearer tokens and puts the subject in the request
// context as the actor.
type JWTAuth struct {
	secret []byte
	log    *zap.SugaredLogger
}

func NewJWTAuth(secret string, log *zap.SugaredLogger) *JWTAuth {
	return &JWTAuth{secret: []byte(secret), log: log}
}

// Middleware rejects malformed or invalid tokens. A request without a token
// passes with no actor so the service can report it as unauthenticated.
func (a *JWTAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		// delete the header to avoid logging it by accident
		c.Request.Header.Del(AuthHeaderKey)
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respondUnauthorized(c, "No Bearer token provided in Authorization header")
			c.Abort()
			return
		}

		subject, err := a.verify(authHeader[len("Bearer "):])
		if err != nil {
			GetReqLogger(c, a.log).Debugw("Rejected bearer token", "error", err)
			respondUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set("uid", subject)
		c.Request = c.Request.WithContext(ctxutil.WithActorID(c.Request.Context(), subject))
		c.Set(ReqLoggerKey, GetReqLogger(c, a.log).With("uid", subject))
		c.Next()
	}
}

func (a *JWTAuth) verify(bearer string) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("no signing secret configured")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(bearer, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

func respondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, APIError{
		Error:  message,
		Code:   "UNAUTHORIZED",
		Status: "unauthenticated",
	})
}
