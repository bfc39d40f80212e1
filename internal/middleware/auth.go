package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const ContextOperatorKey = "operator"

// OperatorClaims identifies a caller allowed to submit solutions
type OperatorClaims struct {
	Operator string   `json:"operator"`
	Networks []string `json:"networks,omitempty"` // empty means every network
	jwt.RegisteredClaims
}

// AllowsNetwork reports whether the token is scoped to network
func (c *OperatorClaims) AllowsNetwork(network string) bool {
	if len(c.Networks) == 0 {
		return true
	}
	for _, n := range c.Networks {
		if strings.EqualFold(n, network) {
			return true
		}
	}
	return false
}

// GenerateToken signs an HS256 operator token
func GenerateToken(secret, issuer, operator string, networks []string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := OperatorClaims{
		Operator: operator,
		Networks: networks,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   operator,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses and verifies an operator token
func ValidateToken(secret, issuer, tokenString string) (*OperatorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Operator == "" {
		return nil, errors.New("token has no operator")
	}
	return claims, nil
}

// AuthMiddleware JWT
type AuthMiddleware struct {
	logger *logrus.Logger
	secret string
	issuer string
}

func NewAuthMiddleware(logger *logrus.Logger, secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{logger: logger, secret: secret, issuer: issuer}
}

// RequireAuth rejects requests without a valid Bearer token
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.logger.WithFields(fields).Warn("JWT auth failed - missing Authorization header")
			abort(c, "Authentication required", "MISSING_AUTH_HEADER")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.logger.WithFields(fields).Warn("JWT auth failed - invalid Authorization format")
			abort(c, "Authorization header must be in format: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			a.logger.WithFields(fields).Warn("JWT auth failed - empty token")
			abort(c, "Token cannot be empty", "EMPTY_TOKEN")
			return
		}

		claims, err := ValidateToken(a.secret, a.issuer, tokenString)
		if err != nil {
			a.logger.WithFields(fields).WithError(err).Warn("JWT auth failed - token verification failed")
			abort(c, "Invalid or expired token", "INVALID_TOKEN")
			return
		}

		c.Set(ContextOperatorKey, claims)
		a.logger.WithFields(fields).WithField("operator", claims.Operator).Debug("JWT auth success")
		c.Next()
	}
}

// OperatorFromContext returns the claims stored by RequireAuth
func OperatorFromContext(c *gin.Context) (*OperatorClaims, bool) {
	v, ok := c.Get(ContextOperatorKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*OperatorClaims)
	return claims, ok
}

func abort(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
