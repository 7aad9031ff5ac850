package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/playforge/gamebank/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	AUTH_TYPE_KEY    contextKey = "auth_type"
	AUTH_SUBJECT_KEY contextKey = "auth_subject"
	JWT_CLAIMS_KEY   contextKey = "jwt_claims"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
	APIKeys      []string
}

// AuthResult holds the result of authentication
type AuthResult struct {
	Success     bool
	AuthType    string // "jwt" or "apikey"
	Claims      *jwt.RegisteredClaims
	AuthSubject string
	Error       error
}

// authenticator holds the credential material in its parsed form. It is built
// once per middleware, not per request: the PEM decode and the key-set
// construction happen at setup time.
type authenticator struct {
	publicKey *rsa.PublicKey
	keyErr    error
	apiKeys   map[string]struct{}
}

func newAuthenticator(cfg AuthConfig) *authenticator {
	a := &authenticator{
		apiKeys: make(map[string]struct{}, len(cfg.APIKeys)),
	}
	for _, key := range cfg.APIKeys {
		if key != "" {
			a.apiKeys[key] = struct{}{}
		}
	}

	if cfg.JWTPublicKey == "" {
		a.keyErr = errors.New("JWT public key not configured")
	} else if a.publicKey, a.keyErr = parseRSAPublicKey(cfg.JWTPublicKey); a.keyErr != nil {
		a.keyErr = fmt.Errorf("failed to parse RSA public key: %w", a.keyErr)
	}

	return a
}

// Authenticate validates the Authorization header and returns the
// authentication result. Reusable outside the middleware for handlers that
// need to inspect the caller.
func Authenticate(authHeader string, cfg AuthConfig) AuthResult {
	return newAuthenticator(cfg).authenticate(authHeader)
}

func (a *authenticator) authenticate(authHeader string) AuthResult {
	if authHeader == "" {
		return AuthResult{Error: errors.New("missing Authorization header")}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return AuthResult{Error: errors.New("invalid Authorization header format")}
	}

	switch strings.ToLower(parts[0]) {
	case "bearer":
		claims, err := a.validateJWT(parts[1])
		if err != nil {
			return AuthResult{Error: err}
		}
		return AuthResult{
			Success:     true,
			AuthType:    "jwt",
			Claims:      claims,
			AuthSubject: claims.Subject,
		}

	case "apikey":
		if err := a.validateAPIKey(parts[1]); err != nil {
			return AuthResult{Error: err}
		}
		return AuthResult{
			Success:  true,
			AuthType: "apikey",
		}

	default:
		return AuthResult{Error: fmt.Errorf("unsupported authorization type: %s", parts[0])}
	}
}

// Auth returns a gin middleware for authentication
// It supports both JWT (Bearer token) and API Key authentication
func Auth(cfg AuthConfig) gin.HandlerFunc {
	auth := newAuthenticator(cfg)

	return func(c *gin.Context) {
		result := auth.authenticate(c.GetHeader("Authorization"))

		if !result.Success {
			logger.Warn("Authentication failed",
				zap.Error(result.Error),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "Authentication failed",
				"details": result.Error.Error(),
			})
			return
		}

		// Store authentication info in context
		c.Set(string(AUTH_TYPE_KEY), result.AuthType)
		if result.Claims != nil {
			c.Set(string(JWT_CLAIMS_KEY), result.Claims)
			logger.Debug("JWT authentication successful",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.String("subject", result.Claims.Subject),
			)
		} else {
			logger.Debug("API Key authentication successful",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
		}
		if result.AuthSubject != "" {
			c.Set(string(AUTH_SUBJECT_KEY), result.AuthSubject)
		}

		c.Next()
	}
}

// validateJWT validates a JWT token against the configured RSA public key and
// returns its claims. Expiry and not-before are enforced by the parser.
func (a *authenticator) validateJWT(tokenString string) (*jwt.RegisteredClaims, error) {
	if a.keyErr != nil {
		return nil, a.keyErr
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// validateAPIKey checks a presented key against the configured set
func (a *authenticator) validateAPIKey(apiKey string) error {
	if len(a.apiKeys) == 0 {
		return errors.New("no API keys configured")
	}
	if _, ok := a.apiKeys[apiKey]; !ok {
		return errors.New("invalid API key")
	}
	return nil
}

// parseRSAPublicKey parses an RSA public key from PEM format
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	// Try parsing as PKIX (most common format)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		// Try parsing as PKCS1 format
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}

	return rsaKey, nil
}
