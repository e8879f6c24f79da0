package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/models"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
)

var ErrInvalidToken = errors.New("invalid token")

// CredentialParser extracts the caller's user id from a request. With a
// secret configured a bearer token must be a valid HS256 JWT whose subject
// is the user id; otherwise the id is taken from the userId query parameter
// or the X-User-ID header as issued by the upstream session layer.
type CredentialParser struct {
	secret []byte
}

// NewCredentialParser constructs a parser. An empty secret disables JWTs.
func NewCredentialParser(secret string) *CredentialParser {
	return &CredentialParser{secret: []byte(secret)}
}

// Credential returns the user id carried by r, or an empty string when the
// request carries none.
func (p *CredentialParser) Credential(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" && len(p.secret) > 0 {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return "", ErrInvalidToken
		}
		return p.subject(strings.TrimSpace(token))
	}
	if token := r.URL.Query().Get("token"); token != "" && len(p.secret) > 0 {
		return p.subject(token)
	}
	if userID := r.URL.Query().Get("userId"); userID != "" {
		return userID, nil
	}
	return r.Header.Get("X-User-ID"), nil
}

func (p *CredentialParser) subject(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Authenticator resolves a credential to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (models.Identity, error)
}

// AuthMiddleware resolves the caller and stores the identity in the gin context.
func AuthMiddleware(parser *CredentialParser, auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := parser.Credential(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), credential)
		if errors.Is(err, chat.ErrAuthentication) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(UserIDKey, identity.ID)
		c.Set(IdentityKey, identity)
		c.Next()
	}
}
