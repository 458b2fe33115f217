package middleware

import (
	"errors"
	"strings"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

// GetIdentity returns the resolved identity for the request, or nil
// for an anonymous caller.
func GetIdentity(c *gin.Context) *config.McpIdentity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*config.McpIdentity)
	if !ok {
		return nil
	}
	return identity
}

type ContextMiddleware struct {
	tokens *service.TokenService
}

// NewContextMiddleware builds the identity resolver front end: it
// turns an Authorization bearer header into an McpIdentity on the gin
// context. No header means anonymous, which is not an error; requests
// that need an identity gate on it at the handler.
func NewContextMiddleware(tokens *service.TokenService) *ContextMiddleware {
	return &ContextMiddleware{
		tokens: tokens,
	}
}

func (m *ContextMiddleware) Init() error {
	return nil
}

func (m *ContextMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		identity, err := m.tokens.ResolveToken(token, true)

		if err != nil {
			// A bad token degrades to anonymous here; handlers that
			// require an identity reject it with 401 themselves. It
			// never escalates.
			if !errors.Is(err, service.ErrInvalidToken) {
				log.Error().Err(err).Msg("Failed to resolve bearer token")
			}
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}
