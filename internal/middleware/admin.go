package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
	"github.com/buckholding/brokerage-api/pkg/tokenpkg"
	"github.com/buckholding/brokerage-api/pkg/web"
)

// UserGetter provides the user lookup needed to check admin privileges.
type UserGetter interface {
	Get(ctx context.Context, username string) (domain.UserWithoutPassword, error)
}

// ErrAdminRequired indicates that the caller lacks reviewer privileges.
var ErrAdminRequired = errors.New("admin privileges required")

// AdminMiddleware allows only admin users past. It must run after AuthMiddleware.
func AdminMiddleware(users UserGetter) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		ctx := gctx.Request.Context()
		l := zerolog.Ctx(ctx)

		authPayload := gctx.MustGet(AuthPayloadKey).(*tokenpkg.Payload)

		user, err := users.Get(ctx, authPayload.Username)
		if err != nil {
			l.Error().Err(err).Send()
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

			return
		}

		if !user.IsAdmin {
			l.Warn().Str("username", authPayload.Username).Msg("non-admin attempted reviewer action")
			gctx.AbortWithStatusJSON(http.StatusForbidden, web.Error(ErrAdminRequired))

			return
		}

		gctx.Next()
	}
}
