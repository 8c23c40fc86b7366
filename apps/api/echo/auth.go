package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/roster/core/token"
)

const contextClaimsKey = "claims"

// authMiddleware verifies the credential carried, as is, in the Authorization header.
func authMiddleware(issuer *token.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := issuer.Verify(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (*token.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*token.Claims); ok {
		return claims, nil
	}
	return nil, token.ErrMissingCredential
}

// contextOwner is the account a school credential belongs to; empty for other credentials.
func contextOwner(ctx echo.Context) string {
	claims, err := getContextClaims(ctx)
	if err != nil || claims.Kind != token.KindSchool {
		return ""
	}
	return claims.Subject
}
