package echoapi

import "github.com/labstack/echo/v4"

func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := getContextUser(ctx); !ok {
			return errUnauthorized
		}
		return next(ctx)
	}
}

// instructorMiddleware only lets ADMIN users through. It must run after requireAuth.
func instructorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := mustContextUser(ctx)
		if err != nil {
			return err
		}
		if !usr.IsAdmin() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
