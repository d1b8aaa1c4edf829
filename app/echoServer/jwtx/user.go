package jwtx

import (
	"github.com/labstack/echo/v4"
)

// Credential is the raw Authorization header; verification belongs to the service.
func Credential(c echo.Context) string {
	return c.Request().Header.Get(echo.HeaderAuthorization)
}
