package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recover returns recovery middleware. Panics never crash the process; they
// are logged and answered with a generic 500. With debugErrors set the stack
// is included in the response body for non-production debugging.
func Recover(debugErrors bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					stack := debug.Stack()
					log.Printf("PANIC: %v\n%s", err, stack)

					c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
					body := map[string]interface{}{
						"error": "Internal server error",
					}
					if debugErrors {
						body["message"] = err.Error()
						body["stack"] = string(stack)
					}
					_ = c.JSON(http.StatusInternalServerError, body)
				}
			}()
			return next(c)
		}
	}
}
