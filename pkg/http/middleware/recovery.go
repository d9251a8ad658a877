package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "FinAdvisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PanicResponder writes the response for a recovered panic.
type PanicResponder func(c echo.Context, recovered any) error

// Recover logs panics with their stack and hands the response to respond,
// or writes a plain 500 when respond is nil.
func Recover(l *applogger.Logger, respond PanicResponder) echo.MiddlewareFunc {
	l = applogger.OrNop(l)
	if respond == nil {
		respond = func(c echo.Context, _ any) error {
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"status":  http.StatusInternalServerError,
				"message": http.StatusText(http.StatusInternalServerError),
			})
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error("panic recovered",
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("path", c.Path()),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = respond(c, r)
			}()
			return next(c)
		}
	}
}
