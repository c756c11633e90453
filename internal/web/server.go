// Package web serves the todo list as a server-rendered HTML page. Every
// form post redirects back to the page, which re-reads the whole list.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/todo"
)

// Repository is the subset of *todo.Repository the handlers call.
type Repository interface {
	Add(ctx context.Context, task string) (todo.Item, error)
	List(ctx context.Context) ([]todo.Item, error)
	ToggleComplete(ctx context.Context, id int64, completed bool) (todo.Item, error)
	Delete(ctx context.Context, id int64) error
}

// NewServer builds the Echo instance with request logging and all routes.
func NewServer(repo Repository, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)
	e.Renderer = NewTemplateRenderer()

	SetupRequestLogger(e, logger)

	controller := NewTodoController(e.Group(""), repo, logger)
	controller.InitTodoRoutes()

	return e
}

// Serve runs the server on addr until ctx is canceled.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		if err := e.Shutdown(context.Background()); err != nil {
			return err
		}
		return nil
	}
}

// errorHandler logs handler failures and writes a JSON error body.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": message})
	}
}
