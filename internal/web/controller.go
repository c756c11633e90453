package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/storage"
	"github.com/JamesPrial/todo-db/internal/todo"
	"github.com/JamesPrial/todo-db/internal/ui"
)

type TodoController struct {
	api    *echo.Group
	repo   Repository
	logger *zap.Logger
}

func NewTodoController(api *echo.Group, repo Repository, logger *zap.Logger) *TodoController {
	return &TodoController{api: api, repo: repo, logger: logger}
}

// InitTodoRoutes registers the page, form and JSON routes.
func (controller *TodoController) InitTodoRoutes() {
	controller.api.GET("/", controller.Page)
	controller.api.POST("/todos", controller.Create)
	controller.api.POST("/todos/:id/toggle", controller.Toggle)
	controller.api.POST("/todos/:id/delete", controller.Delete)
	controller.api.GET("/api/todos", controller.FindAll)
	controller.api.GET("/health", controller.Health)
}

type pageData struct {
	Items   []todo.Item
	Done    int
	Pending int
}

// Page renders the full list.
func (controller *TodoController) Page(c echo.Context) error {
	items, err := controller.repo.List(c.Request().Context())
	if err != nil {
		return err
	}
	done, pending := ui.Stats(items)

	return c.Render(http.StatusOK, pageTemplateName, pageData{Items: items, Done: done, Pending: pending})
}

// Create adds the submitted task. Empty input is ignored without a message.
func (controller *TodoController) Create(c echo.Context) error {
	task, ok := todo.NormalizeTask(c.FormValue("task"))
	if ok {
		if _, err := controller.repo.Add(c.Request().Context(), task); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Toggle stores the completed value carried by the form, which is the
// negation of what the page showed when it was rendered.
func (controller *TodoController) Toggle(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	completed, err := strconv.ParseBool(c.FormValue("completed"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "completed must be true or false")
	}

	if _, err := controller.repo.ToggleComplete(c.Request().Context(), id, completed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "todo not found")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Delete removes the item. Unknown ids still redirect.
func (controller *TodoController) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := controller.repo.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// FindAll returns the list as JSON.
func (controller *TodoController) FindAll(c echo.Context) error {
	items, err := controller.repo.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (controller *TodoController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
