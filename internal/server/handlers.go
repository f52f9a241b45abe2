package server

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

var formValidator = validator.New()

// renderError maps service errors onto the error pages.
func (api *TodoAPI) renderError(ctx *gin.Context, err error) {
	switch {
	case stderrors.Is(err, errors.ErrNotFound):
		api.render(ctx, http.StatusNotFound, "not_found.html", "Не найдено", gin.H{"Message": err.Error()})
	case stderrors.Is(err, errors.ErrInvalidArgument), stderrors.Is(err, errors.ErrValidationFailed):
		api.render(ctx, http.StatusBadRequest, "error.html", "Ошибка", gin.H{
			"Status":  http.StatusBadRequest,
			"Message": err.Error(),
		})
	default:
		_ = ctx.Error(err)
		api.logger.Error("ошибка обработки запроса",
			zap.String("path", ctx.Request.URL.Path),
			zap.String("request_id", ctx.GetString(requestIDKey)),
			zap.Error(err),
		)
		api.render(ctx, http.StatusInternalServerError, "error.html", "Ошибка", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": errors.ErrInternalServer.Error(),
		})
	}
}

func todoID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidID
	}
	return id, nil
}

// bindTodoForm reads the add/update form into a Todo.
func bindTodoForm(ctx *gin.Context) (models.TodoForm, models.Todo, error) {
	var form models.TodoForm
	if err := ctx.ShouldBind(&form); err != nil {
		return form, models.Todo{}, errors.ErrBadRequest
	}
	form.Title = strings.TrimSpace(form.Title)
	if err := formValidator.Struct(form); err != nil {
		return form, models.Todo{}, errors.ErrInvalidTitle
	}
	priority, err := models.ParsePriority(form.Priority)
	if err != nil {
		return form, models.Todo{}, err
	}
	return form, models.Todo{Title: form.Title, Completed: form.Completed, Priority: priority}, nil
}

func (api *TodoAPI) listTodos(ctx *gin.Context) {
	var query models.ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		api.renderError(ctx, errors.ErrInvalidArgument)
		return
	}
	if _, ok := ctx.GetQuery("size"); !ok {
		query.Size = api.pageSize
	}

	page, err := api.todos.List(ctx.Request.Context(), query)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	api.render(ctx, http.StatusOK, "list.html", "Задачи", gin.H{"Page": page})
}

// allTodos returns every matching todo as JSON, without paging.
func (api *TodoAPI) allTodos(ctx *gin.Context) {
	todos, err := api.todos.All(ctx.Request.Context(), ctx.Query("filter"))
	if err != nil {
		_ = ctx.Error(err)
		api.logger.Error("не удалось получить задачи", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	ctx.JSON(http.StatusOK, todos)
}

func (api *TodoAPI) addForm(ctx *gin.Context) {
	api.render(ctx, http.StatusOK, "add.html", "Новая задача", gin.H{
		"Form":           models.TodoForm{},
		"PrioritySelect": newPrioritySelect(models.PriorityLow),
	})
}

func (api *TodoAPI) addTodo(ctx *gin.Context) {
	form, todo, err := bindTodoForm(ctx)
	if err == nil {
		_, err = api.todos.Create(ctx.Request.Context(), todo)
	}
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidArgument) {
			api.render(ctx, http.StatusBadRequest, "add.html", "Новая задача", gin.H{
				"Form":           form,
				"FormError":      err.Error(),
				"PrioritySelect": newPrioritySelect(models.Priority(strings.ToUpper(form.Priority))),
			})
			return
		}
		api.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (api *TodoAPI) updateForm(ctx *gin.Context) {
	id, err := todoID(ctx)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	todo, err := api.todos.Get(ctx.Request.Context(), id)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	api.render(ctx, http.StatusOK, "update.html", "Изменить задачу", gin.H{
		"Todo":           todo,
		"PrioritySelect": newPrioritySelect(todo.Priority),
	})
}

func (api *TodoAPI) updateTodo(ctx *gin.Context) {
	id, err := todoID(ctx)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	form, changes, err := bindTodoForm(ctx)
	if err == nil {
		_, err = api.todos.Update(ctx.Request.Context(), id, changes)
	}
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidArgument) {
			api.render(ctx, http.StatusBadRequest, "update.html", "Изменить задачу", gin.H{
				"Todo":           models.Todo{ID: id, Title: form.Title, Completed: form.Completed},
				"FormError":      err.Error(),
				"PrioritySelect": newPrioritySelect(models.Priority(strings.ToUpper(form.Priority))),
			})
			return
		}
		api.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (api *TodoAPI) deleteForm(ctx *gin.Context) {
	id, err := todoID(ctx)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	todo, err := api.todos.Get(ctx.Request.Context(), id)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	api.render(ctx, http.StatusOK, "delete.html", "Удалить задачу", gin.H{"Todo": todo})
}

func (api *TodoAPI) deleteTodo(ctx *gin.Context) {
	id, err := todoID(ctx)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	if err := api.todos.Delete(ctx.Request.Context(), id); err != nil {
		api.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (api *TodoAPI) toggleCompleted(ctx *gin.Context) {
	id, err := todoID(ctx)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	if _, err := api.todos.ToggleCompleted(ctx.Request.Context(), id); err != nil {
		api.renderError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
