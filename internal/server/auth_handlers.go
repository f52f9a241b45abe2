package server

import (
	stderrors "errors"
	"net/http"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (api *TodoAPI) loginForm(ctx *gin.Context) {
	f := popFlash(ctx)
	data := gin.H{"Username": ""}
	if f != nil {
		data["Flash"] = f
		data["Username"] = f.Username
	}
	api.render(ctx, http.StatusOK, "login.html", "Вход", data)
}

func (api *TodoAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		api.renderError(ctx, errors.ErrBadRequest)
		return
	}
	if err := formValidator.Struct(req); err != nil {
		api.setFlash(ctx, flash{Error: errors.ErrInvalidCredentials.Error(), Username: req.Username})
		ctx.Redirect(http.StatusFound, "/auth/login")
		return
	}

	user, err := api.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !stderrors.Is(err, errors.ErrInvalidCredentials) {
			api.renderError(ctx, err)
			return
		}
		api.logger.Info("неудачная попытка входа", zap.String("username", req.Username))
		api.setFlash(ctx, flash{Error: err.Error(), Username: req.Username})
		ctx.Redirect(http.StatusFound, "/auth/login")
		return
	}

	token, err := api.tokens.Issue(user)
	if err != nil {
		api.renderError(ctx, err)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(auth.CookieName, token, int(api.tokens.TTL().Seconds()), "/", "", api.secureCookies, true)
	ctx.Redirect(http.StatusFound, "/")
}

func (api *TodoAPI) logout(ctx *gin.Context) {
	api.clearSession(ctx)
	ctx.Redirect(http.StatusFound, "/auth/login")
}

func (api *TodoAPI) clearSession(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(auth.CookieName, "", -1, "/", "", api.secureCookies, true)
}

// requireUser runs after RequireAuth and drops sessions whose account is gone.
func (api *TodoAPI) requireUser(ctx *gin.Context) {
	claims := currentUser(ctx)
	if claims == nil {
		ctx.Redirect(http.StatusFound, "/auth/login")
		ctx.Abort()
		return
	}
	if _, err := api.users.User(ctx.Request.Context(), claims.UserID); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			api.logger.Info("сессия удалённого пользователя", zap.String("user_id", claims.UserID))
			api.clearSession(ctx)
			ctx.Redirect(http.StatusFound, "/auth/login")
		} else {
			api.renderError(ctx, err)
		}
		ctx.Abort()
		return
	}
	ctx.Next()
}

func (api *TodoAPI) registerForm(ctx *gin.Context) {
	data := gin.H{"Errors": map[string][]string(nil), "Username": ""}
	if f := popFlash(ctx); f != nil {
		data["Flash"] = f
		data["Errors"] = f.Errors
		data["Username"] = f.Username
	}
	api.render(ctx, http.StatusOK, "register.html", "Регистрация", data)
}

func (api *TodoAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBind(&req); err != nil {
		api.renderError(ctx, errors.ErrBadRequest)
		return
	}

	user, err := api.users.Register(ctx.Request.Context(), req)
	if err != nil {
		fields := service.FieldMessages(err)
		if fields == nil {
			api.renderError(ctx, err)
			return
		}
		api.setFlash(ctx, flash{Errors: fields, Username: req.Username})
		ctx.Redirect(http.StatusFound, "/auth/register")
		return
	}

	api.setFlash(ctx, flash{Message: "регистрация прошла успешно, войдите", Username: user.Username})
	ctx.Redirect(http.StatusFound, "/auth/login")
}
