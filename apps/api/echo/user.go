package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/user"
)

type (
	userApi struct {
		svc  *user.Service
		auth *authenticator
	}

	tokenResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
)

func registerUserAPI(g *echo.Group, auth *authenticator, svc *user.Service, authed []echo.MiddlewareFunc) {
	api := userApi{svc: svc, auth: auth}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", authed...)
	ag.POST("/logout", api.logout)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	token, err := api.auth.login(ctx, creds)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	usr, _ := getContextUser(ctx)
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token, User: usr})
}

func (api *userApi) logout(ctx echo.Context) error {
	if err := api.auth.logout(ctx); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return err
	}
	usr, _ := getContextUser(ctx)
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token, User: usr})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}
