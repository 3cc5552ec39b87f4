package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
)

type messageApi struct {
	deps ServerDeps
}

func registerMessageAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := messageApi{deps: deps}

	mg := g.Group("/messages", authed...)
	mg.POST("", api.create)
	mg.GET("", api.query)
	mg.GET("/conversations", api.queryConversations)
	mg.GET("/conversations/:id", api.retrieveConversation)
}

// Handlers

func (api *messageApi) create(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	ac := getContextAuth(ctx)
	msg, err := api.deps.MessageSvc.Send(ctx.Request().Context(), ac, ac.UID, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messageApi) query(ctx echo.Context) error {
	ac := getContextAuth(ctx)
	msgs, err := api.deps.MessageSvc.ListForUser(ctx.Request().Context(), ac, ac.UID)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) queryConversations(ctx echo.Context) error {
	ac := getContextAuth(ctx)
	convs, err := api.deps.MessageSvc.ListConversations(ctx.Request().Context(), ac, ac.UID)
	if err != nil {
		return errors.Wrap(err, "querying conversations")
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *messageApi) retrieveConversation(ctx echo.Context) error {
	ac := getContextAuth(ctx)
	conv, err := api.deps.MessageSvc.ListConversation(ctx.Request().Context(), ac, ac.UID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting conversation")
	}
	return ctx.JSON(http.StatusOK, conv)
}
