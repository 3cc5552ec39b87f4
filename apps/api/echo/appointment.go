package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

type appointmentApi struct {
	deps ServerDeps
}

func registerAppointmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := appointmentApi{deps: deps}

	ag := g.Group("/appointments", authed...)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.PATCH("/:id/status", api.setStatus)
}

// Handlers

func (api *appointmentApi) create(ctx echo.Context) error {
	var data appointment.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	ac := getContextAuth(ctx)
	appt, err := api.deps.AppointmentSvc.Request(ctx.Request().Context(), ac, ac.UID, data)
	if err != nil {
		return errors.Wrap(err, "requesting appointment")
	}
	return ctx.JSON(http.StatusCreated, appt)
}

// query returns the caller's appointments grouped by status.
// `?all=true` lists every appointment instead (admins only), filtered by `status`, `student_id` and `teacher_id`.
func (api *appointmentApi) query(ctx echo.Context) error {
	reqCtx, ac := ctx.Request().Context(), getContextAuth(ctx)

	var appts []appointment.Appointment
	var err error
	switch {
	case boolParam(ctx, "all"):
		appts, err = api.deps.AppointmentSvc.ListAll(reqCtx, ac, appointment.QueryFilter{
			StudentID: ctx.QueryParam("student_id"),
			TeacherID: ctx.QueryParam("teacher_id"),
			Status:    appointment.Status(ctx.QueryParam("status")),
		})
	case ac.Role == user.RoleTeacher:
		appts, err = api.deps.AppointmentSvc.ListForTeacher(reqCtx, ac, ac.UID)
	default:
		appts, err = api.deps.AppointmentSvc.ListForStudent(reqCtx, ac, ac.UID)
	}
	if err != nil {
		return errors.Wrap(err, "querying appointments")
	}
	return ctx.JSON(http.StatusOK, appointment.Group(appts))
}

func (api *appointmentApi) setStatus(ctx echo.Context) error {
	var data appointment.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	appt, err := api.deps.AppointmentSvc.SetStatus(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating appointment status")
	}
	return ctx.JSON(http.StatusOK, appt)
}
