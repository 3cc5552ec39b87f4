package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	tg := g.Group("/teachers", authed...)
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher)

	sg := g.Group("/students", authed...)
	sg.GET("/pending", api.queryPendingStudents)
	sg.GET("/approved", api.queryApprovedStudents)
	sg.POST("/:id/approve", api.approveStudent)
	sg.POST("/:id/reject", api.rejectStudent)

	ug := g.Group("/users", authed...)
	ug.GET("/roles", api.queryRoles)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)
}

// Handlers

func (api *userApi) queryTeachers(ctx echo.Context) error {
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, user.OrderingFields...); err != nil {
		return err
	}
	teachers, err := api.deps.RegistrationSvc.ListTeachers(ctx.Request().Context(), getContextAuth(ctx), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *userApi) createTeacher(ctx echo.Context) error {
	var data user.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	p, err := api.deps.RegistrationSvc.ProvisionStaff(ctx.Request().Context(), getContextAuth(ctx), data)
	if err != nil {
		return errors.Wrap(err, "provisioning teacher")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *userApi) queryPendingStudents(ctx echo.Context) error {
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, user.OrderingFields...); err != nil {
		return err
	}
	students, err := api.deps.RegistrationSvc.ListPending(ctx.Request().Context(), getContextAuth(ctx), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying pending students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) queryApprovedStudents(ctx echo.Context) error {
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, user.OrderingFields...); err != nil {
		return err
	}
	students, err := api.deps.RegistrationSvc.ListApproved(ctx.Request().Context(), getContextAuth(ctx), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying approved students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) approveStudent(ctx echo.Context) error {
	p, err := api.deps.RegistrationSvc.Approve(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving student")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *userApi) rejectStudent(ctx echo.Context) error {
	if err := api.deps.RegistrationSvc.Reject(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "rejecting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	p, err := api.deps.RegistrationSvc.Get(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	p, err := api.deps.RegistrationSvc.Update(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *userApi) destroy(ctx echo.Context) error {
	if err := api.deps.RegistrationSvc.Delete(ctx.Request().Context(), getContextAuth(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
