package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

const orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param, e.g. `?ordering=-created_at,name`.
// Fields not in allowed are rejected.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) error {
	orderings, err := core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
	if err != nil {
		return err
	}
	ord.Orderings = orderings
	return nil
}

// boolParam reads a boolean query param, false when missing or malformed.
func boolParam(ctx echo.Context, name string) bool {
	b, _ := strconv.ParseBool(ctx.QueryParam(name))
	return b
}
