package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/staff"
)

type staffApi struct {
	svc      staff.ServiceInterface
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, jwt, guard echo.MiddlewareFunc, deps *ServerDeps) {
	api := staffApi{
		svc:      deps.StaffSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/staff", jwt, guard)
	sg.POST("", api.create, adminMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
}

// Handlers

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	stf, err := api.svc.Create(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "registering staff member")
	}
	return ctx.JSON(http.StatusCreated, stf)
}

func (api *staffApi) query(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	members, err := api.svc.Query(ctx.Request().Context(), t)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if members == nil {
		members = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	stf, err := api.svc.GetByID(ctx.Request().Context(), t, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff member by ID")
	}
	return ctx.JSON(http.StatusOK, stf)
}
