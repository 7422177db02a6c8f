package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
)

type tenantApi struct {
	conf     *core.Config
	svc      tenant.ServiceInterface
	validate *validator.Validate
}

func registerTenantAPI(g *echo.Group, jwt, guard echo.MiddlewareFunc, deps *ServerDeps) {
	api := tenantApi{
		conf:     deps.Conf,
		svc:      deps.TenantSvc,
		validate: deps.Validate,
	}

	tg := g.Group("/tenants", jwt, guard)
	tg.GET("/current", api.current)

	// provisioning is super-admin only, from the system tenant context
	tg.POST("", api.create, superAdminMiddleware())
	tg.GET("", api.query, superAdminMiddleware())
	tg.PUT("/:id", api.update, superAdminMiddleware())
}

// Handlers

func (api *tenantApi) current(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tenantApi) query(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

// update applies operator-driven status/plan changes. Last write wins;
// suspending a tenant takes effect on its very next request.
func (api *tenantApi) update(ctx echo.Context) error {
	var data tenant.UpdateTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTenant")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return ctx.JSON(http.StatusOK, t)
}
