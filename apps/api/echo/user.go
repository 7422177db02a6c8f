package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
)

var errNoPermsToSetRoles = "not enough rights to set these roles"

type userApi struct {
	conf       *core.Config
	svc        user.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, deps *ServerDeps) {
	api := userApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/auth")

	// un-authed; tenant resolution may have deferred to us
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)
}

func registerUserAPI(g *echo.Group, jwt, guard echo.MiddlewareFunc, deps *ServerDeps) {
	api := userApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ug := g.Group("/users", jwt, guard)
	ug.POST("", api.create, adminMiddleware())
	ug.GET("", api.query, adminMiddleware())
}

// Handlers

// login authenticates a user within the resolved tenant. When resolution
// deferred (no tenant signal on the request), the user's own tenant is
// discovered from their email and re-checked for active/subscription status.
func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	usr, usrTenant, err := api.svc.Authenticate(rctx, data.Email, data.Password)
	if err != nil {
		cause := errors.Cause(err)
		if cause == user.ErrNotFound || cause == tenant.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	if !usr.Active() {
		return errAccountDeactivated
	}

	// a credential valid for tenant A must not log in under tenant B's
	// context; indistinguishable from bad credentials on purpose
	if t, tErr := getContextTenant(ctx); tErr == nil && t.ID != usr.TenantID {
		return core.NewValidationError(errors.New("invalid credentials"))
	}

	if usr, err = api.svc.SetLastLogin(rctx, usr); err != nil {
		return errors.Wrap(err, "setting last login")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr, Tenant: usrTenant})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// only a super admin can mint another super admin
	if !claims.IsSuperAdmin {
		for _, role := range data.Roles {
			if role == user.RoleSuperAdmin {
				return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
			}
		}
	}

	usr, err := api.svc.Create(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	t, err := getContextTenant(ctx)
	if err != nil {
		return err
	}
	users, err := api.svc.QueryAll(ctx.Request().Context(), t)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

type (
	// LoginRequest optionally declares the account's role: "super_admin"
	// routes the login to the reserved system tenant during resolution.
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"omitempty,oneof=super_admin admin teacher student"`
	}

	LoginResponse struct {
		Token  string        `json:"token"`
		User   user.User     `json:"user"`
		Tenant tenant.Tenant `json:"tenant"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.Role = core.CleanString(lr.Role, true /* lower */)
	return validate.Struct(lr)
}
