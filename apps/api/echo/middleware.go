package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
)

// maxLoginBodyPeek bounds how much of a login body resolution will read
// looking for the declared role.
const maxLoginBodyPeek = 1 << 20 // 1MB

// tenantMiddleware resolves the request's tenant before anything else runs
// and attaches it to the context. Resolution happens on every request, never
// cached: tenant status can change between requests and deactivation must
// take effect on the next one.
func tenantMiddleware(svc tenant.ServiceInterface, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			info := tenant.RequestInfo{
				Host:       req.Host,
				Path:       req.URL.Path,
				LoginPath:  loginPath,
				Header:     req.Header.Get(conf.Tenant.Header),
				QueryParam: ctx.QueryParam(conf.Tenant.QueryParam),
			}
			if info.Path == loginPath {
				role, err := peekBodyRole(req)
				if err != nil {
					return errors.Wrap(err, "peeking login body role")
				}
				info.BodyRole = role
			}

			res, err := svc.Resolve(req.Context(), info)
			if err != nil {
				return err
			}
			if res.Tenant != nil {
				ctx.Set(contextTenantKey, *res.Tenant)
			}
			// deferred: the login handler takes it from here
			return next(ctx)
		}
	}
}

// tenantGuardMiddleware verifies the authenticated principal belongs to the
// resolved tenant. A valid credential for tenant A must not work against
// tenant B's context, forged header or not.
func tenantGuardMiddleware(logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			t, err := getContextTenant(ctx)
			if err != nil {
				return err
			}
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.TenantID != t.ID {
				logger.Warn(
					"cross-tenant access denied",
					map[string]interface{}{
						"user_tenant":     claims.TenantID,
						"resolved_tenant": t.ID,
						"user":            claims.Subject,
						"path":            ctx.Request().URL.Path,
					},
				)
				return errCrossTenantAccess
			}
			return next(ctx)
		}
	}
}

func superAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSuperAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// peekBodyRole reads the login body looking for a declared role and restores
// it so binding still works downstream.
func peekBodyRole(req *http.Request) (string, error) {
	if req.Body == nil {
		return "", nil
	}
	data, err := ioutil.ReadAll(io.LimitReader(req.Body, maxLoginBodyPeek))
	if err != nil {
		return "", err
	}
	_ = req.Body.Close()
	req.Body = ioutil.NopCloser(bytes.NewReader(data))

	var body struct {
		Role string `json:"role"`
	}
	// a malformed body is the login handler's problem, not resolution's
	_ = json.Unmarshal(data, &body)
	return body.Role, nil
}
