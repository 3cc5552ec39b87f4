package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	identitysvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/identity"
)

const (
	tokenContextKey = "userToken"
	authContextKey  = "auth"
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")

func getContextToken(ctx echo.Context) (*jwt.Token, *identitysvc.Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*identitysvc.Claims); ok {
			return token, claims, nil
		}
	}
	return nil, nil, errUnauthorized
}

// getContextAuth returns the AuthContext resolved by sessionMiddleware, Anonymous if none.
func getContextAuth(ctx echo.Context) access.AuthContext {
	if ac, ok := ctx.Get(authContextKey).(access.AuthContext); ok {
		return ac
	}
	return access.Anonymous
}

// sessionMiddleware rejects signed out tokens and resolves the AuthContext of the token's identity.
// It must run after the JWT middleware.
func sessionMiddleware(provider *identitysvc.Provider, gate *access.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			_, claims, err := getContextToken(ctx)
			if err != nil {
				return err
			}
			if err = provider.CheckClaims(claims); err != nil {
				return err
			}

			id := claims.Identity()
			ac := gate.ResolveContext(ctx.Request().Context(), &id)
			if ac.LoadErr != nil {
				return errors.Wrap(ac.LoadErr, "resolving auth context")
			}
			ctx.Set(authContextKey, ac)
			return next(ctx)
		}
	}
}

type authApi struct {
	deps ServerDeps
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, authed...)

	g.GET("/me", api.me, authed...)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	p, err := api.deps.RegistrationSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validator); err != nil {
		return err
	}

	sess, err := api.deps.Identity.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *authApi) logout(ctx echo.Context) error {
	token, _, err := getContextToken(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Identity.SignOut(ctx.Request().Context(), token.Raw); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	ac := getContextAuth(ctx)
	p, err := api.deps.RegistrationSvc.Get(ctx.Request().Context(), ac, ac.UID)
	if err != nil {
		return errors.Wrap(err, "getting own profile")
	}
	return ctx.JSON(http.StatusOK, MeResponse{Profile: p, Capabilities: access.CapabilitiesFor(ac)})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"notblank"`
		Password string `json:"password" validate:"required"`
	}

	MeResponse struct {
		Profile      user.Profile        `json:"profile"`
		Capabilities access.Capabilities `json:"capabilities"`
	}
)

func (lr *LoginRequest) Validate(v *core.Validator) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return v.Struct(lr)
}
