package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/sheikh"
)

const (
	contextTokenKey  = "sheikhToken"
	contextSheikhKey = "sheikhID" // default owner, when authentication is disabled
	tokenAudience    = "loo7"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func GetSheikhClaims(conf *core.Config, s sheikh.Sheikh) *Claims {
	now := core.NowFunc()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   s.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Auth.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Name:  s.Name,
		Email: s.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the sheikh Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken verifies an HS256 token issued for this API and carrying a subject.
func parseToken(conf *core.Config, tokenStr string) (*jwt.Token, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if !token.Valid || claims.Subject == "" || !claims.VerifyAudience(tokenAudience, true) {
		return nil, errors.New("invalid token claims")
	}
	return token, nil
}

// authMiddleware authenticates requests with the bearer JWT. When authentication is
// disabled every request acts as the configured default owner.
func authMiddleware(conf *core.Config) echo.MiddlewareFunc {
	jwtAuth := echojwt.WithConfig(echojwt.Config{
		Skipper:    func(echo.Context) bool { return !conf.Auth.Enabled },
		ContextKey: contextTokenKey,
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return parseToken(conf, auth)
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				return errMissingToken.WithInternal(err)
			}
			return errUnauthorized.WithInternal(err)
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtAuth(defaultOwner(conf, next))
	}
}

func defaultOwner(conf *core.Config, next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !conf.Auth.Enabled {
			ctx.Set(contextSheikhKey, conf.Auth.DefaultOwner)
		}
		return next(ctx)
	}
}

// getOwnerID returns the id of the acting sheikh.
func getOwnerID(ctx echo.Context) (string, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Subject != "" {
			return claims.Subject, nil
		}
	}
	if id, ok := ctx.Get(contextSheikhKey).(string); ok && id != "" {
		return id, nil
	}
	return "", errUnauthorized
}

// Handlers

type (
	GoogleLoginRequest struct {
		IDToken string `json:"idToken" validate:"required,notblank"`
	}

	LoginResponse struct {
		Token  string        `json:"token"`
		Sheikh sheikh.Sheikh `json:"sheikh"`
	}
)

type authApi struct {
	conf     *core.Config
	svc      sheikh.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, conf *core.Config, svc sheikh.Service, validate *validator.Validate) {
	api := authApi{conf: conf, svc: svc, validate: validate}

	ag := g.Group("/auth")
	ag.POST("/google", api.googleLogin)
	ag.GET("/me", api.me, auth)
}

func (api *authApi) googleLogin(ctx echo.Context) error {
	if api.conf.Auth.GoogleClientID == "" {
		return errLoginDisabled
	}

	var data GoogleLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleLoginRequest")
	}
	data.IDToken = strings.TrimSpace(data.IDToken)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	s, err := api.svc.LoginWithGoogle(ctx.Request().Context(), data.IDToken)
	if err != nil {
		return errors.Wrap(err, "logging in with google")
	}
	token, err := GenerateToken(api.conf, GetSheikhClaims(api.conf, s))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Sheikh: s})
}

func (api *authApi) me(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), ownerID)
	if err != nil {
		if core.IsNotFound(err) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding sheikh")
	}
	return ctx.JSON(http.StatusOK, s)
}
