package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
	sessionsvc "github.com/trezcool/ratiba/services/session"
)

const (
	contextTokenKey  = "userToken"
	contextUserKey   = "user"
	contextObjectKey = "object"
	tokenAudience    = "Ratiba"
)

// Claims represents the authorization claims transmitted via a JWT.
// Id is unique per token and identifies the session on logout.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Role         user.Role `json:"role"`
	IsStudent    bool      `json:"is_student,omitempty"`
	IsTeacher    bool      `json:"is_teacher,omitempty"`
	IsAdmin      bool      `json:"is_admin,omitempty"`
}

// NewClaims returns the claims of a new session of `usr`.
// origIat is the issue time of the first token of a refreshed session.
func NewClaims(usr user.User, conf *core.Config, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    conf.AppName,
			Subject:   usr.Username,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         usr.Role,
		IsStudent:    usr.IsStudent(),
		IsTeacher:    usr.IsTeacher(),
		IsAdmin:      usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf     *core.Config
	users    *user.Service
	sessions sessionsvc.Store
}

func newAuthenticator(conf *core.Config, users *user.Service, sessions sessionsvc.Store) *authenticator {
	return &authenticator{conf: conf, users: users, sessions: sessions}
}

func (a *authenticator) jwt() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(a.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// session rejects logged out tokens, then loads the token's user into the context.
// Must run after jwt().
func (a *authenticator) session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			revoked, err := a.sessions.IsRevoked(ctx.Request().Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking session")
			}
			if revoked {
				return errSessionRevoked
			}

			usr, err := a.users.Get(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errUnauthorized
				}
				return errors.Wrap(err, "getting session user")
			}
			if usr.Role != claims.Role {
				return errUnauthorized
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func (a *authenticator) login(ctx echo.Context, creds user.Credentials) (string, error) {
	usr, err := a.users.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		return "", err
	}
	ctx.Set(contextUserKey, usr)
	return GenerateToken(NewClaims(usr, a.conf), a.conf)
}

// logout revokes the context token until it expires.
func (a *authenticator) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	err = a.sessions.Revoke(ctx.Request().Context(), claims.Id, time.Unix(claims.ExpiresAt, 0))
	return errors.Wrap(err, "revoking session")
}

func (a *authenticator) refresh(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(NewClaims(usr, a.conf, claims.OrigIssuedAt), a.conf)
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
