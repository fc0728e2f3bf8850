package echoapi

import (
	"context"
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	audience        = "Academia"
)

var errTokenRevoked = errors.New("token revoked")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Name         string   `json:"name,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsEmployee   bool     `json:"is_employee,omitempty"` // -> EMPLOYEE PORTAL
	IsTrainer    bool     `json:"is_trainer,omitempty"`  // -> TRAINER PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`    // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
}

// HomePath is the portal the claims open first.
func (c Claims) HomePath() string {
	switch {
	case c.IsAdmin:
		return "/admin"
	case c.IsTrainer:
		return "/trainer"
	default:
		return "/employee"
	}
}

// Auth issues, verifies and revokes the API's JWTs.
type Auth struct {
	secretKey         []byte
	issuer            string
	expiration        time.Duration
	refreshExpiration time.Duration
	revocations       session.Revocations
	now               func() time.Time
}

var _ session.Verifier = (*Auth)(nil)

func NewAuth(conf *core.Config, revocations session.Revocations) *Auth {
	if revocations == nil {
		revocations = session.NewMemoryRevocations()
	}
	return &Auth{
		secretKey:         []byte(conf.SecretKey),
		issuer:            conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
		revocations:       revocations,
		now:               time.Now,
	}
}

// jwtConfig is the JWT auth middleware config.
func (a *Auth) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    a.secretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (a *Auth) UserClaims(usr user.User, origIat ...int64) *Claims {
	now := a.now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsEmployee:   usr.IsEmployee(),
		IsTrainer:    usr.IsTrainer(),
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Auth) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken checks the signature and the expiry of token.
func (a *Auth) ParseToken(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	return claims, nil
}

// Verify accepts valid tokens that were not revoked.
func (a *Auth) Verify(ctx context.Context, token string) error {
	if _, err := a.ParseToken(token); err != nil {
		return err
	}
	revoked, err := a.revocations.IsRevoked(ctx, token)
	if err != nil {
		return errors.Wrap(err, "checking revocation")
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

// Revoke rejects token until it expires. Invalid tokens need no revocation.
func (a *Auth) Revoke(ctx context.Context, token string) error {
	claims, err := a.ParseToken(token)
	if err != nil {
		return nil
	}
	return a.revocations.Revoke(ctx, token, time.Unix(claims.ExpiresAt, 0))
}

func (a *Auth) authenticate(uname, pwd string, svc user.Service) (*Claims, user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, user.User{}, errAuthenticationFailed
		}
		return nil, user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(usr)
	if err != nil {
		return nil, user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return a.UserClaims(usr), usr, nil
}

func (a *Auth) refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshExpiration)
	if a.now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.UserClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextToken(ctx echo.Context) (*jwt.Token, bool) {
	token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
	return token, ok
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := getContextToken(ctx); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sorted := append([]string(nil), claims.Roles...)
		sort.Strings(sorted)
		for _, role := range roles {
			if i := sort.SearchStrings(sorted, role); i < len(sorted) && sorted[i] == role {
				return true
			}
		}
	}
	return false
}
