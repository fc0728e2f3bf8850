package echoapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/filter"
	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/user"
)

const contextClaimsKey = "screenClaims"

type (
	// Screen is the view-model of one role screen.
	Screen struct {
		Title    string      `json:"title"`
		Role     string      `json:"role"`
		User     ScreenUser  `json:"user"`
		Sections []Section   `json:"sections"`
		Form     *HireForm   `json:"form,omitempty"`
		Extra    interface{} `json:"extra,omitempty"`
	}

	ScreenUser struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}

	// Section links a screen to one collection endpoint.
	Section struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Path  string `json:"path"`
		Count int    `json:"count"`
	}

	HireForm struct {
		Action      string      `json:"action"`
		Fields      []FormField `json:"fields"`
		Roles       []user.Role `json:"roles"`
		Departments []string    `json:"departments"`
	}

	FormField struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Required bool   `json:"required"`
	}

	LoginScreen struct {
		Next string `json:"next"`
	}
)

type screens struct {
	users    user.Service
	learning *learning.Service
	auth     *Auth
	gate     *session.Gate
	cookie   string
	secure   bool
}

func registerScreens(app *echo.Echo, loginLimit echo.MiddlewareFunc, s screens) {
	app.GET(session.LoginPath, s.loginScreen)
	app.POST(session.LoginPath, s.login, loginLimit)
	app.POST("/logout", s.logout)

	// a root group would catch every unknown path, so the gate is set per route
	admins := s.portal(func(c Claims) bool { return c.IsAdmin })
	staff := s.portal(func(c Claims) bool { return c.IsTrainer || c.IsAdmin })
	app.GET("/admin", s.adminScreen, s.gateMiddleware, admins)
	app.GET("/admin/hire-member", s.hireMemberScreen, s.gateMiddleware, admins)
	app.GET("/trainer", s.trainerScreen, s.gateMiddleware, staff)
	app.GET("/employee", s.employeeScreen, s.gateMiddleware)
}

// sessionToken reads the session cookie, falling back to a bearer header.
func (s *screens) sessionToken(ctx echo.Context) string {
	if c, err := ctx.Cookie(s.cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// gateMiddleware redirects visitors without a valid session to the login screen.
func (s *screens) gateMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := s.sessionToken(ctx)
		decision := s.gate.Check(ctx.Request().Context(), token, ctx.Request().URL.RequestURI())
		if !decision.Allowed {
			return ctx.Redirect(http.StatusFound, decision.RedirectTo)
		}

		claims, err := s.auth.ParseToken(token)
		if err != nil {
			return ctx.Redirect(http.StatusFound, session.LoginURL(session.LoginPath, ctx.Request().URL.RequestURI()))
		}
		ctx.Set(contextClaimsKey, *claims)
		return next(ctx)
	}
}

// portal sends users whose roles do not open a screen to their own home screen.
func (s *screens) portal(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims := screenClaims(ctx)
			if !allowed(claims) {
				return ctx.Redirect(http.StatusFound, claims.HomePath())
			}
			return next(ctx)
		}
	}
}

func screenClaims(ctx echo.Context) Claims {
	claims, _ := ctx.Get(contextClaimsKey).(Claims)
	return claims
}

func screenUser(c Claims) ScreenUser {
	return ScreenUser{ID: c.Subject, Name: c.Name, Username: c.Username, Roles: c.Roles}
}

func section(name, kind string, count int) Section {
	return Section{Name: name, Kind: kind, Path: "/v1/" + kind, Count: count}
}

func (s *screens) loginScreen(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, LoginScreen{Next: session.SafeNext(ctx.QueryParam(session.NextParam), "")})
}

func (s *screens) login(ctx echo.Context) error {
	username := ctx.FormValue("username")
	password := ctx.FormValue("password")
	if strings.TrimSpace(username) == "" || password == "" {
		return errAuthenticationFailed
	}

	claims, usr, err := s.auth.authenticate(strings.ToLower(strings.TrimSpace(username)), password, s.users)
	if err != nil {
		return err
	}
	token, err := s.auth.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(&http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(claims.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.Redirect(http.StatusSeeOther, session.SafeNext(ctx.FormValue(session.NextParam), usr.HomePath()))
}

func (s *screens) logout(ctx echo.Context) error {
	if token := s.sessionToken(ctx); token != "" {
		if err := s.auth.Revoke(ctx.Request().Context(), token); err != nil {
			return errors.Wrap(err, "revoking token")
		}
	}
	ctx.SetCookie(&http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (s *screens) adminScreen(ctx echo.Context) error {
	claims := screenClaims(ctx)
	counts := s.learning.Counts()
	return ctx.JSON(http.StatusOK, Screen{
		Title: "Admin dashboard",
		Role:  "admin",
		User:  screenUser(claims),
		Sections: []Section{
			section("Employees", learning.KindEmployees, counts[learning.KindEmployees]),
			section("Courses", learning.KindCourses, counts[learning.KindCourses]),
			section("Certification programs", learning.KindPrograms, counts[learning.KindPrograms]),
			section("Certification tests", learning.KindCertificationTests, counts[learning.KindCertificationTests]),
			section("Enrollments", learning.KindEnrollments, counts[learning.KindEnrollments]),
			section("Webinars", learning.KindWebinars, counts[learning.KindWebinars]),
			section("Document library", learning.KindDocuments, counts[learning.KindDocuments]),
			section("Development plans", learning.KindDevelopmentPlans, counts[learning.KindDevelopmentPlans]),
		},
	})
}

func (s *screens) hireMemberScreen(ctx echo.Context) error {
	seen := make(map[string]struct{})
	for _, e := range s.learning.Employees.All() {
		seen[e.Department] = struct{}{}
	}
	departments := make([]string, 0, len(seen))
	for d := range seen {
		departments = append(departments, d)
	}
	sort.Strings(departments)

	return ctx.JSON(http.StatusOK, Screen{
		Title:    "Hire a team member",
		Role:     "admin",
		User:     screenUser(screenClaims(ctx)),
		Sections: []Section{section("Employees", learning.KindEmployees, s.learning.Employees.Len())},
		Form: &HireForm{
			Action: "/v1/users/hire",
			Fields: []FormField{
				{Name: "name", Type: "text", Required: true},
				{Name: "username", Type: "text"},
				{Name: "email", Type: "email"},
				{Name: "department", Type: "text", Required: true},
				{Name: "title", Type: "text", Required: true},
				{Name: "password", Type: "password", Required: true},
				{Name: "password_confirm", Type: "password", Required: true},
				{Name: "roles", Type: "select-multiple"},
			},
			Roles:       user.Roles,
			Departments: departments,
		},
	})
}

func (s *screens) trainerScreen(ctx echo.Context) error {
	claims := screenClaims(ctx)
	counts := s.learning.Counts()

	// the trainer's own courses
	mine := s.learning.Courses.Filter(filter.Search(claims.Name, func(c learning.Course) string { return c.Instructor }))
	if claims.Name == "" {
		mine = nil
	}

	return ctx.JSON(http.StatusOK, Screen{
		Title: "Trainer dashboard",
		Role:  "trainer",
		User:  screenUser(claims),
		Sections: []Section{
			section("Courses", learning.KindCourses, counts[learning.KindCourses]),
			section("Certification programs", learning.KindPrograms, counts[learning.KindPrograms]),
			section("Certification tests", learning.KindCertificationTests, counts[learning.KindCertificationTests]),
			section("Enrollments", learning.KindEnrollments, counts[learning.KindEnrollments]),
			section("Webinars", learning.KindWebinars, counts[learning.KindWebinars]),
		},
		Extra: map[string]interface{}{"my_courses": nonNil(mine)},
	})
}

func (s *screens) employeeScreen(ctx echo.Context) error {
	claims := screenClaims(ctx)

	published := s.learning.Courses.List(learning.Query{Status: learning.CoursePublished})
	upcoming := s.learning.Webinars.List(learning.Query{Status: learning.WebinarUpcoming})
	docs := s.learning.Documents.List(learning.Query{Archived: core.BoolPtr(false)})

	var enrollments []learning.Enrollment
	var plans []learning.DevelopmentPlan
	if claims.Email != "" {
		enrollments = s.learning.Enrollments.Filter(func(e learning.Enrollment) bool {
			return strings.EqualFold(e.LearnerEmail, claims.Email)
		})
	}
	if claims.Name != "" {
		plans = s.learning.DevelopmentPlans.Filter(func(p learning.DevelopmentPlan) bool {
			return p.EmployeeName == claims.Name
		})
	}

	return ctx.JSON(http.StatusOK, Screen{
		Title: "My learning",
		Role:  "employee",
		User:  screenUser(claims),
		Sections: []Section{
			section("Course catalog", learning.KindCourses, len(published)),
			section("Upcoming webinars", learning.KindWebinars, len(upcoming)),
			section("Document library", learning.KindDocuments, len(docs)),
		},
		Extra: map[string]interface{}{
			"enrollments":       nonNil(enrollments),
			"development_plans": nonNil(plans),
		},
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
