package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/user"
)

func (a *testApp) cookieRequest(t *testing.T, path string, usr *user.User) *http.Request {
	req := newRequest(http.MethodGet, path)
	if usr != nil {
		req.AddCookie(&http.Cookie{Name: "academia_token", Value: a.token(t, *usr)})
	}
	return req
}

func Test_screens_gate(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name         string
		path         string
		usr          *user.User
		wantCode     int
		wantLocation string
	}{
		{"anonymous admin", "/admin", nil, http.StatusFound, "/login?next=%2Fadmin"},
		{"anonymous hire", "/admin/hire-member", nil, http.StatusFound, "/login?next=%2Fadmin%2Fhire-member"},
		{"anonymous with query", "/employee?tab=plans", nil, http.StatusFound, "/login?next=%2Femployee%3Ftab%3Dplans"},
		{"employee on admin", "/admin", &app.employee, http.StatusFound, "/employee"},
		{"employee on trainer", "/trainer", &app.employee, http.StatusFound, "/employee"},
		{"trainer on admin", "/admin/hire-member", &app.trainer, http.StatusFound, "/trainer"},
		{"admin", "/admin", &app.admin, http.StatusOK, ""},
		{"admin on trainer", "/trainer", &app.admin, http.StatusOK, ""},
		{"trainer", "/trainer", &app.trainer, http.StatusOK, ""},
		{"employee", "/employee", &app.employee, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(app.cookieRequest(t, tt.path, tt.usr))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}

	t.Run("invalid cookie", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/admin")
		req.AddCookie(&http.Cookie{Name: "academia_token", Value: "not-a-jwt"})
		rec := app.serve(req)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?next=%2Fadmin", rec.Header().Get("Location"))
	})

	t.Run("bearer header", func(t *testing.T) {
		rec := app.serve(newAuthRequest(http.MethodGet, "/employee", app.token(t, app.employee)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_screens_content(t *testing.T) {
	app := newTestApp(t)

	t.Run("admin", func(t *testing.T) {
		rec := app.serve(app.cookieRequest(t, "/admin", &app.admin))
		require.Equal(t, http.StatusOK, rec.Code)

		var screen Screen
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
		assert.Equal(t, "admin", screen.Role)
		assert.Equal(t, "admin_demo", screen.User.Username)
		require.Len(t, screen.Sections, len(learning.Kinds))
		counts := app.learning.Counts()
		for _, sec := range screen.Sections {
			assert.Equal(t, counts[sec.Kind], sec.Count, sec.Kind)
			assert.Equal(t, "/v1/"+sec.Kind, sec.Path)
		}
	})

	t.Run("hire member", func(t *testing.T) {
		rec := app.serve(app.cookieRequest(t, "/admin/hire-member", &app.admin))
		require.Equal(t, http.StatusOK, rec.Code)

		var screen Screen
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
		require.NotNil(t, screen.Form)
		assert.Equal(t, "/v1/users/hire", screen.Form.Action)
		assert.Equal(t, []string{"Engineering", "Marketing", "People", "Sales"}, screen.Form.Departments)
		assert.Equal(t, user.Roles, screen.Form.Roles)
	})

	t.Run("employee", func(t *testing.T) {
		rec := app.serve(app.cookieRequest(t, "/employee", &app.employee))
		require.Equal(t, http.StatusOK, rec.Code)

		var screen struct {
			Screen
			Extra struct {
				Enrollments      []learning.Enrollment      `json:"enrollments"`
				DevelopmentPlans []learning.DevelopmentPlan `json:"development_plans"`
			} `json:"extra"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
		assert.Equal(t, "employee", screen.Role)
		assert.Len(t, screen.Extra.Enrollments, 2)
		require.Len(t, screen.Extra.DevelopmentPlans, 1)
		assert.Equal(t, "Lead the platform migration", screen.Extra.DevelopmentPlans[0].Goal)
		assert.Equal(t, []Section{
			{Name: "Course catalog", Kind: learning.KindCourses, Path: "/v1/courses", Count: 4},
			{Name: "Upcoming webinars", Kind: learning.KindWebinars, Path: "/v1/webinars", Count: 1},
			{Name: "Document library", Kind: learning.KindDocuments, Path: "/v1/documents", Count: 4},
		}, screen.Sections)
	})

	t.Run("trainer", func(t *testing.T) {
		rec := app.serve(app.cookieRequest(t, "/trainer", &app.trainer))
		require.Equal(t, http.StatusOK, rec.Code)

		var screen struct {
			Screen
			Extra struct {
				MyCourses []learning.Course `json:"my_courses"`
			} `json:"extra"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screen))
		assert.Equal(t, "trainer", screen.Role)
		assert.Len(t, screen.Extra.MyCourses, 2)
	})
}

func Test_screens_login(t *testing.T) {
	app := newTestApp(t)

	t.Run("login screen keeps safe next", func(t *testing.T) {
		for next, want := range map[string]string{
			"/admin":             "/admin",
			"//evil.example.com": "",
			"https://evil.test/": "",
		} {
			rec := app.serve(newRequest(http.MethodGet, "/login?next="+url.QueryEscape(next)))
			require.Equal(t, http.StatusOK, rec.Code)
			checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshalObj(t, LoginScreen{Next: want})}, rec)
		}
	})

	tests := []struct {
		name         string
		form         url.Values
		wantCode     int
		wantLocation string
	}{
		{
			name:         "redirects to next",
			form:         url.Values{"username": {"admin_demo"}, "password": {adminPwd}, "next": {"/admin/hire-member"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/admin/hire-member",
		},
		{
			name:         "redirects home without next",
			form:         url.Values{"username": {"trainer_demo"}, "password": {trainerPwd}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/trainer",
		},
		{
			name:         "ignores off-site next",
			form:         url.Values{"username": {"SCONNOR"}, "password": {employeePwd}, "next": {"//evil.example.com"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/employee",
		},
		{
			name:     "bad credentials",
			form:     url.Values{"username": {"sconnor"}, "password": {"wrong"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "blank form",
			form:     url.Values{},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(newFormRequest("/login", tt.form))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))

			if tt.wantCode != http.StatusSeeOther {
				checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: marshalObj(t, httpErr{Error: "authentication failed"})}, rec)
				return
			}
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "academia_token", cookies[0].Name)
			assert.True(t, cookies[0].HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
			assert.True(t, cookies[0].Secure)

			// the cookie opens the screen
			req := newRequest(http.MethodGet, tt.wantLocation)
			req.AddCookie(cookies[0])
			assert.Equal(t, http.StatusOK, app.serve(req).Code)
		})
	}
}

func Test_screens_logout(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.admin)
	cookie := &http.Cookie{Name: "academia_token", Value: token}

	req := newRequest(http.MethodPost, "/logout")
	req.AddCookie(cookie)
	rec := app.serve(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	// the old cookie is dead on screens and on the API
	req = newRequest(http.MethodGet, "/admin")
	req.AddCookie(cookie)
	rec = app.serve(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin", rec.Header().Get("Location"))

	rec = app.serve(newAuthRequest(http.MethodGet, "/v1/courses", token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_loginRateLimit(t *testing.T) {
	app := newTestApp(t, func(conf *core.Config) {
		conf.Server.LoginRateLimit = 0.001
		conf.Server.LoginBurst = 2
	})

	bad := marshalObj(t, LoginRequest{Username: "admin_demo", Password: "wrong"})
	for i := 0; i < 2; i++ {
		rec := app.serve(newRequest(http.MethodPost, "/v1/users/login", bad))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := app.serve(newRequest(http.MethodPost, "/v1/users/login", bad))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marshalObj(t, httpErr{Error: "too many requests"}),
	}, rec)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// the screen login shares the limiter
	rec = app.serve(newFormRequest("/login", url.Values{"username": {"admin_demo"}, "password": {adminPwd}}))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other clients are not limited
	req := newRequest(http.MethodPost, "/v1/users/login", bad)
	req.RemoteAddr = "198.51.100.7:4242"
	rec = app.serve(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
