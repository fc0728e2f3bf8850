package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := newTestApp(t)

	tests := []httpTest{
		{
			name:     "missing credentials",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"this field is required","password":"this field is required"}`),
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshalObj(t, LoginRequest{Username: "admin_demo", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown user",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshalObj(t, LoginRequest{Username: "ghost", Password: adminPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	runHTTPTests(t, app, tests)

	for _, uname := range []string{"admin_demo", " ADMIN@academia.test "} {
		t.Run("success "+uname, func(t *testing.T) {
			rec := app.serve(newRequest(http.MethodPost, "/v1/users/login",
				marshalObj(t, LoginRequest{Username: uname, Password: adminPwd})))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			claims, err := app.srv.auth.ParseToken(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, app.admin.ID, claims.Subject)
			assert.True(t, claims.IsAdmin)
			assert.Equal(t, "/admin", claims.HomePath())
		})
	}

	t.Run("deactivated account", func(t *testing.T) {
		inactive := false
		_, err := app.users.Update(app.trainer.ID, user.UpdateUser{
			Name:     app.trainer.Name,
			Username: app.trainer.Username,
			Email:    app.trainer.Email,
			IsActive: &inactive,
		})
		require.NoError(t, err)

		rec := app.serve(newRequest(http.MethodPost, "/v1/users/login",
			marshalObj(t, LoginRequest{Username: "trainer_demo", Password: trainerPwd})))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		}, rec)
	})
}

func Test_userApi_logout(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.employee)

	rec := app.serve(newAuthRequest(http.MethodPost, "/v1/users/logout", token))
	require.Equal(t, http.StatusNoContent, rec.Code)

	tests := []httpTest{
		{
			name:     "revoked token",
			method:   http.MethodGet,
			path:     "/v1/courses",
			token:    token,
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "token revoked"}),
		},
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     "/v1/users/logout",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
	}
	runHTTPTests(t, app, tests)

	// other sessions are unaffected
	rec = app.serve(newAuthRequest(http.MethodGet, "/v1/courses", app.token(t, app.trainer)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_refreshToken(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.trainer)

	rec := app.serve(newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := app.srv.auth.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, app.trainer.ID, claims.Subject)
	assert.True(t, claims.IsTrainer)
}

func Test_userApi_query(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.token(t, app.admin)

	tests := []httpTest{
		{
			name:     "employee cannot list users",
			method:   http.MethodGet,
			path:     "/v1/users",
			token:    app.token(t, app.employee),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "search",
			method:   http.MethodGet,
			path:     "/v1/users?search=connor",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, []user.User{app.employee}),
		},
		{
			name:     "by role",
			method:   http.MethodGet,
			path:     "/v1/users?role=" + url.QueryEscape(user.RoleTrainerLead),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, []user.User{app.trainer}),
		},
		{
			name:     "no match",
			method:   http.MethodGet,
			path:     "/v1/users?search=nobody",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "roles",
			method:   http.MethodGet,
			path:     "/v1/users/roles",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, user.Roles),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_userApi_hire(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.token(t, app.admin)
	employees := app.learning.Employees.Len()

	hireRequest := func(username, department string) learning.HireRequest {
		return learning.HireRequest{
			NewUser: user.NewUser{
				Name:            "Grace Hopper",
				Username:        username,
				Email:           username + "@academia.test",
				Password:        "C0bol!Rocks",
				PasswordConfirm: "C0bol!Rocks",
				Roles:           []string{user.RoleTrainer},
			},
			Department: department,
			Title:      "Staff Engineer",
		}
	}
	hire := func(username string) []byte {
		return marshalObj(t, hireRequest(username, "Engineering"))
	}

	tests := []httpTest{
		{
			name:     "trainer cannot hire",
			method:   http.MethodPost,
			path:     "/v1/users/hire",
			body:     hire("ghopper"),
			token:    app.token(t, app.trainer),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "blank department",
			method:   http.MethodPost,
			path:     "/v1/users/hire",
			body:     marshalObj(t, hireRequest("ghopper", "  ")),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"department":"this field cannot be blank"}`),
		},
	}
	runHTTPTests(t, app, tests)

	rec := app.serve(newAuthRequest(http.MethodPost, "/v1/users/hire", adminToken, hire("ghopper")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var hired learning.Hire
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hired))
	assert.Equal(t, "ghopper", hired.User.Username)
	assert.Equal(t, hired.User.ID, hired.Employee.UserID)
	assert.Equal(t, "Engineering", hired.Employee.Department)
	assert.Equal(t, employees+1, app.learning.Employees.Len())

	sent := app.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ghopper@academia.test", sent[0].To[0].Address)

	// usernames stay unique
	rec = app.serve(newAuthRequest(http.MethodPost, "/v1/users/hire", adminToken, hire("ghopper")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, employees+1, app.learning.Employees.Len())
}
