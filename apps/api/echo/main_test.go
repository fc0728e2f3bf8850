package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/email"
	"github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/inmem"
	"github.com/trezcool/academia/storage/seed"
)

const (
	adminPwd    = "Adm1n!Demo#"
	trainerPwd  = "Tra1ner!Demo#"
	employeePwd = "Empl0yee!Demo#"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	srv      *server
	users    user.Service
	learning *learning.Service
	mail     *emailsvc.ConsoleServiceMock

	admin, trainer, employee user.User
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:         "Academia",
		SecretKey:       "test-secret",
		TestMode:        true,
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 2 * time.Hour,
			LoginRateLimit:            100,
			LoginBurst:                100,
			SessionCookie:             "academia_token",
		},
	}
}

func newTestApp(t *testing.T, confs ...func(*core.Config)) *testApp {
	t.Helper()

	conf := testConfig()
	for _, fn := range confs {
		fn(conf)
	}
	logger := logsvc.NewDiscardLogger()
	require.NoError(t, core.ParseEmailTemplates(logger, true))

	db := inmemdb.Open()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	learnSvc := learning.NewService(inmemdb.NewSnapshotStore(db), usrSvc, mailSvc, logger)

	data, err := seed.Learning()
	require.NoError(t, err)
	require.NoError(t, learnSvc.Load(context.Background(), data))

	demo, err := seed.CreateDemoUsers(usrSvc)
	require.NoError(t, err)
	require.Len(t, demo, 3)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	srv := NewServer(Deps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		LearningSvc: learnSvc,
		Validate:    validate,
		Translator:  translator,
	}).(*server)

	return &testApp{
		srv:      srv,
		users:    usrSvc,
		learning: learnSvc,
		mail:     mailSvc,
		admin:    demo[0],
		trainer:  demo[1],
		employee: demo[2],
	}
}

func (a *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := a.srv.auth.GenerateToken(a.srv.auth.UserClaims(usr))
	require.NoError(t, err)
	return token
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	app := newTestApp(t)
	rec := app.serve(newRequest(http.MethodGet, "/"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Welcome to Academia API!", rec.Body.String())
}
