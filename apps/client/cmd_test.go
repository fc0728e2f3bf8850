package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/apiclient"
	"github.com/trezcool/academia/services/email"
	"github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/inmem"
	"github.com/trezcool/academia/storage/seed"
)

type testCLI struct {
	*commandLine
	learning *learning.Service
	store    *session.MemoryStore
	out      *bytes.Buffer
}

func setup(t *testing.T) *testCLI {
	t.Helper()

	conf := &core.Config{
		AppName:   "Academia",
		SecretKey: "test-secret",
		TestMode:  true,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 2 * time.Hour,
			LoginRateLimit:            100,
			LoginBurst:                100,
			SessionCookie:             "academia_token",
		},
	}
	logger := logsvc.NewDiscardLogger()
	require.NoError(t, core.ParseEmailTemplates(logger, true))

	db := inmemdb.Open()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	learnSvc := learning.NewService(inmemdb.NewSnapshotStore(db), usrSvc, emailsvc.NewConsoleServiceMock(conf, logger), logger)

	data, err := seed.Learning()
	require.NoError(t, err)
	require.NoError(t, learnSvc.Load(context.Background(), data))
	_, err = seed.CreateDemoUsers(usrSvc)
	require.NoError(t, err)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	srv := httptest.NewServer(echoapi.NewServer(echoapi.Deps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		LearningSvc: learnSvc,
		Validate:    validate,
		Translator:  translator,
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	out := new(bytes.Buffer)
	return &testCLI{
		commandLine: &commandLine{
			client: apiclient.New(srv.URL+"/v1", store),
			in:     bufio.NewReader(strings.NewReader("")),
			out:    out,
		},
		learning: learnSvc,
		store:    store,
		out:      out,
	}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

// exec runs one command and returns what it printed.
func (c *testCLI) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c.out.Reset()
	err := c.run(context.Background(), append([]string{"client"}, args...))
	return c.out.String(), err
}

func (c *testCLI) login(t *testing.T, uname, pwd string) {
	t.Helper()
	mockPassword(t, pwd)
	_, err := c.exec(t, "login", "-username", uname)
	require.NoError(t, err)
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"lol"}},
		{"list without kind", []string{"list"}},
		{"get without id", []string{"get", "courses"}},
		{"archive courses", []string{"archive", "courses", "1"}},
		{"login without username", []string{"login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cli.exec(t, tt.args...)
			assert.Equal(t, errHelp, err)
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	cli := setup(t)

	mockPassword(t, "wrong")
	out, err := cli.exec(t, "login", "-username", "admin_demo")
	assert.Error(t, err)
	assert.Contains(t, out, "authentication failed")
	token, _ := cli.store.Token(context.Background())
	assert.Empty(t, token)

	mockPassword(t, "Adm1n!Demo#")
	out, err = cli.exec(t, "login", "-username", "admin_demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")
	token, _ = cli.store.Token(context.Background())
	assert.NotEmpty(t, token)

	out, err = cli.exec(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	token, _ = cli.store.Token(context.Background())
	assert.Empty(t, token)

	out, err = cli.exec(t, "list", "courses")
	assert.Error(t, err)
	assert.Contains(t, out, "missing or malformed jwt")
}

func Test_commandLine_list(t *testing.T) {
	cli := setup(t)
	cli.login(t, "sconnor", "Empl0yee!Demo#")

	out, err := cli.exec(t, "list", "courses", "-category", "Engineering")
	require.NoError(t, err)
	assert.Contains(t, out, "Go Fundamentals")
	assert.Contains(t, out, "Advanced Go")
	assert.NotContains(t, out, "Negotiation Essentials")
	assert.Contains(t, out, "2 courses")

	out, err = cli.exec(t, "list", "courses", "-q", "negotiation", "-q", "storytelling")
	require.NoError(t, err)
	assert.Contains(t, out, "Negotiation Essentials")
	assert.Contains(t, out, "Brand Storytelling")
	assert.Contains(t, out, "2 courses")

	out, err = cli.exec(t, "list", "documents", "-archived", "false")
	require.NoError(t, err)
	assert.NotContains(t, out, "Brand Assets 2022")
	assert.Contains(t, out, "4 documents")

	out, err = cli.exec(t, "list", "courses", "-search", "cobol")
	require.NoError(t, err)
	assert.Contains(t, out, "0 courses")

	out, err = cli.exec(t, "list", "employees")
	assert.Error(t, err)
	assert.Contains(t, out, "permission denied")

	_, err = cli.exec(t, "list", "lols")
	assert.Error(t, err)
}

func Test_commandLine_get(t *testing.T) {
	cli := setup(t)
	cli.login(t, "sconnor", "Empl0yee!Demo#")

	out, err := cli.exec(t, "get", "courses", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Go Fundamentals"`)

	out, err = cli.exec(t, "get", "courses", "99")
	assert.Error(t, err)
	assert.Contains(t, out, "not found")
}

func Test_commandLine_delete(t *testing.T) {
	cli := setup(t)
	cli.login(t, "admin_demo", "Adm1n!Demo#")
	courses := cli.learning.Courses.Len()

	cli.in = bufio.NewReader(strings.NewReader("n\n"))
	out, err := cli.exec(t, "delete", "courses", "3")
	assert.Equal(t, errAborted, err)
	assert.Contains(t, out, "Delete courses 3?")
	assert.Equal(t, courses, cli.learning.Courses.Len())

	cli.in = bufio.NewReader(strings.NewReader("y\n"))
	out, err = cli.exec(t, "delete", "courses", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Record deleted")
	assert.Equal(t, courses-1, cli.learning.Courses.Len())

	out, err = cli.exec(t, "delete", "courses", "4", "-yes")
	require.NoError(t, err)
	assert.NotContains(t, out, "[y/N]")
	assert.Equal(t, courses-2, cli.learning.Courses.Len())
}

func Test_commandLine_actions(t *testing.T) {
	cli := setup(t)
	cli.login(t, "admin_demo", "Adm1n!Demo#")

	out, err := cli.exec(t, "feature", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"Advanced Go" is now featured`)

	out, err = cli.exec(t, "feature", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"Advanced Go" is no longer featured`)

	out, err = cli.exec(t, "archive", "documents", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Record archived")
	doc, err := cli.learning.Documents.Get("1")
	require.NoError(t, err)
	assert.True(t, doc.Archived)

	out, err = cli.exec(t, "restore", "documents", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Record restored")
	doc, err = cli.learning.Documents.Get("1")
	require.NoError(t, err)
	assert.False(t, doc.Archived)
}
