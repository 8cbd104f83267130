package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpcontext "github.com/dtroode/finance-server/internal/api/http/context"
	"github.com/dtroode/finance-server/internal/api/http/handler"
	"github.com/dtroode/finance-server/internal/audit"
	"github.com/dtroode/finance-server/internal/credential"
	"github.com/dtroode/finance-server/internal/mocks"
	"github.com/dtroode/finance-server/internal/password"
	"github.com/dtroode/finance-server/internal/service"
	"github.com/dtroode/finance-server/internal/testutil"
	"github.com/dtroode/finance-server/internal/token"
)

type apiFixture struct {
	server       *httptest.Server
	serviceToken string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	log := testutil.MakeNoopLogger()
	store := testutil.NewMemoryUserStore()
	serviceTokens := token.NewServiceJWT("system-secret", []string{"verifier"}, time.Minute)
	db := mocks.NewPinger(t)
	db.On("Ping", mock.Anything).Return(nil).Maybe()

	account := service.NewAccount(store, credential.NewValidator(store), password.NewBcrypt(bcrypt.MinCost),
		token.NewSessionIssuer("session-secret"), audit.Noop{}, log)
	authorizer := service.NewAuthorizer(store, log)

	rt := New(account, account, authorizer, serviceTokens, httpcontext.NewManager(), db,
		handler.CookieOptions{Name: "userAuthToken"}, log)

	srv := httptest.NewServer(rt.Register())
	t.Cleanup(srv.Close)

	st, err := serviceTokens.GenerateServiceToken("verifier", time.Minute)
	require.NoError(t, err)

	return &apiFixture{server: srv, serviceToken: st}
}

func (f *apiFixture) do(t *testing.T, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *apiFixture) system(t *testing.T, action, query string) *http.Response {
	t.Helper()
	return f.do(t, http.MethodPost, "/system/user/"+action+"?"+query, "",
		map[string]string{"Authorization": "Bearer " + f.serviceToken})
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRouter_AccountScenario(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/register", `{"login":"u@test.com","password":"pw1234"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	userID := decode[map[string]string](t, resp)["id"]
	require.NotEmpty(t, userID)

	resp = f.do(t, http.MethodPost, "/register", `{"login":"U@Test.com ","password":"pw1234"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":"u@test.com","password":"pw1234"}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/system/user/activate?userId="+userID, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.system(t, "activate", "userId="+userID)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.system(t, "activate", "userId="+userID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":" U@Test.com","password":"pw1234"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[map[string]string](t, resp)["token"]
	require.NotEmpty(t, tok)

	resp = f.do(t, http.MethodGet, "/user", "", bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u@test.com", decode[map[string]any](t, resp)["login"])

	resp = f.do(t, http.MethodGet, "/user", "", map[string]string{"Cookie": "userAuthToken=" + tok})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.system(t, "block", "userId="+userID+"&reason=fraud")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/user", "", bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/session", "", bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, resp)["authenticated"])

	resp = f.system(t, "block", "userId="+userID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.system(t, "unblock", "userId="+userID+"&reason=resolved")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/user", "", bearer(tok))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.system(t, "unblock", "userId="+userID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_CredentialChanges(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/register", `{"login":"u@test.com","password":"pw1234"}`, nil)
	userID := decode[map[string]string](t, resp)["id"]
	require.Equal(t, http.StatusNoContent, f.system(t, "activate", "userId="+userID).StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":"u@test.com","password":"pw1234"}`, nil)
	tok := decode[map[string]string](t, resp)["token"]

	resp = f.do(t, http.MethodPatch, "/user/password", `{"newPassword":"newpass","oldPassword":"wrong"}`, bearer(tok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/user/password", `{"newPassword":"newpass","oldPassword":"pw1234"}`, bearer(tok))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/user", "", bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":"u@test.com","password":"newpass"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok = decode[map[string]string](t, resp)["token"]

	resp = f.do(t, http.MethodPatch, "/user/login", `{"login":"new@test.com","password":"newpass"}`, bearer(tok))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":"new@test.com","password":"newpass"}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Equal(t, http.StatusNoContent, f.system(t, "activate", "userId="+userID).StatusCode)

	resp = f.do(t, http.MethodPost, "/login", `{"login":"new@test.com","password":"newpass"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/finance/operations", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
