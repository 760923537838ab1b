package web

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/brunch/app"
)

const export = "Name,Time,Guests,Area,Deposits\n" +
	"Smith,12:00,4,Wilson's 4,£20\n" +
	"Jones,13:45,2,Wilson's 4,\n"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	svc, err := app.NewService(app.Deps{})
	require.NoError(t, err)
	s, err := NewServer(svc, opts)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func upload(t *testing.T, c *http.Client, url, body string, double bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("bookings", "saturday.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, body)
	require.NoError(t, err)
	if double {
		require.NoError(t, mw.WriteField("double_sided", "on"))
	}
	require.NoError(t, mw.Close())
	resp, err := c.Post(url+"/generate", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestUploadAndDownload(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := newClient(t)

	resp := upload(t, c, ts.URL, export, true)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Request.URL.Path, "/runs/"))
	assert.Contains(t, body, "saturday.csv: 2 bookings on 1 tables")
	assert.Contains(t, body, "double-sided")
	assert.Contains(t, body, `class="due"`)
	runPath := resp.Request.URL.Path

	for file, ctype := range map[string]string{
		"sheet.xlsx": app.FormatXLSX.ContentType(),
		"cards.pdf":  "application/pdf",
		"chart.html": "text/html; charset=utf-8",
		"sheet.json": "application/json",
		"sheet.csv":  "text/csv; charset=utf-8",
	} {
		resp, err := c.Get(ts.URL + runPath + "/" + file)
		require.NoError(t, err)
		data := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, file)
		assert.Equal(t, ctype, resp.Header.Get("Content-Type"), file)
		assert.NotEmpty(t, data, file)
	}

	resp, err := c.Get(ts.URL + runPath + "/cards.pdf")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Brunch_Table_Cards.pdf")

	resp, err = c.Get(ts.URL + runPath + "/secrets.txt")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = c.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Recent runs")
}

func TestDownloadRequiresOwnership(t *testing.T) {
	ts := newTestServer(t, Options{})
	owner := newClient(t)
	resp := upload(t, owner, ts.URL, export, false)
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runPath := resp.Request.URL.Path

	stranger := newClient(t)
	for _, p := range []string{runPath, runPath + "/sheet.xlsx"} {
		resp, err := stranger.Get(ts.URL + p)
		require.NoError(t, err)
		readBody(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestUploadRejectsNonExport(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := upload(t, newClient(t), ts.URL, "hello,world\n1,2\n", false)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "does not look like a booking export")
}

func TestUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, Options{MaxUploadBytes: 64})
	resp := upload(t, newClient(t), ts.URL, export+strings.Repeat("Walk in,12:00,2,Bar,\n", 20), false)
	readBody(t, resp)
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
	assert.Equal(t, "/generate", resp.Request.URL.Path)
}

func TestHealthAndRunsAPI(t *testing.T) {
	ts := newTestServer(t, Options{APIToken: "secret"})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", readBody(t, resp))

	resp, err = http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResultCacheEviction(t *testing.T) {
	c := newResultCache(2)
	c.Put(&app.Result{ID: "a"})
	c.Put(&app.Result{ID: "b"})
	_, _ = c.Get("a")
	c.Put(&app.Result{ID: "c"})

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, c.Len())
}

func TestSessionLimit(t *testing.T) {
	sm := NewSessionManager(nil, nil, 2)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		require.NoError(t, sm.AddRunID(rr, req, id))
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		for _, ck := range rr.Result().Cookies() {
			req.AddCookie(ck)
		}
	}
	assert.Equal(t, []string{"c", "b"}, sm.RunIDs(req))
	assert.False(t, sm.Owns(req, "a"))

	other := NewSessionManager(nil, nil, 2)
	assert.Empty(t, other.RunIDs(req), "cookie from another key must not decode")
}

func TestForgetDropsRunAccess(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := newClient(t)

	resp := upload(t, c, ts.URL, export, false)
	_ = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runPath := resp.Request.URL.Path

	resp, err := c.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Recent runs")

	resp, err = c.Post(ts.URL+"/forget", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.NotContains(t, body, "Recent runs")

	resp, err = c.Get(ts.URL + runPath)
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
