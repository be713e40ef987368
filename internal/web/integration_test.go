package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/homeinspect/internal/app"
	"github.com/vbonduro/homeinspect/internal/db"
	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore/memory"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	photos := memory.New("")
	handler, err := app.NewServer(database, photos, app.Options{
		JWTSecret:      "integration-secret",
		TokenTTL:       time.Hour,
		MaxUploadBytes: 1024,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

func (c *apiClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func signUp(t *testing.T, srv *httptest.Server, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, base: srv.URL}
	resp := c.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": email, "password": "password1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[struct {
		Token string `json:"token"`
	}](t, resp)
	require.NotEmpty(t, sess.Token)
	c.token = sess.Token
	return c
}

func TestIntegration_AuthLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := signUp(t, srv, "ann@example.com")

	resp := c.do(http.MethodGet, "/api/auth/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[domain.User](t, resp)
	assert.Equal(t, "ann@example.com", user.Email)

	resp = c.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "ann@example.com", "password": "password1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/signout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/auth/user", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	anon := &apiClient{t: t, base: srv.URL}
	resp = anon.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "ann@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = anon.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "ann@example.com", "password": "password1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
}

func TestIntegration_RequiresSignIn(t *testing.T) {
	srv := newTestServer(t)
	anon := &apiClient{t: t, base: srv.URL}

	resp := anon.do(http.MethodGet, "/api/houses", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "not signed in", body["error"])
}

func TestIntegration_HouseCRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := signUp(t, srv, "ann@example.com")

	resp := c.do(http.MethodPost, "/api/houses", map[string]string{"name": " Main St ", "address": "  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	house := decode[domain.House](t, resp)
	assert.Equal(t, "Main St", house.Name)
	assert.Nil(t, house.Address)

	resp = c.do(http.MethodPost, "/api/houses", map[string]string{"name": "Cabin", "address": "Lakeside"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/houses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]domain.HouseWithCount](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "Cabin", list[0].Name)

	resp = c.do(http.MethodGet, "/api/houses?q=LAKE", nil)
	list = decode[[]domain.HouseWithCount](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Cabin", list[0].Name)

	resp = c.do(http.MethodPatch, "/api/houses/"+house.ID, map[string]string{"name": "Main Street", "address": "1 Main"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.House](t, resp)
	assert.Equal(t, "Main Street", updated.Name)

	resp = c.do(http.MethodPost, "/api/houses", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	verr := decode[map[string]string](t, resp)
	assert.Equal(t, "name", verr["field"])

	resp = c.do(http.MethodPost, "/api/houses", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	other := signUp(t, srv, "bob@example.com")
	resp = other.do(http.MethodGet, "/api/houses/"+house.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodDelete, "/api/houses/"+house.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodGet, "/api/houses/"+house.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_InspectionsAndImages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	c := signUp(t, srv, "ann@example.com")

	resp := c.do(http.MethodPost, "/api/houses", map[string]string{"name": "Main St"})
	house := decode[domain.House](t, resp)

	resp = c.do(http.MethodPost, "/api/houses/"+house.ID+"/inspections", map[string]string{"title": "Roof", "inspection_date": "2024-03-15"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inspection := decode[domain.Inspection](t, resp)
	assert.Nil(t, inspection.Notes)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), inspection.InspectionDate)

	resp = c.do(http.MethodGet, "/api/houses", nil)
	list := decode[[]domain.HouseWithCount](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].InspectionCount)

	key := "inspections/" + inspection.ID + "/1710460800000-a.jpg"
	resp = c.do(http.MethodPut, "/api/objects/"+key, minimalJPEG)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	img := decode[domain.Image](t, resp)
	assert.Equal(t, "1710460800000-a.jpg", img.ID)
	assert.Equal(t, "/files/"+key, img.URL)

	resp = c.do(http.MethodPut, "/api/objects/"+key, []byte("%PDF-1.4 not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = c.do(http.MethodPut, "/api/objects/"+key, bytes.Repeat(minimalJPEG, 3))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = c.do(http.MethodPut, "/api/objects/elsewhere/a.jpg", minimalJPEG)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The path is checked before the body's type.
	resp = c.do(http.MethodPut, "/api/objects/foo/bar.txt", []byte("plain text"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = c.do(http.MethodPut, "/api/objects/inspections/does-not-exist/x.jpg", []byte("plain text"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	other := signUp(t, srv, "bob@example.com")
	resp = other.do(http.MethodPut, "/api/objects/"+key, []byte("plain text"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/objects?prefix=inspections/"+inspection.ID+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	images := decode[[]domain.Image](t, resp)
	require.Len(t, images, 1)
	assert.Equal(t, key, images[0].Path)

	resp = c.do(http.MethodGet, "/api/objects?prefix=users/", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/urls/"+key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/files/"+key, decode[map[string]string](t, resp)["url"])

	anon := &apiClient{t: t, base: srv.URL}
	resp = anon.do(http.MethodGet, "/files/"+key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minimalJPEG, data)

	resp = c.do(http.MethodPatch, "/api/inspections/"+inspection.ID, map[string]string{"title": "Roof check", "notes": "moss", "inspection_date": "2024-03-16"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Roof check", decode[domain.Inspection](t, resp).Title)

	resp = c.do(http.MethodGet, "/api/houses/"+house.ID+"/inspections?q=MOSS", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Inspection](t, resp), 1)

	resp = c.do(http.MethodDelete, "/api/objects/"+key, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodDelete, "/api/objects/"+key, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodDelete, "/api/inspections/"+inspection.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodGet, "/api/houses/"+house.ID+"/inspections/"+inspection.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	anon := &apiClient{t: t, base: srv.URL}

	resp := anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = anon.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
