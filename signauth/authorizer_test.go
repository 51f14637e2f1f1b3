package signauth

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmstar/go-websvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDeviationTimeChecker(t *testing.T) {
	checker := MaxDeviationTimeChecker(10)
	now := time.Now().Unix()

	assert.NoError(t, checker(now))
	assert.NoError(t, checker(now-5))
	assert.NoError(t, checker(now+5))
	assert.Error(t, checker(now-100))
	assert.Error(t, checker(now+100))
	assert.NoError(t, NoTimeChecker(0))
}

func newSecretManager() *websvc.ServicesManager {
	a := NewAuthorizer(MapSecretFinder(map[string]string{testKey: testSecret}))

	svc := websvc.NewService("secret").
		RequireAuth(a.Authorize).
		Handle(func(state *websvc.ApiState) error {
			id, _ := state.Param("id")
			state.SendJson(200, id)
			return nil
		})
	svc.AddParameter(websvc.NewRequestParameter("id", websvc.ParamTypeInt, false))

	m := websvc.NewServicesManager("auth")
	m.AddService(svc)
	return m
}

func TestAuthorizer_Authorize(t *testing.T) {
	m := newSecretManager()
	h := websvc.CreateHandlerFunc(m, nil)

	var logMessage []any
	m.AddObserver(websvc.DispatchObserverFunc(func(state *websvc.ApiState) {
		logMessage = state.LogMessage
	}))

	serve := func(r *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, r)
		return rec
	}

	t.Run("Get", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?service=secret&id=12", nil)
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))

		rec := serve(r)
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "12", rec.Body.String())
		assert.Equal(t, []any{"AuthKey", testKey}, logMessage)
	})

	t.Run("Json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"service":"secret","id":7}`))
		r.Header.Set(websvc.HttpHeaderContentType, websvc.ContentTypeJson)
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))

		rec := serve(r)
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "7", rec.Body.String())
	})

	t.Run("Form", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`service=secret&id=8`))
		r.Header.Set(websvc.HttpHeaderContentType, websvc.ContentTypeForm)
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))

		rec := serve(r)
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "8", rec.Body.String())
	})

	t.Run("Multipart", func(t *testing.T) {
		r := newMultipartRequest(t, "9")
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))

		rec := serve(r)
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "9", rec.Body.String())
	})

	t.Run("MultipartTampered", func(t *testing.T) {
		r := newMultipartRequest(t, "9")
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))

		// 签名后替换 body ，只有 id 的值不同。
		tampered := newMultipartRequest(t, "10")
		r.Body = tampered.Body

		rec := serve(r)
		assert.Equal(t, 401, rec.Code)
		assert.Equal(t, []any{"AuthKey", testKey, "AuthError", "signature mismatch"}, logMessage)
	})

	t.Run("Tampered", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?service=secret&id=12", nil)
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()))
		r.URL.RawQuery = "service=secret&id=13"

		rec := serve(r)
		assert.Equal(t, 401, rec.Code)
		assert.Equal(t, []any{"AuthKey", testKey, "AuthError", "signature mismatch"}, logMessage)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?service=secret&id=12", nil)
		require.NoError(t, AppendSign(r, "other", testSecret, "", time.Now().Unix()))

		assert.Equal(t, 401, serve(r).Code)
		assert.Equal(t, "unknown key", logMessage[3])
	})

	t.Run("Expired", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?service=secret&id=12", nil)
		require.NoError(t, AppendSign(r, testKey, testSecret, "", time.Now().Unix()-1000))

		assert.Equal(t, 401, serve(r).Code)
	})

	t.Run("NoHeader", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/?service=secret&id=12", nil))
		assert.Equal(t, 401, rec.Code)
		assert.Equal(t, "AuthError", logMessage[0])
	})

	t.Run("ParamsBeforeAuth", func(t *testing.T) {
		rec := serve(httptest.NewRequest("GET", "/?service=secret", nil))
		assert.Equal(t, 404, rec.Code)
		assert.Nil(t, logMessage)
	})
}

func newMultipartRequest(t *testing.T, id string) *http.Request {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	require.NoError(t, w.SetBoundary("websvc-test-boundary"))
	require.NoError(t, w.WriteField("service", "secret"))
	require.NoError(t, w.WriteField("id", id))
	require.NoError(t, w.Close())

	r := httptest.NewRequest("POST", "/", io.NopCloser(buf))
	r.Header.Set(websvc.HttpHeaderContentType, w.FormDataContentType())
	return r
}
