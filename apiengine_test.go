package websvc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiEngine_Handle(t *testing.T) {
	m := NewServicesManager("engine")
	m.AddService(NewService("echo-method").Handle(func(state *ApiState) error {
		// 使用 X-Method 头返回，解决 HEAD 方法不支持 body 的情况。
		state.RawResponse.Header().Set("X-Method", state.RawRequest.Method)
		return nil
	}))

	e := NewEngine()
	setup := e.Handle("/api/:service", m, nil)
	assert.Same(t, m, setup.Manager())
	assert.Same(t, e, setup.Engine())

	ts := httptest.NewServer(e)
	defer ts.Close()

	run := func(httpMethod string) {
		t.Run(httpMethod, func(t *testing.T) {
			req, _ := http.NewRequest(httpMethod, ts.URL+"/api/echo-method", nil)
			if httpMethod == http.MethodPost || httpMethod == http.MethodPut {
				req.Header.Set(HttpHeaderContentType, ContentTypeForm)
			}

			res, err := new(http.Client).Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			require.Equal(t, 200, res.StatusCode)
			require.Equal(t, httpMethod, res.Header.Get("X-Method"))
		})
	}

	run("GET")
	run("POST")
	run("PUT")
	run("DELETE")
	run("PATCH")
	run("HEAD")
	run("OPTIONS")
}

func TestApiEngine_AddService(t *testing.T) {
	e := NewEngine()
	e.Handle("/", NewServicesManager("root"), nil).
		AddService(NewService("a").Handle(func(state *ApiState) error {
			state.Send(200, ContentTypePlainText, []byte("a"))
			return nil
		})).
		AddService(NewService("b").Handle(func(state *ApiState) error {
			state.Send(200, ContentTypePlainText, []byte("b"))
			return nil
		}))

	ts := httptest.NewServer(e)
	defer ts.Close()

	get := func(url string) (int, string) {
		res, err := http.Get(url)
		require.NoError(t, err)
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, string(b)
	}

	code, body := get(ts.URL + "/?service=a")
	assert.Equal(t, 200, code)
	assert.Equal(t, "a", body)

	_, body = get(ts.URL + "/?action=b")
	assert.Equal(t, "b", body)

	res, err := http.Post(ts.URL+"/", ContentTypeJson, strings.NewReader(`{"service":"b"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	assert.Equal(t, "b", string(b))
}
