package websvc_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cmstar/go-logx"
	"github.com/cmstar/go-websvc"
	"github.com/cmstar/go-websvc/logsetup"
	"github.com/cmstar/go-websvc/websvctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 记录 Find 的名称，总是返回同一个 Logger 。
type namedLogFinder struct {
	mu     sync.Mutex
	names  []string
	logger logx.Logger
}

func (f *namedLogFinder) Find(name string) logx.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return f.logger
}

func newManager() *websvc.ServicesManager {
	m := websvc.NewServicesManager("demo")
	m.Logger = logsetup.Default()

	hello := websvc.NewService("say-hello").Handle(func(state *websvc.ApiState) error {
		name, _ := state.Param("name")
		state.SendResponse("Hello "+name.(string)+"!", websvc.ResponseTypeSuccess, http.StatusOK, nil)
		return nil
	})
	hello.AddParameter(websvc.NewRequestParameter("name", websvc.ParamTypeString, false))
	m.AddService(hello)

	m.AddService(websvc.NewService("fail").Handle(func(state *websvc.ApiState) error {
		return errors.New("db down")
	}))

	m.AddService(websvc.NewService("crash").Handle(func(state *websvc.ApiState) error {
		panic(errors.New("nil map"))
	}))
	return m
}

func TestCreateHandlerFunc_Logging(t *testing.T) {
	logger := websvctest.NewLogRecorder()
	finder := &namedLogFinder{logger: logger}
	m := newManager()
	h := websvc.CreateHandlerFunc(m, finder)

	t.Run("dispatched", func(t *testing.T) {
		logger.Reset()
		rec := websvctest.Serve(m, logger, "/?service=say-hello&name=Ann", websvctest.NewStateSetup{
			Header: http.Header{websvc.HttpHeaderRequestId: []string{"r1"}},
		})
		assert.Equal(t, `{"message":"Hello Ann!","type":"success","http-code":200}`, rec.Body.String())

		last := logger.Last()
		require.NotNil(t, last)
		assert.Equal(t, logx.LevelToString(logx.LevelInfo), last["level"])
		assert.Equal(t, "r1", last["RequestID"])
		assert.Equal(t, "say-hello", last["Service"])
		assert.Equal(t, "GET", last["Method"])
		assert.Equal(t, "dispatched", last["Result"])
		assert.Equal(t, "/?service=say-hello&name=Ann", last["URL"])
		assert.NotContains(t, last, "Error")
	})

	t.Run("missing", func(t *testing.T) {
		logger.Reset()
		websvctest.Serve(m, logger, "/?service=say-hello", websvctest.NewStateSetup{})

		last := logger.Last()
		assert.Equal(t, logx.LevelToString(logx.LevelWarn), last["level"])
		assert.Equal(t, "missingRequiredParams", last["Result"])
		assert.Equal(t, "name", last["Missing"])
		assert.Equal(t, "RequestError", last["ErrorType"])
	})

	t.Run("handler-error", func(t *testing.T) {
		logger.Reset()
		rec := websvctest.Serve(m, logger, "/?service=fail", websvctest.NewStateSetup{})
		assert.Equal(t, 500, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")

		last := logger.Last()
		assert.Equal(t, logx.LevelToString(logx.LevelError), last["level"])
		assert.Contains(t, last["Error"], "db down")
	})

	t.Run("panic", func(t *testing.T) {
		logger.Reset()
		rec := websvctest.Serve(m, logger, "/?service=crash", websvctest.NewStateSetup{})
		assert.Equal(t, 500, rec.Code)
		assert.Equal(t, `{"message":"Internal server error.","type":"error","http-code":500}`, rec.Body.String())
		assert.Contains(t, logger.Last()["Error"], "nil map")
	})

	t.Run("logger-name", func(t *testing.T) {
		h(httptest.NewRecorder(), websvctest.NewRequest("/?service=say-hello&name=a", websvctest.NewStateSetup{}))
		h(httptest.NewRecorder(), websvctest.NewRequest("/?service=nope", websvctest.NewStateSetup{}))
		assert.Equal(t, []string{"demo.say-hello", "demo"}, finder.names)
	})
}

func TestCreateHandlerFunc_NoLogger(t *testing.T) {
	m := newManager()
	m.Logger = nil

	rec := websvctest.Serve(m, nil, "/?service=say-hello&name=Bob", websvctest.NewStateSetup{})
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, websvc.ContentTypeJson, rec.Header().Get(websvc.HttpHeaderContentType))
}

func TestCreateHandlerFunc_Observers(t *testing.T) {
	m := newManager()

	var mu sync.Mutex
	var got []string
	for i := 0; i < 2; i++ {
		m.AddObserver(websvc.DispatchObserverFunc(func(state *websvc.ApiState) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, state.Name+":"+state.Result.String())
		}))
	}
	m.AddObserver(nil)

	websvctest.Serve(m, nil, "/?service=say-hello&name=a", websvctest.NewStateSetup{})
	websvctest.Serve(m, nil, "/?service=x", websvctest.NewStateSetup{})

	assert.Equal(t, []string{
		"say-hello:dispatched",
		"say-hello:dispatched",
		"x:serviceNotFound",
		"x:serviceNotFound",
	}, got)
}

func TestCreateHandlerFunc_UserHost(t *testing.T) {
	m := newManager()
	m.UserHostResolver = websvc.NewBasicApiUserHostResolver(true)

	var host string
	m.AddObserver(websvc.DispatchObserverFunc(func(state *websvc.ApiState) {
		host = state.UserHost
	}))

	websvctest.Serve(m, nil, "/?service=say-hello&name=a", websvctest.NewStateSetup{
		Header: http.Header{websvc.HttpHeaderForwardedFor: []string{"10.0.0.1, 10.0.0.2"}},
	})
	assert.Equal(t, "10.0.0.1", host)
}
