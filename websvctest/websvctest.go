// websvctest 包提供用于测试 websvc 包及基于其开发的服务的辅助方法。
package websvctest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/cmstar/go-logx"
	"github.com/cmstar/go-websvc"
)

// NewStateSetup 用于设置用于测试 HTTP 请求。
type NewStateSetup struct {
	HttpMethod  string            // HTTP 请求的方法， GET/POST/PUT/DELETE 。若未给定值，默认为 GET 。
	ContentType string            // 指定 HTTP Content-Type 头，若未给定值，则不会添加此字段。
	Header      http.Header       // 其他 HTTP 头。
	BodyString  string            // 指定请求的 body ，优先级高于 BodyReader 。给定值时 BodyReader 被忽略。
	BodyReader  io.Reader         // 指定请求的 body ，仅在 BodyString 为空时生效。
	RouteParams map[string]string // 指定路由参数。若为 nil 或为空集则不会初始化路由参数。
}

// NewRequest 基于 httptest 包创建用于测试的 HTTP 请求。
func NewRequest(url string, setup NewStateSetup) *http.Request {
	httpMethod := setup.HttpMethod
	if httpMethod == "" {
		httpMethod = http.MethodGet
	}

	var body io.Reader
	if setup.BodyString != "" {
		body = strings.NewReader(setup.BodyString)
	} else if setup.BodyReader != nil {
		body = setup.BodyReader
	}

	req := httptest.NewRequest(httpMethod, url, body)

	if setup.ContentType != "" {
		req.Header.Set(websvc.HttpHeaderContentType, setup.ContentType)
	}

	for k, values := range setup.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	return websvc.SetRouteParams(req, setup.RouteParams)
}

// NewStateForTest 创建用于测试的 ApiState 。 manager 可以为 nil 。
func NewStateForTest(manager *websvc.ServicesManager, url string, setup NewStateSetup) (*websvc.ApiState, *httptest.ResponseRecorder) {
	req := NewRequest(url, setup)
	rec := httptest.NewRecorder()
	state := websvc.NewState(rec, req, manager)
	return state, rec
}

// Serve 使用给定的 ServicesManager 处理一个请求，返回响应。
// logger 可以为 nil ；不为 nil 时，所有日志都由其接收。
func Serve(manager *websvc.ServicesManager, logger logx.Logger, url string, setup NewStateSetup) *httptest.ResponseRecorder {
	var logFinder logx.LogFinder
	if logger != nil {
		logFinder = logx.NewSingleLoggerLogFinder(logger)
	}

	rec := httptest.NewRecorder()
	handler := websvc.CreateHandlerFunc(manager, logFinder)
	handler(rec, NewRequest(url, setup))
	return rec
}
