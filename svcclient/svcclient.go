// svcclient 包提供调用 websvc 服务的客户端。
package svcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-logx"
	"github.com/cmstar/go-websvc"
	"github.com/hashicorp/go-retryablehttp"
)

// 默认的重试设置。
const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 100 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
)

// Invoker 用于调用一个 websvc 服务。请求总是以 application/json 方式发送，服务名称放在 service 字段上。
//
// 连接错误和 5xx 的响应（ 501 除外）会被重试；其余响应直接返回。
type Invoker struct {
	// Uri 是目标 URL 。
	Uri string

	// 若不为 nil ，则在发送请求之前，调用此函数对请求进行处理，如追加签名。
	// 请求的 body 可被读取，但读取后需重新赋值为可读的 body ，参考 signauth.AppendSign 。
	RequestSetup func(r *http.Request) error

	client *retryablehttp.Client
}

// NewInvoker 创建一个 Invoker 。 logger 接收重试过程的日志，可以为 nil 。
func NewInvoker(uri string, logger logx.Logger) *Invoker {
	if uri == "" {
		panic("uri must be provided")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = DefaultRetryMax
	client.RetryWaitMin = DefaultRetryWaitMin
	client.RetryWaitMax = DefaultRetryWaitMax
	client.CheckRetry = checkRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	if logger != nil {
		client.Logger = leveledLogger{logger}
	} else {
		client.Logger = nil
	}

	return &Invoker{
		Uri:    uri,
		client: client,
	}
}

// Client 返回内部使用的 retryablehttp.Client ，可用于调整重试的设置。
func (x *Invoker) Client() *retryablehttp.Client {
	return x.client
}

// 仅重试连接错误和服务端的 5xx 错误， 501 表示不支持，重试没有意义。
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}
	return false, nil
}

// Call 调用给定名称的服务， params 是服务的参数，需能够被 JSON 序列化。
//
// 服务返回错误格式的响应时（见 websvc.ResponseMessage ，且 type 为 error ），返回 *ServiceError ；
// 请求未能完成时，返回描述原因的 error 。
func (x *Invoker) Call(ctx context.Context, service string, params map[string]any) (*Result, error) {
	body, err := buildBody(service, params)
	if err != nil {
		return nil, errx.Wrap("marshal params", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, x.Uri, bytes.NewReader(body))
	if err != nil {
		return nil, errx.Wrap(fmt.Sprintf("request %q", x.Uri), err)
	}
	r.Header.Set(websvc.HttpHeaderContentType, websvc.ContentTypeJson)

	if x.RequestSetup != nil {
		if err := x.RequestSetup(r); err != nil {
			return nil, errx.Wrap("setup request", err)
		}
	}

	req, err := retryablehttp.FromRequest(r)
	if err != nil {
		return nil, errx.Wrap(fmt.Sprintf("request %q", x.Uri), err)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, errx.Wrap(fmt.Sprintf("request %q", x.Uri), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.Wrap(fmt.Sprintf("read response of %q", x.Uri), err)
	}

	res := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get(websvc.HttpHeaderContentType),
		Body:        data,
	}

	if e := res.asServiceError(); e != nil {
		return res, e
	}
	return res, nil
}

// buildBody 生成请求的 JSON ， service 字段在最前，其余参数按名称排序。
func buildBody(service string, params map[string]any) ([]byte, error) {
	doc := websvc.NewJsonObject()
	doc.Set("service", service)

	names := make([]string, 0, len(params))
	for k := range params {
		if k != "service" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	for _, k := range names {
		doc.Set(k, params[k])
	}
	return json.Marshal(doc)
}

// Result 是服务的响应。
type Result struct {
	StatusCode  int    // HTTP 状态码。
	ContentType string // 响应的 Content-Type 。
	Body        []byte // 响应的 body 。
}

// Decode 将 JSON 格式的 body 反序列化到 v 。
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Message 将 body 作为 websvc.ResponseMessage 解析。
func (r *Result) Message() (*websvc.ResponseMessage, error) {
	var msg websvc.ResponseMessage
	if err := r.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *Result) asServiceError() *ServiceError {
	if r.StatusCode < http.StatusBadRequest {
		return nil
	}

	e := &ServiceError{HttpCode: r.StatusCode}
	if strings.HasPrefix(strings.ToLower(r.ContentType), websvc.ContentTypeJson) {
		if msg, err := r.Message(); err == nil && msg.Type == websvc.ResponseTypeError {
			e.Message = msg.Message
			e.MoreInfo = msg.MoreInfo
			if msg.HttpCode != 0 {
				e.HttpCode = msg.HttpCode
			}
			return e
		}
	}

	e.Message = http.StatusText(r.StatusCode)
	return e
}

// ServiceError 表示服务返回的错误响应。
type ServiceError struct {
	HttpCode int    // 响应中的 http-code 。
	Message  string // 响应中的 message 。
	MoreInfo any    // 响应中的 more-info ，没有时为 nil 。
}

var _ error = (*ServiceError)(nil)

// Error implements error.Error.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error (%d): %s", e.HttpCode, e.Message)
}

// leveledLogger 将 retryablehttp 的日志输出到 logx.Logger 。
type leveledLogger struct {
	logger logx.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Log(logx.LevelError, msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Log(logx.LevelInfo, msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Log(logx.LevelDebug, msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Log(logx.LevelWarn, msg, keysAndValues...)
}
