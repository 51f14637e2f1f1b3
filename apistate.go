package websvc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cmstar/go-logx"
	"github.com/google/uuid"
)

// ApiState 用于记录一个请求的处理流程中的数据。每个请求使用一个新的 ApiState ，不会在请求之间共享。
// 处理过程采用管道模式，每个步骤从 ApiState 获取所需数据，并将处理结果写回 ApiState 。
// 当处理过程结束后，以 Response 开头的字段应被填充。
type ApiState struct {
	// RawRequest 是原始的 HTTP 请求。对应 http.Handler 的参数。
	RawRequest *http.Request

	// RawResponse 用于写入 HTTP 回执。对应 http.Handler 的参数。
	RawResponse http.ResponseWriter

	// Query 是 URL 上的参数。
	Query QueryString

	// Manager 是处理当前请求的 ServicesManager 。
	Manager *ServicesManager

	// StartTime 是开始处理请求的时间。
	StartTime time.Time

	// RequestID 标识一个请求。优先使用请求的 X-Request-ID 头，没有时随机生成。
	RequestID string

	// UserHost 记录发起 HTTP 请求的客户端 IP 地址。
	UserHost string

	// RequestBody 是读取到的请求 body ，仅 POST 、 PUT 、 PATCH 请求有值，长度不超过 10MB 。
	// 可用于校验 body 的签名等。
	RequestBody []byte

	// Name 是请求中给定的服务名称。未能解析到名称时为空字符串。
	Name string

	// Service 是 Name 对应的服务，服务不存在时为 nil 。
	Service Service

	// Filter 是当前请求使用的 ApiFilter ，由 ServicesManager.FilterFactory 创建。
	Filter *ApiFilter

	// Inputs 是参数的过滤结果，参数过滤之前为 NoInputs 。
	Inputs FilteredInputs

	// Missing 记录缺失的必填参数的名称。
	Missing []string

	// Invalid 记录值不合法的参数的名称。
	Invalid []string

	// Result 是请求的处理结果。
	Result DispatchResult

	// Logger 用于接收当前请求的处理流程中需记录的日志。可以为 nil ，表示不记录日志。
	Logger logx.Logger

	// 输出日志时的日志级别。若为 0 ，则使用默认级别（由 ApiLogger 决定）。
	LogLevel logx.Level

	// LogMessage 用于记录各个处理流程中的日志信息，用于在 ApiLogger 中的输出。
	// key-value 对，与 logx.Logger.Log 的 keyValues 参数定义一致。
	LogMessage []any

	// Error 记录处理过程中的错误：请求不合法时为 RequestError ；服务返回的 error ；或处理过程中 panic 的错误。
	// 没有错误时为 nil 。
	Error error

	// ResponseStatus 是返回的 HTTP 状态码，为 0 时使用 200 。
	ResponseStatus int

	// ResponseBody 提供实际返回的 HTTP body 的数据。若为 nil ，则 HTTP 没有 body 。
	ResponseBody io.Reader

	// ResponseContentType 对应为返回的 HTTP 的 Content-Type 头的值。
	ResponseContentType string

	// customData 用于记录没有预定义的数据，即不在其他字段中体现的数据，由各处理过程自行决定。
	customData []struct{ k, v any }
}

// NewState 创建一个新的 ApiState ，每个请求应使用一个新的 ApiState 。
func NewState(w http.ResponseWriter, r *http.Request, manager *ServicesManager) *ApiState {
	s := &ApiState{
		Manager:     manager,
		RawRequest:  r,
		RawResponse: w,
		Inputs:      NoInputs{},
		StartTime:   time.Now(),
	}
	s.Query = ParseQueryString(r.URL.RawQuery)

	s.RequestID = strings.TrimSpace(r.Header.Get(HttpHeaderRequestId))
	if s.RequestID == "" {
		s.RequestID = uuid.NewString()
	}
	return s
}

// Param 获取过滤后的参数值，参数不存在时返回 nil, false 。
func (s *ApiState) Param(name string) (any, bool) {
	if s.Inputs == nil {
		return nil, false
	}
	return s.Inputs.Get(name)
}

// ParamOriginal 获取过滤前的参数值。
func (s *ApiState) ParamOriginal(name string) (any, bool) {
	if s.Inputs == nil {
		return nil, false
	}
	return s.Inputs.GetOriginal(name)
}

// Send 设置响应的内容。多次调用时，最后一次生效。
func (s *ApiState) Send(httpCode int, contentType string, body []byte) {
	s.ResponseStatus = httpCode
	s.ResponseContentType = contentType
	s.ResponseBody = bytes.NewReader(body)
}

// SendJson 将 v 序列化为 JSON 作为响应。 v 不能被序列化时 panic 。
func (s *ApiState) SendJson(httpCode int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		PanicApiError(s, err, "marshal response")
	}
	s.Send(httpCode, ContentTypeJson, b)
}

// SendResponse 以 ResponseMessage 的格式作为响应。 typ 为空时不输出 type 字段， moreInfo 为 nil 时不输出 more-info 字段。
func (s *ApiState) SendResponse(message, typ string, httpCode int, moreInfo any) {
	s.SendJson(httpCode, &ResponseMessage{
		Message:  message,
		Type:     typ,
		HttpCode: httpCode,
		MoreInfo: moreInfo,
	})
}

// SetCustomData 在当前 ApiState 中存储一个自定义的值。
// 原理和 context.WithValue 类似， key 必须是可比较的。
func (s *ApiState) SetCustomData(key, value any) {
	s.customData = append(s.customData, struct{ k, v any }{key, value})
}

// GetCustomData 读取 SetCustomData 方法存放的值。返回一个 bool 值表示 key 是否存在。
// 同一个 key 设置多次时，返回最后设置的值。
func (s *ApiState) GetCustomData(key any) (any, bool) {
	data := s.customData
	for i := len(data) - 1; i >= 0; i-- {
		if data[i].k == key {
			return data[i].v, true
		}
	}
	return nil, false
}
