package websvc

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cmstar/go-errx"
)

// 错误响应的 message 。
const (
	MsgServiceNameMissing     = "Service name is not set."
	MsgServiceNotSupported    = "Service not supported."
	MsgMethodNotAllowed       = "Method Not Allowed."
	MsgContentTypeUnsupported = "Content type not supported."
	MsgMissingParams          = "The following required parameter(s) where missing from the request body: %s."
	MsgInvalidParams          = "The following parameter(s) has invalid values: %s."
	MsgNotAuthorized          = "Not authorized."
	MsgServiceNotImplemented  = "Service not implemented."
	MsgMalformedJsonBody      = "Malformed JSON body."
	MsgMalformedBody          = "Malformed request body."
	MsgInternalError          = "Internal server error."
)

// ServicesManager 管理一组 Service ，并按固定的顺序处理请求：
//
//	Content-Type -> 服务名称 -> 服务是否存在 -> HTTP 方法 -> 缺失的参数 -> 非法的参数 -> 授权 -> 调用服务
//
// 每一步不通过时，以对应的错误响应结束处理。缺失的参数先于非法的参数报告；授权在参数校验通过后才检查，
// 故未授权且参数有误的请求得到的是参数错误。
//
// 服务应在开始处理请求之前注册完毕，处理请求的过程中 ServicesManager 只被读取。
// 请求相关的数据记录在 ApiState 上，每个请求使用独立的 ApiFilter ，故 ServicesManager 可被并发使用。
type ServicesManager struct {
	// Name 是管理器的名称，用于日志名称，见 CreateHandlerFunc 。
	Name string

	// Version 是服务集合的版本号。
	Version string

	// Description 是服务集合的描述。
	Description string

	// FilterFactory 为每个请求创建 ApiFilter ，为 nil 时使用 NewApiFilter 。
	FilterFactory func() *ApiFilter

	// UserHostResolver 用于获取客户端 IP ，为 nil 时不获取。
	UserHostResolver ApiUserHostResolver

	// Logger 在响应写出后生成日志，为 nil 时不记录日志。
	Logger ApiLogger

	services  map[string]Service
	observers []DispatchObserver
}

// NewServicesManager 创建一个 ServicesManager 。
func NewServicesManager(name string) *ServicesManager {
	return &ServicesManager{
		Name:             name,
		Version:          "1.0.0",
		UserHostResolver: NewBasicApiUserHostResolver(false),
		services:         make(map[string]Service),
	}
}

// AddService 注册一个服务，服务名称区分大小写。已存在同名服务时，原服务被替换并与当前管理器解除关联。
// 给定 nil 时返回 false 。
func (m *ServicesManager) AddService(s Service) bool {
	if s == nil {
		return false
	}

	if m.services == nil {
		m.services = make(map[string]Service)
	}

	name := s.Name()
	if old, ok := m.services[name]; ok && old != s {
		old.SetManager(nil)
	}

	m.services[name] = s
	s.SetManager(m)
	return true
}

// RemoveService 移除给定名称的服务，返回被移除的服务；服务不存在时返回 nil 。
func (m *ServicesManager) RemoveService(name string) Service {
	s, ok := m.services[name]
	if !ok {
		return nil
	}

	delete(m.services, name)
	s.SetManager(nil)
	return s
}

// GetService 返回给定名称的服务，服务不存在时返回 nil 。
func (m *ServicesManager) GetService(name string) Service {
	return m.services[name]
}

// Services 按名称排序返回全部服务。
func (m *ServicesManager) Services() []Service {
	res := make([]Service, 0, len(m.services))
	for _, s := range m.services {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})
	return res
}

// AddObserver 添加一个 DispatchObserver ，在每个请求的响应写出后被调用。
func (m *ServicesManager) AddObserver(o DispatchObserver) {
	if o != nil {
		m.observers = append(m.observers, o)
	}
}

func (m *ServicesManager) newFilter() *ApiFilter {
	var f *ApiFilter
	if m.FilterFactory != nil {
		f = m.FilterFactory()
	}
	if f == nil {
		f = NewApiFilter()
	}

	f.ClearParameters()
	f.ClearInputs()
	return f
}

// Process 处理一个请求，将处理结果填入 state.Result ；请求不被接受时，错误记录在 state.Error 上。
// 服务的响应通过 ApiState.Send* 设置；错误响应由 BuildResponse 生成。
func (m *ServicesManager) Process(state *ApiState) {
	state.Filter = m.newFilter()

	src, ok := loadRequestSource(state)
	if !ok {
		return
	}

	state.Name = resolveServiceName(state, src)
	if state.Name == "" {
		m.reject(state, ResultMissingServiceName, http.StatusNotFound, MsgServiceNameMissing)
		return
	}

	svc := m.GetService(state.Name)
	if svc == nil {
		m.reject(state, ResultServiceNotFound, http.StatusNotFound, MsgServiceNotSupported)
		return
	}
	state.Service = svc

	method := strings.ToUpper(state.RawRequest.Method)
	if !isMethodAllowed(svc, method) {
		m.reject(state, ResultMethodNotAllowed, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	filter := state.Filter
	for _, p := range svc.Parameters() {
		if p.IsApplicable(method) {
			filter.AddRequestParameter(p)
		}
	}

	if src.json != nil {
		state.Inputs = filter.FilterJson(src.json)
	} else {
		state.Inputs = filter.FilterForm(src.form)
	}

	state.Missing, state.Invalid = classifyInputs(filter.Parameters(), state.Inputs)
	if len(state.Missing) > 0 {
		m.reject(state, ResultMissingRequiredParams, http.StatusNotFound,
			fmt.Sprintf(MsgMissingParams, quoteNames(state.Missing)))
		return
	}
	if len(state.Invalid) > 0 {
		m.reject(state, ResultInvalidParamValues, http.StatusNotFound,
			fmt.Sprintf(MsgInvalidParams, quoteNames(state.Invalid)))
		return
	}

	if svc.IsAuthRequired() && !svc.IsAuthorized(state) {
		m.reject(state, ResultUnauthorized, http.StatusUnauthorized, MsgNotAuthorized)
		return
	}

	state.Result = ResultDispatched
	if err := svc.ProcessRequest(state); err != nil {
		state.Error = err
	}
}

func (m *ServicesManager) reject(state *ApiState, result DispatchResult, httpCode int, message string) {
	state.Result = result
	state.Error = CreateRequestError(state, httpCode, nil, message)
}

func isMethodAllowed(svc Service, method string) bool {
	methods := svc.RequestMethods()
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// classifyInputs 按参数的声明顺序，找出缺失的和值非法的参数。
// 过滤结果中不存在的参数是缺失的必填参数，值为 Invalid 的是非法参数。
func classifyInputs(params []*RequestParameter, inputs FilteredInputs) (missing, invalid []string) {
	for _, p := range params {
		name := p.Name()
		v, ok := inputs.Get(name)
		if !ok {
			if !p.IsOptional() {
				missing = append(missing, name)
			}
			continue
		}

		if IsInvalid(v) {
			invalid = append(invalid, name)
		}
	}
	return
}

// quoteNames 返回形如 'a', 'b' 的名称列表。
func quoteNames(names []string) string {
	b := new(strings.Builder)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(name)
		b.WriteByte('\'')
	}
	return b.String()
}

// BuildResponse 在 state.Error 不为 nil 时，将其转换为错误响应：
//   - RequestError 使用其 message 、 HTTP 状态码和 more-info ；
//   - errx.BizError 使用其 message ，若其 code 是有效的 HTTP 状态码，作为响应的状态码，否则使用 400 ；
//   - 其余错误，包括 panic ，均返回 500 ，不暴露错误的细节。
//
// state.Error 为 nil 时，保留服务设置的响应。
func BuildResponse(state *ApiState) {
	err := state.Error
	if err == nil {
		return
	}

	var reqErr RequestError
	if errors.As(err, &reqErr) {
		state.SendJson(reqErr.HttpCode, ErrorMessage(reqErr.HttpCode, reqErr.Message, reqErr.MoreInfo))
		return
	}

	var bizErr errx.BizError
	if errors.As(err, &bizErr) {
		code := bizErr.Code()
		if !isHttpStatus(code) {
			code = http.StatusBadRequest
		}
		state.SendJson(code, ErrorMessage(code, bizErr.Message(), nil))
		return
	}

	state.Send(http.StatusInternalServerError, ContentTypeJson, internalErrorBody)
}

// 500 的响应是固定的，预先序列化，保证在任何情况下都能输出。
var internalErrorBody = []byte(`{"message":"` + MsgInternalError + `","type":"error","http-code":500}`)
