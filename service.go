package websvc

import (
	"net/http"
	"strings"
)

// 服务名称不合法时使用的名称。
const invalidServiceName = "new-service"

// Service 是一个具名的服务，声明其接受的 HTTP 方法和参数，并处理经过校验的请求。
// 服务通过 ServicesManager.AddService 注册，同一时刻只属于一个 ServicesManager 。
type Service interface {
	// Name 返回服务名称，请求通过此名称调用服务。
	Name() string

	// Description 返回服务的描述。
	Description() string

	// RequestMethods 返回服务接受的 HTTP 方法（大写）。为空时接受任意方法。
	RequestMethods() []string

	// Parameters 返回服务的参数声明。处理请求的过程中，这些声明只被读取。
	Parameters() []*RequestParameter

	// IsAuthRequired 判断调用服务是否需要授权。
	IsAuthRequired() bool

	// IsAuthorized 判断当前请求是否已授权，仅在 IsAuthRequired 为 true 且参数校验通过后调用。
	IsAuthorized(state *ApiState) bool

	// ProcessRequest 处理请求。参数已通过校验，可从 state.Inputs 读取，响应通过 state.Send* 方法设置。
	// 返回的 error 被转换为错误响应，见 ServicesManager 。
	ProcessRequest(state *ApiState) error

	// Manager 返回服务所属的 ServicesManager ，未注册时为 nil 。
	Manager() *ServicesManager

	// SetManager 由 ServicesManager 在注册和移除服务时调用。
	SetManager(m *ServicesManager)
}

// BasicService 是 Service 的标准实现，以链式调用的方式声明服务。
//
//	svc := websvc.NewService("add-two-integers").
//		AddMethods(http.MethodGet, http.MethodPost).
//		Handle(func(state *websvc.ApiState) error { ... })
//	svc.AddParameter(websvc.NewRequestParameter("first-number", websvc.ParamTypeInt, false))
type BasicService struct {
	name         string
	description  string
	methods      []string
	params       []*RequestParameter
	authRequired bool
	authorize    func(state *ApiState) bool
	handler      func(state *ApiState) error
	manager      *ServicesManager
}

var _ Service = (*BasicService)(nil)

// NewService 创建一个 BasicService 。名称需符合 [A-Za-z0-9_-]+ ，否则使用名称 new-service 。
func NewService(name string) *BasicService {
	s := &BasicService{}
	if !s.SetName(name) {
		s.name = invalidServiceName
	}
	return s
}

// Name implements Service.Name.
func (s *BasicService) Name() string {
	return s.name
}

// SetName 设置服务名称，名称不合法时返回 false 。已注册的服务不应修改名称。
func (s *BasicService) SetName(name string) bool {
	name = strings.TrimSpace(name)
	if !paramNamePattern.MatchString(name) {
		return false
	}
	s.name = name
	return true
}

// Description implements Service.Description.
func (s *BasicService) Description() string {
	return s.description
}

// SetDescription 设置服务的描述。
func (s *BasicService) SetDescription(desc string) *BasicService {
	s.description = strings.TrimSpace(desc)
	return s
}

// RequestMethods implements Service.RequestMethods.
func (s *BasicService) RequestMethods() []string {
	return s.methods
}

// AddMethods 添加服务接受的 HTTP 方法，方法名称被转为大写，重复的被忽略。
func (s *BasicService) AddMethods(methods ...string) *BasicService {
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || s.acceptsMethod(m) {
			continue
		}
		s.methods = append(s.methods, m)
	}
	return s
}

func (s *BasicService) acceptsMethod(method string) bool {
	for _, m := range s.methods {
		if m == method {
			return true
		}
	}
	return false
}

// Parameters implements Service.Parameters.
func (s *BasicService) Parameters() []*RequestParameter {
	return s.params
}

// GetParameter 返回给定名称的参数，不存在时返回 nil 。
func (s *BasicService) GetParameter(name string) *RequestParameter {
	for _, p := range s.params {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// AddParameter 添加一个参数。已存在同名参数时返回 false 。
func (s *BasicService) AddParameter(p *RequestParameter) bool {
	if p == nil || s.GetParameter(p.Name()) != nil {
		return false
	}
	s.params = append(s.params, p)
	return true
}

// AddParameterOptions 以 ParamOption* 为 key 的选项批量添加参数，见 NewRequestParameterFromOptions 。
// 选项不合法时返回 error ，此前的参数已被添加；同名参数被忽略。
func (s *BasicService) AddParameterOptions(options ...map[string]any) error {
	for _, opt := range options {
		p, err := NewRequestParameterFromOptions(opt)
		if err != nil {
			return err
		}
		s.AddParameter(p)
	}
	return nil
}

// RemoveParameter 移除给定名称的参数，参数不存在时返回 false 。
func (s *BasicService) RemoveParameter(name string) bool {
	for i, p := range s.params {
		if p.Name() == name {
			s.params = append(s.params[:i], s.params[i+1:]...)
			return true
		}
	}
	return false
}

// IsAuthRequired implements Service.IsAuthRequired.
func (s *BasicService) IsAuthRequired() bool {
	return s.authRequired
}

// IsAuthorized implements Service.IsAuthorized.
// 未通过 RequireAuth 给定授权过程时，总是返回 false 。
func (s *BasicService) IsAuthorized(state *ApiState) bool {
	if s.authorize == nil {
		return false
	}
	return s.authorize(state)
}

// RequireAuth 要求调用服务需要授权， authorize 判断请求是否已授权。
func (s *BasicService) RequireAuth(authorize func(state *ApiState) bool) *BasicService {
	s.authRequired = true
	s.authorize = authorize
	return s
}

// SetAuthRequired 设置调用服务是否需要授权。
func (s *BasicService) SetAuthRequired(required bool) *BasicService {
	s.authRequired = required
	return s
}

// Handle 设置处理请求的过程。
func (s *BasicService) Handle(handler func(state *ApiState) error) *BasicService {
	s.handler = handler
	return s
}

// ProcessRequest implements Service.ProcessRequest.
// 未设置处理过程时，返回 404 的 RequestError 。
func (s *BasicService) ProcessRequest(state *ApiState) error {
	if s.handler == nil {
		return CreateRequestError(state, http.StatusNotFound, nil, MsgServiceNotImplemented)
	}
	return s.handler(state)
}

// Manager implements Service.Manager.
func (s *BasicService) Manager() *ServicesManager {
	return s.manager
}

// SetManager implements Service.SetManager.
func (s *BasicService) SetManager(m *ServicesManager) {
	s.manager = m
}
