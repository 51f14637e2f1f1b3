package websvc

// DispatchResult 是一次请求的处理结果的分类，每个请求有且只有一个结果。
type DispatchResult int

const (
	// ResultNone 表示请求尚未被处理。
	ResultNone DispatchResult = iota
	ResultContentTypeUnsupported
	ResultMalformedBody
	ResultMissingServiceName
	ResultServiceNotFound
	ResultMethodNotAllowed
	ResultMissingRequiredParams
	ResultInvalidParamValues
	ResultUnauthorized
	ResultDispatched
)

var dispatchResultNames = [...]string{
	ResultNone:                   "none",
	ResultContentTypeUnsupported: "contentTypeUnsupported",
	ResultMalformedBody:          "malformedBody",
	ResultMissingServiceName:     "missingServiceName",
	ResultServiceNotFound:        "serviceNotFound",
	ResultMethodNotAllowed:       "methodNotAllowed",
	ResultMissingRequiredParams:  "missingRequiredParams",
	ResultInvalidParamValues:     "invalidParamValues",
	ResultUnauthorized:           "unauthorized",
	ResultDispatched:             "dispatched",
}

// String 实现 fmt.Stringer 。
func (r DispatchResult) String() string {
	if r < 0 || int(r) >= len(dispatchResultNames) {
		return "unknown"
	}
	return dispatchResultNames[r]
}

// DispatchObserver 在每个请求的响应写出后被调用，可用于统计。
// 同一个 DispatchObserver 会被并发调用。
type DispatchObserver interface {
	// Observe 接收处理完毕的请求。 state.Result 记录了处理结果。
	Observe(state *ApiState)
}

// DispatchObserverFunc 将函数包装为 DispatchObserver 。
type DispatchObserverFunc func(state *ApiState)

// Observe implements DispatchObserver.Observe.
func (f DispatchObserverFunc) Observe(state *ApiState) {
	f(state)
}
