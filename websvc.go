// websvc 包提供一个 Web 服务框架：按服务声明的参数过滤并校验请求，将请求分派到具名的服务，并以 JSON 返回结果。
//
// 主要类型：
//   - RequestParameter 声明一个参数的类型和取值限制；
//   - ApiFilter 按一组 RequestParameter 过滤请求中的参数；
//   - Service 是具名的服务， BasicService 是其标准实现；
//   - ServicesManager 管理一组服务，并按固定的顺序处理请求；
//   - ApiEngine 是基于 echo 的 HTTP 服务器。
package websvc

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-logx"
)

// CreateHandlerFunc 返回一个基于给定的 ServicesManager 处理请求的 http.HandlerFunc 。
//
// 每个请求有且只有一个响应。处理过程中的 panic 被捕获并记录到 ApiState.Error ，返回 500 。
// 响应写出后，通过 ServicesManager.Logger 记录日志，并依次调用每个 DispatchObserver 。
//
// logFinder 用于获取 Logger ，该 Logger 会赋值给 ApiState.Logger 。可为 nil 表示不记录日志。
// 日志名称格式为“{ServicesManager.Name}.{Service.Name()}”；如果未能检索到对应的服务，则日志名称为 ServicesManager.Name 。
func CreateHandlerFunc(manager *ServicesManager, logFinder logx.LogFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := NewState(w, r, manager)

		if manager.UserHostResolver != nil {
			manager.UserHostResolver.FillUserHost(state)
		}

		// 把比较可能 panic 的步骤抽出来，添加一个 defer 捕获错误并填到 state.Error 上，使 panic 后仍
		// 可以预定义的报文返回结果。
		handleRequest(state, manager)

		if !handleResponse(state) {
			// 错误响应也没能生成，直接使用固定的 500 响应。 state.Error 被保留下来，能够体现哪里出错。
			state.Send(http.StatusInternalServerError, ContentTypeJson, internalErrorBody)
		}

		if logFinder != nil {
			state.Logger = logFinder.Find(loggerName(state))
		}

		writeResponse(w, state)

		if manager.Logger != nil {
			manager.Logger.Log(state)
		}

		for _, o := range manager.observers {
			o.Observe(state)
		}
	}
}

func loggerName(state *ApiState) string {
	name := state.Manager.Name
	if state.Service != nil {
		name += "." + state.Service.Name()
	}
	return name
}

func handleRequest(state *ApiState, manager *ServicesManager) {
	defer handlePanic(state)
	manager.Process(state)
}

func handleResponse(state *ApiState) bool {
	defer handlePanic(state)
	BuildResponse(state)
	return true
}

func handlePanic(state *ApiState) {
	r := recover()
	if r == nil {
		return
	}

	// 尽量保留方法调用栈信息，如果没有，就放一个上去。
	switch v := r.(type) {
	case ApiError:
		state.Error = v
	case errx.StackfulError:
		state.Error = v
	case error:
		state.Error = errx.Wrap(state.Name, v)
	case string:
		state.Error = errx.Wrap(state.Name, errors.New(v))
	default:
		// panic 的不是 error 和字符串也应该是个能转成字符串的东西。
		state.Error = errx.Wrap(state.Name, fmt.Errorf("%v", v))
	}
}

func writeResponse(w http.ResponseWriter, state *ApiState) {
	if state.ResponseContentType != "" {
		w.Header().Set(HttpHeaderContentType, state.ResponseContentType)
	}

	status := state.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if state.ResponseBody == nil {
		return
	}

	// 连接已断开等情况，响应已无法送达，记下来供日志输出。
	if _, err := io.Copy(w, state.ResponseBody); err != nil && state.Error == nil {
		state.Error = CreateApiError(state, err, "write response body")
	}
}
