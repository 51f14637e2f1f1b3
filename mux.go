package websvc

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

/*
路由参数统一记录在 chi 的路由上下文中。
使用 chi 作为路由时可直接读取；使用 echo 时由 ApiEngine 在处理请求前写入。
*/

// GetRouteParam 从给定的请求中获取指定名称的路由参数。参数不存在时，返回空字符串。
func GetRouteParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	return chi.URLParam(r, name)
}

// SetRouteParams 向当前请求中添加一组路由参数，返回追加参数后的请求。
// 若给定参数表为 nil 或不包含元素，则返回原始请求。参数按名称排序后追加。
func SetRouteParams(r *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return r
	}

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	chiCtx := chi.RouteContext(r.Context())
	if chiCtx == nil {
		chiCtx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, chiCtx))
	}

	for _, name := range names {
		chiCtx.URLParams.Add(name, params[name])
	}
	return r
}
