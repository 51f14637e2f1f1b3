package websvc

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

// requestSource 是一个请求中参数的来源，二者有且只有一个不为 nil 。
type requestSource struct {
	form map[string]any
	json *JsonObject
}

// 请求 body 中的参数。
func hasBodyParams(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// 需要检查 Content-Type 的方法。
func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// loadRequestSource 按请求的方法和 Content-Type 读取参数：
//   - GET 、 DELETE 等读取 query-string ；
//   - POST 、 PUT 、 PATCH 读取 body ， JSON 格式的 body 被解析为 JsonObject ，其余作为表单。
//
// 读取失败时，填写 state.Error 和 state.Result ，返回 false 。
func loadRequestSource(state *ApiState) (requestSource, bool) {
	r := state.RawRequest
	method := strings.ToUpper(r.Method)
	contentType := r.Header.Get(HttpHeaderContentType)

	if requiresContentType(method) && !IsSupportedContentType(contentType) {
		state.Result = ResultContentTypeUnsupported
		state.Error = CreateRequestError(state, http.StatusUnsupportedMediaType,
			map[string]any{"request-content-type": contentType},
			MsgContentTypeUnsupported)
		return requestSource{}, false
	}

	if !hasBodyParams(method) {
		return requestSource{form: state.Query.Map()}, true
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			state.Result = ResultMalformedBody
			state.Error = malformedBodyError(state, err, MsgMalformedBody)
			return requestSource{}, false
		}
	}
	state.RequestBody = body

	if isMultipartContentType(contentType) {
		// body 已被读出，替换为可重读的副本再交给 ParseMultipartForm 。
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			state.Result = ResultMalformedBody
			state.Error = malformedBodyError(state, err, MsgMalformedBody)
			return requestSource{}, false
		}
		return requestSource{form: multipartValues(r)}, true
	}

	if isJsonContentType(contentType) {
		doc, err := state.Filter.ReadJsonBody(bytes.NewReader(body))
		if err != nil {
			state.Result = ResultMalformedBody
			state.Error = malformedBodyError(state, err, MsgMalformedJsonBody)
			return requestSource{}, false
		}
		return requestSource{json: doc}, true
	}

	return requestSource{form: ParseQueryString(string(body)).Map()}, true
}

func malformedBodyError(state *ApiState, cause error, message string) RequestError {
	e := CreateRequestError(state, http.StatusBadRequest, nil, message)
	e.Err = cause
	return e
}

// multipartValues 返回 multipart 中的非文件部分，同名的值取最后一个。
func multipartValues(r *http.Request) map[string]any {
	res := make(map[string]any)
	if r.MultipartForm == nil {
		return res
	}

	for k, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			res[k] = values[len(values)-1]
		}
	}
	return res
}

// 请求中用于指定服务名称的参数，按顺序检查，第一个存在的生效。
var serviceNameKeys = []string{"action", "service", "service-name"}

// RouteParamService 是用于指定服务名称的路由参数，如 /api/{service} 。
// 仅在请求参数中没有服务名称时使用。
const RouteParamService = "service"

// resolveServiceName 从请求参数中获取服务名称：
// JSON body 取根节点上的字段；表单和 query-string 取同名参数；都没有时使用路由参数。
func resolveServiceName(state *ApiState, src requestSource) string {
	for _, key := range serviceNameKeys {
		var raw any
		var ok bool
		if src.json != nil {
			raw, ok = src.json.Get(key)
		} else {
			raw, ok = src.form[key]
		}
		if !ok {
			continue
		}

		name, _ := raw.(string)
		if src.json == nil {
			name = urlDecode(name)
		}

		name = strings.TrimSpace(name)
		if name != "" {
			return name
		}
	}

	return strings.TrimSpace(GetRouteParam(state.RawRequest, RouteParamService))
}
