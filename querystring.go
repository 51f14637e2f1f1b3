package websvc

import (
	"net/url"
	"strings"
)

// QueryString 记录 query-string 或 application/x-www-form-urlencoded 格式的 body 中的参数。
//
// 与 url.ParseQuery 不同：
//   - 参数值保持 URL 编码的原文，解码由 ApiFilter 完成；
//   - 同名参数出现多次时，最后一个值生效；
//   - 记录参数出现的顺序；
//   - 不含等号的参数，如“?a&b=1”中的“a”，视为值为空字符串的参数。
//
// 参数名称区分大小写。
type QueryString struct {
	names  []string
	values map[string]string
}

// ParseQueryString 解析 query-string ，给定的值可以以“?”开头。
// 参数名称被 URL 解码，无法解码的参数被忽略。
func ParseQueryString(queryString string) QueryString {
	qs := QueryString{values: make(map[string]string)}
	queryString = strings.TrimPrefix(queryString, "?")

	for _, param := range strings.Split(queryString, "&") {
		if param == "" {
			continue
		}

		rawName, rawValue, _ := strings.Cut(param, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil || name == "" {
			continue
		}

		if _, ok := qs.values[name]; !ok {
			qs.names = append(qs.names, name)
		}
		qs.values[name] = rawValue
	}
	return qs
}

// Get 获取参数的原始值（未 URL 解码）。返回一个 bool 表示参数是否存在。
func (qs QueryString) Get(name string) (string, bool) {
	v, ok := qs.values[name]
	return v, ok
}

// GetDecoded 获取参数 URL 解码后的值，无法解码时返回原始值。
func (qs QueryString) GetDecoded(name string) (string, bool) {
	v, ok := qs.values[name]
	if !ok {
		return "", false
	}
	return urlDecode(v), true
}

// Names 按出现的顺序返回参数名称。
func (qs QueryString) Names() []string {
	res := make([]string, len(qs.names))
	copy(res, qs.names)
	return res
}

// Len 返回参数的数量。
func (qs QueryString) Len() int {
	return len(qs.names)
}

// Map 返回全部参数，可直接用于 ApiFilter.FilterForm 。
func (qs QueryString) Map() map[string]any {
	res := make(map[string]any, len(qs.values))
	for k, v := range qs.values {
		res[k] = v
	}
	return res
}
