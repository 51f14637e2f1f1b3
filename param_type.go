package websvc

import "strings"

// ParamType 表示请求参数的数据类型。取值是一个封闭的集合，见 ParamType* 常量。
type ParamType string

const (
	ParamTypeString     ParamType = "string"      // 字符串，默认类型。
	ParamTypeInt        ParamType = "integer"     // 整数，过滤后为 int64 。
	ParamTypeDouble     ParamType = "double"      // 浮点数，过滤后为 float64 。
	ParamTypeBool       ParamType = "boolean"     // 布尔值，过滤后为 bool 。
	ParamTypeArray      ParamType = "array"       // 数组，如 [1,"a",true] ，过滤后为 []any 。
	ParamTypeEmail      ParamType = "email"       // 邮箱地址。
	ParamTypeUrl        ParamType = "url"         // URL 。
	ParamTypeJsonObject ParamType = "json-object" // JSON 对象，仅在 JSON 请求中有效，过滤后为 *JsonObject 。
)

// 除标准名称外， ParseParamType 接受的别名。
var paramTypeAliases = map[string]ParamType{
	"int":      ParamTypeInt,
	"float":    ParamTypeDouble,
	"bool":     ParamTypeBool,
	"json-obj": ParamTypeJsonObject,
}

// ParseParamType 以大小写不敏感的方式解析参数类型的名称。
// 无法识别的名称返回 ParamTypeString 和 false 。
func ParseParamType(s string) (ParamType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))

	t := ParamType(s)
	if t.IsValid() {
		return t, true
	}

	if t, ok := paramTypeAliases[s]; ok {
		return t, true
	}
	return ParamTypeString, false
}

// IsValid 判断是否是受支持的类型。
func (t ParamType) IsValid() bool {
	switch t {
	case ParamTypeString, ParamTypeInt, ParamTypeDouble, ParamTypeBool,
		ParamTypeArray, ParamTypeEmail, ParamTypeUrl, ParamTypeJsonObject:
		return true
	}
	return false
}

// IsNumeric 判断是否是数值类型（ integer 或 double ），只有数值类型可设置 min/max 。
func (t ParamType) IsNumeric() bool {
	return t == ParamTypeInt || t == ParamTypeDouble
}

// IsStringLike 判断是否是字符串类的类型（ string 、 email 、 url ），只有这些类型可设置长度限制。
func (t ParamType) IsStringLike() bool {
	return t == ParamTypeString || t == ParamTypeEmail || t == ParamTypeUrl
}

// 批量声明参数时（见 NewRequestParameterFromOptions ）使用的 key 。
const (
	ParamOptionName         = "name"
	ParamOptionType         = "type"
	ParamOptionOptional     = "optional"
	ParamOptionDefault      = "default"
	ParamOptionMin          = "min"
	ParamOptionMax          = "max"
	ParamOptionMinLength    = "min-length"
	ParamOptionMaxLength    = "max-length"
	ParamOptionAllowEmpty   = "allow-empty"
	ParamOptionCustomFilter = "custom-filter"
	ParamOptionDescription  = "description"
	ParamOptionMethods      = "methods"
)
