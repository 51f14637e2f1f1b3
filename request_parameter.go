package websvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/cmstar/go-conv"
)

// 参数名称不合法时使用的名称。
const invalidParamName = "a-parameter"

var paramNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CustomFilter 定义参数的自定义过滤过程。
type CustomFilter interface {
	// Filter 过滤一个参数的值。
	//   - original 是请求中的原始值（已 URL 解码）。
	//   - basicResult 是基础过滤的结果；若参数设置为不执行基础过滤，则为 NotApplicable 。
	//   - p 是参数的声明。
	//
	// 返回过滤后的值和 ok=true ；返回 ok=false 或 nil 表示值非法。
	// 除 boolean 类型的参数外，返回 false 也被视为非法。
	Filter(original, basicResult any, p *RequestParameter) (v any, ok bool)
}

// CustomFilterFunc 将函数包装为 CustomFilter 。
type CustomFilterFunc func(original, basicResult any, p *RequestParameter) (any, bool)

var _ CustomFilter = (CustomFilterFunc)(nil)

// Filter implements CustomFilter.Filter.
func (f CustomFilterFunc) Filter(original, basicResult any, p *RequestParameter) (any, bool) {
	return f(original, basicResult, p)
}

// RequestParameter 描述一个服务的请求参数：名称、类型、是否可选、默认值、取值范围等。
// 参数声明在注册服务时完成，处理请求的过程中只会被读取，不会被修改。
//
// 各 Set* 方法在值不被接受时返回 false ，并保持原值不变。
type RequestParameter struct {
	name        string
	typ         ParamType
	optional    bool
	description string

	def        any
	hasDefault bool

	minValue, maxValue float64
	hasMin, hasMax     bool

	minLength, maxLength       int
	hasMinLength, hasMaxLength bool

	allowEmpty bool

	customFilter     CustomFilter
	applyBasicFilter bool

	methods []string
}

// NewRequestParameter 创建一个 RequestParameter 。
// 若 name 不符合 [A-Za-z0-9_-]+ ，使用名称 a-parameter ；若 typ 不受支持，使用 ParamTypeString 。
func NewRequestParameter(name string, typ ParamType, optional bool) *RequestParameter {
	p := &RequestParameter{}
	if !p.SetName(name) {
		p.name = invalidParamName
	}
	if !p.SetType(typ) {
		p.SetType(ParamTypeString)
	}
	p.optional = optional
	return p
}

// NewRequestParameterFromOptions 使用一组 ParamOption* 为 key 的选项创建 RequestParameter 。
// 必须给定 name ；其余选项可选，不被 Set* 方法接受的值会被忽略。
func NewRequestParameterFromOptions(options map[string]any) (*RequestParameter, error) {
	name, _ := options[ParamOptionName].(string)
	if name == "" {
		return nil, errors.New("missing parameter name")
	}

	typ := ParamTypeString
	if v, ok := options[ParamOptionType]; ok {
		switch t := v.(type) {
		case ParamType:
			typ = t
		case string:
			typ, _ = ParseParamType(t)
		default:
			return nil, fmt.Errorf("parameter '%s': type must be a string, got %T", name, v)
		}
	}

	optional, _ := options[ParamOptionOptional].(bool)
	p := NewRequestParameter(name, typ, optional)

	// 先设置 min 再设置 max ， max 依赖 min 。
	if v, ok := options[ParamOptionMin]; ok {
		if f, ok := toFloat64(v); ok {
			p.SetMinValue(f)
		}
	}
	if v, ok := options[ParamOptionMax]; ok {
		if f, ok := toFloat64(v); ok {
			p.SetMaxValue(f)
		}
	}
	if v, ok := options[ParamOptionMinLength]; ok {
		if f, ok := toFloat64(v); ok {
			p.SetMinLength(int(f))
		}
	}
	if v, ok := options[ParamOptionMaxLength]; ok {
		if f, ok := toFloat64(v); ok {
			p.SetMaxLength(int(f))
		}
	}
	if v, ok := options[ParamOptionAllowEmpty].(bool); ok {
		p.SetAllowEmptyString(v)
	}
	if v, ok := options[ParamOptionDefault]; ok {
		p.SetDefault(v)
	}
	if v, ok := options[ParamOptionDescription].(string); ok {
		p.SetDescription(v)
	}

	switch f := options[ParamOptionCustomFilter].(type) {
	case nil:
	case CustomFilter:
		p.SetCustomFilter(f, true)
	case func(original, basicResult any, p *RequestParameter) (any, bool):
		p.SetCustomFilter(CustomFilterFunc(f), true)
	default:
		return nil, fmt.Errorf("parameter '%s': unsupported custom filter %T", name, f)
	}

	switch m := options[ParamOptionMethods].(type) {
	case nil:
	case string:
		p.SetMethods(strings.Split(m, ",")...)
	case []string:
		p.SetMethods(m...)
	case []any:
		for _, v := range m {
			if s, ok := v.(string); ok {
				p.AddMethod(s)
			}
		}
	default:
		return nil, fmt.Errorf("parameter '%s': unsupported methods %T", name, m)
	}

	return p, nil
}

// Name 返回参数名称。
func (p *RequestParameter) Name() string {
	return p.name
}

// SetName 设置参数名称，名称需符合 [A-Za-z0-9_-]+ ，首尾空白被忽略。
func (p *RequestParameter) SetName(name string) bool {
	name = strings.TrimSpace(name)
	if !paramNamePattern.MatchString(name) {
		return false
	}
	p.name = name
	return true
}

// Type 返回参数类型。
func (p *RequestParameter) Type() ParamType {
	return p.typ
}

// SetType 设置参数类型。类型改变时，不再适用的限制被清除：
//   - integer 的 min/max 初始化为 int64 的取值范围；
//   - double 的 min/max 初始化为 float64 的取值范围；
//   - 非字符串类的类型清除长度限制和 allow-empty 。
//
// 若已有的默认值与新类型不匹配，默认值被清除。
func (p *RequestParameter) SetType(typ ParamType) bool {
	if !typ.IsValid() {
		return false
	}
	p.typ = typ

	switch typ {
	case ParamTypeInt:
		p.minValue, p.hasMin = math.MinInt64, true
		p.maxValue, p.hasMax = math.MaxInt64, true
	case ParamTypeDouble:
		p.minValue, p.hasMin = -math.MaxFloat64, true
		p.maxValue, p.hasMax = math.MaxFloat64, true
	default:
		p.minValue, p.hasMin = 0, false
		p.maxValue, p.hasMax = 0, false
	}

	if !typ.IsStringLike() {
		p.minLength, p.hasMinLength = 0, false
		p.maxLength, p.hasMaxLength = 0, false
	}

	if typ != ParamTypeString {
		p.allowEmpty = false
	}

	if p.hasDefault {
		if _, ok := p.fitDefault(p.def); !ok {
			p.def, p.hasDefault = nil, false
		}
	}
	return true
}

// IsOptional 判断参数是否是可选的。
func (p *RequestParameter) IsOptional() bool {
	return p.optional
}

// SetOptional 设置参数是否是可选的。
func (p *RequestParameter) SetOptional(optional bool) {
	p.optional = optional
}

// Default 返回默认值，第二个返回值表示是否设置了默认值。
func (p *RequestParameter) Default() (any, bool) {
	return p.def, p.hasDefault
}

// SetDefault 设置默认值，值的类型需与参数类型匹配：
//   - integer 接受任意整数类型，存储为 int64 ；
//   - double 接受整数和浮点数，存储为 float64 ；
//   - string/email/url 接受 string ；
//   - boolean 接受 bool ；
//   - array 接受任意 slice ；
//   - json-object 接受 *JsonObject 。
//
// 给定 nil 时清除默认值。
func (p *RequestParameter) SetDefault(v any) bool {
	if v == nil {
		p.def, p.hasDefault = nil, false
		return true
	}

	fixed, ok := p.fitDefault(v)
	if !ok {
		return false
	}
	p.def, p.hasDefault = fixed, true
	return true
}

func (p *RequestParameter) fitDefault(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch p.typ {
	case ParamTypeInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := rv.Uint()
			if u > math.MaxInt64 {
				return nil, false
			}
			return int64(u), true
		case reflect.Float32, reflect.Float64:
			// 从 JSON 或 YAML 解码得到的数值是 float64 ，没有小数部分的可作为整数。
			f := rv.Float()
			if f != math.Trunc(f) || f < -twoToThe63 || f >= twoToThe63 {
				return nil, false
			}
			return int64(f), true
		}
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		}

	case ParamTypeDouble:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		}

	case ParamTypeString, ParamTypeEmail, ParamTypeUrl:
		if s, ok := v.(string); ok {
			return s, true
		}

	case ParamTypeBool:
		if b, ok := v.(bool); ok {
			return b, true
		}

	case ParamTypeArray:
		if rv.Kind() == reflect.Slice {
			return v, true
		}

	case ParamTypeJsonObject:
		if o, ok := v.(*JsonObject); ok && o != nil {
			return o, true
		}
	}
	return nil, false
}

// MinValue 返回数值的最小值，仅数值类型有效。
func (p *RequestParameter) MinValue() (float64, bool) {
	return p.minValue, p.hasMin
}

// SetMinValue 设置数值的最小值。仅数值类型可设置，且需小于已有的最大值。
func (p *RequestParameter) SetMinValue(v float64) bool {
	if !p.typ.IsNumeric() || math.IsNaN(v) {
		return false
	}
	if p.hasMax && v >= p.maxValue {
		return false
	}
	p.minValue, p.hasMin = v, true
	return true
}

// MaxValue 返回数值的最大值，仅数值类型有效。
func (p *RequestParameter) MaxValue() (float64, bool) {
	return p.maxValue, p.hasMax
}

// SetMaxValue 设置数值的最大值。仅数值类型可设置，要求已有最小值，且需大于最小值。
func (p *RequestParameter) SetMaxValue(v float64) bool {
	if !p.typ.IsNumeric() || math.IsNaN(v) {
		return false
	}
	if !p.hasMin || v <= p.minValue {
		return false
	}
	p.maxValue, p.hasMax = v, true
	return true
}

// MinLength 返回字符串的最小长度（按字符计），仅字符串类的类型有效。
func (p *RequestParameter) MinLength() (int, bool) {
	return p.minLength, p.hasMinLength
}

// SetMinLength 设置字符串的最小长度。仅字符串类的类型可设置，值不能为负数，且不能大于已有的最大长度。
func (p *RequestParameter) SetMinLength(v int) bool {
	if !p.typ.IsStringLike() || v < 0 {
		return false
	}
	if p.hasMaxLength && v > p.maxLength {
		return false
	}
	p.minLength, p.hasMinLength = v, true
	return true
}

// MaxLength 返回字符串的最大长度（按字符计），仅字符串类的类型有效。
func (p *RequestParameter) MaxLength() (int, bool) {
	return p.maxLength, p.hasMaxLength
}

// SetMaxLength 设置字符串的最大长度。仅字符串类的类型可设置，值不能小于 1 ，且不能小于已有的最小长度。
func (p *RequestParameter) SetMaxLength(v int) bool {
	if !p.typ.IsStringLike() || v < 1 {
		return false
	}
	if p.hasMinLength && v < p.minLength {
		return false
	}
	p.maxLength, p.hasMaxLength = v, true
	return true
}

// IsEmptyStringAllowed 判断是否允许空字符串。
func (p *RequestParameter) IsEmptyStringAllowed() bool {
	return p.allowEmpty
}

// SetAllowEmptyString 设置是否允许空字符串，仅 string 类型可设置。
func (p *RequestParameter) SetAllowEmptyString(allow bool) bool {
	if p.typ != ParamTypeString {
		return false
	}
	p.allowEmpty = allow
	return true
}

// CustomFilter 返回自定义过滤过程，没有时返回 nil 。
func (p *RequestParameter) CustomFilter() CustomFilter {
	return p.customFilter
}

// ApplyBasicFilter 判断在执行自定义过滤前，是否先执行基础过滤。
func (p *RequestParameter) ApplyBasicFilter() bool {
	return p.applyBasicFilter
}

// SetCustomFilter 设置自定义过滤过程。 f 为 nil 时移除自定义过滤。
// applyBasicFilter 为 true 时，先执行基础过滤，其结果作为 CustomFilter.Filter 的 basicResult 参数。
func (p *RequestParameter) SetCustomFilter(f CustomFilter, applyBasicFilter bool) {
	p.customFilter = f
	p.applyBasicFilter = applyBasicFilter
}

// Description 返回参数的描述。
func (p *RequestParameter) Description() string {
	return p.description
}

// SetDescription 设置参数的描述。
func (p *RequestParameter) SetDescription(desc string) {
	p.description = strings.TrimSpace(desc)
}

// Methods 返回参数适用的 HTTP 方法。为空时表示适用于所属服务的所有方法。
func (p *RequestParameter) Methods() []string {
	return p.methods
}

// AddMethod 添加一个适用的 HTTP 方法，方法名称被转为大写。重复添加返回 false 。
func (p *RequestParameter) AddMethod(method string) bool {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return false
	}
	for _, m := range p.methods {
		if m == method {
			return false
		}
	}
	p.methods = append(p.methods, method)
	return true
}

// SetMethods 替换适用的 HTTP 方法。
func (p *RequestParameter) SetMethods(methods ...string) {
	p.methods = nil
	for _, m := range methods {
		p.AddMethod(m)
	}
}

// IsApplicable 判断参数是否适用于给定的 HTTP 方法。
func (p *RequestParameter) IsApplicable(method string) bool {
	if len(p.methods) == 0 {
		return true
	}

	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	for _, m := range p.methods {
		if m == method {
			return true
		}
	}
	return false
}

// String 实现 fmt.Stringer ，用于日志和调试。
func (p *RequestParameter) String() string {
	b := new(strings.Builder)
	b.WriteString(p.name)
	b.WriteByte(':')
	b.WriteString(string(p.typ))
	if p.optional {
		b.WriteString("?")
	}
	return b.String()
}

var typFloat64 = reflect.TypeOf(float64(0))

// toFloat64 将数值或数值的字符串形式转为 float64 。
func toFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	res, err := conv.ConvertType(v, typFloat64)
	if err != nil {
		return 0, false
	}
	return res.(float64), true
}
