package websvc

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cmstar/go-conv"
	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	doublePattern  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

	typString = reflect.TypeOf("")

	// validator.Validate 可并发使用。
	validate = validator.New()
)

// 可被识别为 boolean 的值，大小写不敏感。
var boolVocabulary = map[string]bool{
	"t":     true,
	"yes":   true,
	"y":     true,
	"1":     true,
	"true":  true,
	"on":    true,
	"ok":    true,
	"f":     false,
	"no":    false,
	"n":     false,
	"0":     false,
	"-1":    false,
	"false": false,
	"off":   false,
}

// basicFilter 按参数类型过滤一个值。 v 是已清除 HTML 标签的值。
func basicFilter(p *RequestParameter, v any) any {
	switch p.Type() {
	case ParamTypeBool:
		return filterBool(v)
	case ParamTypeInt:
		return filterInteger(p, v)
	case ParamTypeDouble:
		return filterDouble(p, v)
	case ParamTypeArray:
		return filterArray(v)
	case ParamTypeJsonObject:
		return filterJsonObject(v)
	default:
		return filterString(p, v)
	}
}

func filterBool(v any) any {
	switch x := v.(type) {
	case bool:
		return x

	case string, json.Number:
		s := strings.ToLower(strings.TrimSpace(scalarToString(x)))
		if b, ok := boolVocabulary[s]; ok {
			return b
		}
	}
	return Invalid
}

func filterInteger(p *RequestParameter, v any) any {
	s, ok := numberText(v)
	if !ok || !integerPattern.MatchString(s) {
		return Invalid
	}

	// 超出 int64 范围时转换失败。
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Invalid
	}

	if !intInRange(p, n) {
		return Invalid
	}
	return n
}

// 2^63 ， float64 可以精确表示。
const twoToThe63 = float64(1 << 63)

// intInRange 在 int64 上比较整数与边界，超过 2^53 的整数转为 float64 时会丢失精度。
func intInRange(p *RequestParameter, n int64) bool {
	if min, ok := p.MinValue(); ok {
		c := math.Ceil(min)
		if c >= twoToThe63 || (c > -twoToThe63 && n < int64(c)) {
			return false
		}
	}
	if max, ok := p.MaxValue(); ok {
		f := math.Floor(max)
		if f < -twoToThe63 || (f < twoToThe63 && n > int64(f)) {
			return false
		}
	}
	return true
}

func filterDouble(p *RequestParameter, v any) any {
	s, ok := numberText(v)
	if !ok || !doublePattern.MatchString(s) {
		return Invalid
	}

	// 超出 float64 范围时转换失败。
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Invalid
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Invalid
	}
	if !inRange(p, f) {
		return Invalid
	}
	return f
}

func inRange(p *RequestParameter, v float64) bool {
	if min, ok := p.MinValue(); ok && v < min {
		return false
	}
	if max, ok := p.MaxValue(); ok && v > max {
		return false
	}
	return true
}

// numberText 返回数值的文本形式。 bool 、 slice 等类型不能作为数值。
func numberText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return string(x), true
	}

	if v != nil && conv.IsSimpleType(reflect.TypeOf(v)) {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			res, err := conv.ConvertType(v, typString)
			if err == nil {
				return res.(string), true
			}
		}
	}
	return "", false
}

func filterString(p *RequestParameter, v any) any {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = string(x)
	default:
		return Invalid
	}

	if s == "" {
		if p.Type() == ParamTypeString && p.IsEmptyStringAllowed() {
			return ""
		}
		return Invalid
	}

	length := utf8.RuneCountInString(s)
	if min, ok := p.MinLength(); ok && length < min {
		return Invalid
	}
	if max, ok := p.MaxLength(); ok && length > max {
		return Invalid
	}

	switch p.Type() {
	case ParamTypeEmail:
		if validate.Var(s, "email") != nil {
			return Invalid
		}
	case ParamTypeUrl:
		if validate.Var(s, "url") != nil {
			return Invalid
		}
	}
	return s
}

// filterArray 处理数组参数。已是数组的值（重复的表单参数或 JSON 数组）中的数值转为 int64 或 float64 ，
// 其中的字符串已由调用方做过 URL 解码，这里不再解码；字符串按数组的字面量格式解析，如 [1,"a",true,null] 。
func filterArray(v any) any {
	switch x := v.(type) {
	case []any:
		return normalizeArray(x)

	case []string:
		res := make([]any, len(x))
		for i, s := range x {
			res[i] = s
		}
		return res

	case string:
		res, err := ParseArrayLiteral(x)
		if err != nil {
			return Invalid
		}
		return res
	}
	return Invalid
}

func normalizeArray(arr []any) []any {
	res := make([]any, len(arr))
	for i, elem := range arr {
		switch x := elem.(type) {
		case json.Number:
			res[i] = jsonNumberValue(x)
		case []any:
			res[i] = normalizeArray(x)
		default:
			res[i] = elem
		}
	}
	return res
}

func jsonNumberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return string(n)
}

// json-object 仅当值本身是 JSON 对象时有效，否则结果为 nil 。
func filterJsonObject(v any) any {
	if o, ok := v.(*JsonObject); ok {
		return o
	}
	return nil
}

func scalarToString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return string(x)
	}
	return ""
}

// stripTags 移除字符串中的 HTML 标签， script 和 style 元素的内容一并移除。
// 其余文本保持原样，不做 HTML 实体的转换。
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	b := new(strings.Builder)
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Raw())
			}

		case html.StartTagToken:
			if isRawContentTag(z) {
				skipDepth++
			}

		case html.EndTagToken:
			if isRawContentTag(z) && skipDepth > 0 {
				skipDepth--
			}
		}
	}
}

func isRawContentTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	tag := string(name)
	return tag == "script" || tag == "style"
}
