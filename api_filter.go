package websvc

import (
	"io"
	"net/url"
	"os"

	"github.com/cmstar/go-errx"
)

/*
当前文件是参数过滤的主流程，各类型的基础过滤见 api_filter_basic.go 。
*/

const (
	// Invalid 是参数值非法时，过滤结果中使用的值。
	// 单个参数的非法不会产生 error ，调用者通过比较过滤结果与此值来判断。
	Invalid = "INV"

	// NotApplicable 在参数设置为不执行基础过滤时，作为 CustomFilter.Filter 的 basicResult 参数传入。
	NotApplicable = "NOT_APPLICABLE"
)

// 读取 JSON body 时允许的最大长度。
const maxBodySize = 10 << 20

// IsInvalid 判断过滤后的值是否是 Invalid 。
func IsInvalid(v any) bool {
	s, ok := v.(string)
	return ok && s == Invalid
}

// ApiFilter 按一组 RequestParameter 过滤请求中的参数。
//
// 单个参数的值不合法时，过滤结果中该参数的值为 Invalid ；必填参数缺失时，过滤结果中不存在该参数。
// 一个 ApiFilter 保存了过滤结果，不能被多个请求共享，每个请求应使用新的实例，或在使用前调用 ClearInputs 。
type ApiFilter struct {
	params      []*RequestParameter
	inputs      FilteredInputs
	inputStream string
}

// NewApiFilter 创建一个 ApiFilter 。
func NewApiFilter() *ApiFilter {
	return &ApiFilter{
		inputs: NoInputs{},
	}
}

// AddRequestParameter 添加一个需要过滤的参数。此处不检查名称是否重复，参数名称的唯一性由服务保证。
func (f *ApiFilter) AddRequestParameter(p *RequestParameter) {
	if p == nil {
		return
	}
	f.params = append(f.params, p)
}

// ClearParameters 移除全部参数。
func (f *ApiFilter) ClearParameters() {
	f.params = nil
}

// ClearInputs 清除过滤结果。
func (f *ApiFilter) ClearInputs() {
	f.inputs = NoInputs{}
}

// Parameters 返回已添加的参数。
func (f *ApiFilter) Parameters() []*RequestParameter {
	res := make([]*RequestParameter, len(f.params))
	copy(res, f.params)
	return res
}

// Inputs 返回最后一次过滤的结果，尚未过滤时返回 NoInputs 。
func (f *ApiFilter) Inputs() FilteredInputs {
	return f.inputs
}

// SetInputStream 指定从给定的文件读取 JSON body ，用于脱离 HTTP 请求的测试。
// 文件不能打开时返回 false ，且原有的设置不变。给定空字符串时取消此设置。
func (f *ApiFilter) SetInputStream(path string) bool {
	if path == "" {
		f.inputStream = ""
		return true
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()

	f.inputStream = path
	return true
}

// ReadJsonBody 读取并解析 JSON body 。若通过 SetInputStream 指定了文件，从文件读取，否则从 fallback 读取。
// JSON 格式错误或根节点不是对象时，返回 error 。
func (f *ApiFilter) ReadJsonBody(fallback io.Reader) (*JsonObject, error) {
	var src io.Reader
	if f.inputStream != "" {
		file, err := os.Open(f.inputStream)
		if err != nil {
			return nil, errx.Wrap("open input stream", err)
		}
		defer file.Close()
		src = file
	} else if fallback != nil {
		src = fallback
	} else {
		return NewJsonObject(), nil
	}

	data, err := io.ReadAll(io.LimitReader(src, maxBodySize))
	if err != nil {
		return nil, errx.Wrap("read JSON body", err)
	}

	doc, err := ParseJsonObject(data)
	if err != nil {
		return nil, errx.Wrap("parse JSON body", err)
	}
	return doc, nil
}

// FilterForm 过滤 query-string 或表单参数。 source 的值是 string ，或是重复参数形成的 slice 。
// 字符串值先经过 URL 解码，无法解码时保留原值。
func (f *ApiFilter) FilterForm(source map[string]any) FormInputs {
	res := FormInputs{
		Filtered:    make(map[string]any, len(f.params)),
		NonFiltered: make(map[string]any, len(f.params)),
	}

	for _, p := range f.params {
		name := p.Name()
		raw, ok := source[name]
		if !ok || raw == nil {
			if p.IsOptional() {
				def, _ := p.Default()
				res.Filtered[name] = def
				res.NonFiltered[name] = def
			}
			continue
		}

		original := urlDecodeValue(raw)
		res.NonFiltered[name] = original
		res.Filtered[name] = f.filterValue(p, original)
	}

	f.inputs = res
	return res
}

// FilterJson 过滤 JSON body 。参数值通过 JsonObject.FindProperty 在整个文档中深度优先地查找，值不做 URL 解码；
// 例外是 array 参数的 JSON 数组，其中的字符串元素被 URL 解码。
// 过滤结果是新的 JsonObject ，字段按参数的添加顺序排列。值为 null 的参数视为不存在。
func (f *ApiFilter) FilterJson(doc *JsonObject) JsonInputs {
	res := JsonInputs{
		Filtered:    NewJsonObject(),
		NonFiltered: NewJsonObject(),
		Body:        doc,
	}

	for _, p := range f.params {
		name := p.Name()
		raw, ok := doc.FindProperty(name)
		if !ok || raw == nil {
			if p.IsOptional() {
				def, _ := p.Default()
				res.Filtered.Set(name, def)
				res.NonFiltered.Set(name, def)
			}
			continue
		}

		res.NonFiltered.Set(name, raw)
		res.Filtered.Set(name, f.filterValue(p, jsonArrayValue(p, raw)))
	}

	f.inputs = res
	return res
}

// jsonArrayValue 对 array 参数的 JSON 数组做 URL 解码，其余值原样返回。
func jsonArrayValue(p *RequestParameter, raw any) any {
	if p.Type() != ParamTypeArray {
		return raw
	}
	if arr, ok := raw.([]any); ok {
		return urlDecodeValue(arr)
	}
	return raw
}

// filterValue 对一个已存在的值执行过滤。 original 已完成 URL 解码（若需要）。
func (f *ApiFilter) filterValue(p *RequestParameter, original any) any {
	cleaned := original
	if s, ok := original.(string); ok {
		cleaned = stripTags(s)
	}

	var res any
	if cf := p.CustomFilter(); cf != nil {
		basic := any(NotApplicable)
		if p.ApplyBasicFilter() {
			basic = basicFilter(p, cleaned)
		}
		res = applyCustomFilter(cf, original, basic, p)
	} else {
		res = basicFilter(p, cleaned)
	}

	if IsInvalid(res) {
		if def, ok := p.Default(); ok {
			return def
		}
	}
	return res
}

func applyCustomFilter(cf CustomFilter, original, basic any, p *RequestParameter) any {
	v, ok := cf.Filter(original, basic, p)
	if !ok || v == nil {
		return Invalid
	}

	// boolean 参数的 false 是合法值。
	if b, isBool := v.(bool); isBool && !b && p.Type() != ParamTypeBool {
		return Invalid
	}
	return v
}

// urlDecodeValue 对字符串及 slice 中的字符串做 URL 解码，其他值原样返回。
func urlDecodeValue(v any) any {
	switch x := v.(type) {
	case string:
		return urlDecode(x)

	case []string:
		res := make([]any, len(x))
		for i, s := range x {
			res[i] = urlDecode(s)
		}
		return res

	case []any:
		res := make([]any, len(x))
		for i, elem := range x {
			res[i] = urlDecodeValue(elem)
		}
		return res
	}
	return v
}

func urlDecode(s string) string {
	res, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return res
}
