package websvc

// FilteredInputs 是一次请求的参数过滤结果。根据请求的格式，它是以下之一：
//   - FormInputs ：来自 query-string 或表单；
//   - JsonInputs ：来自 JSON body ；
//   - NoInputs ：尚未过滤。
//
// 需要区分具体格式时，使用 type switch 。
type FilteredInputs interface {
	// Get 获取过滤后的值。参数不存在时返回 nil, false ；值非法时返回 Invalid 。
	Get(name string) (any, bool)

	// GetOriginal 获取过滤前的值（已 URL 解码）。
	GetOriginal(name string) (any, bool)

	// Has 判断过滤结果中是否存在给定的参数。必填参数缺失时，过滤结果中没有该参数。
	Has(name string) bool

	filteredInputs()
}

// FormInputs 是 query-string 或表单的过滤结果。
type FormInputs struct {
	Filtered    map[string]any // 过滤后的值。
	NonFiltered map[string]any // 过滤前的值。
}

// JsonInputs 是 JSON body 的过滤结果。
type JsonInputs struct {
	Filtered    *JsonObject // 过滤后的值，字段按参数声明的顺序排列。
	NonFiltered *JsonObject // 过滤前的值，字段按参数声明的顺序排列。
	Body        *JsonObject // 请求的完整 JSON 。
}

// NoInputs 表示还没有过滤结果。
type NoInputs struct{}

var (
	_ FilteredInputs = FormInputs{}
	_ FilteredInputs = JsonInputs{}
	_ FilteredInputs = NoInputs{}
)

func (FormInputs) filteredInputs() {}
func (JsonInputs) filteredInputs() {}
func (NoInputs) filteredInputs()   {}

// Get implements FilteredInputs.Get.
func (x FormInputs) Get(name string) (any, bool) {
	v, ok := x.Filtered[name]
	return v, ok
}

// GetOriginal implements FilteredInputs.GetOriginal.
func (x FormInputs) GetOriginal(name string) (any, bool) {
	v, ok := x.NonFiltered[name]
	return v, ok
}

// Has implements FilteredInputs.Has.
func (x FormInputs) Has(name string) bool {
	_, ok := x.Filtered[name]
	return ok
}

// Get implements FilteredInputs.Get.
func (x JsonInputs) Get(name string) (any, bool) {
	return x.Filtered.Get(name)
}

// GetOriginal implements FilteredInputs.GetOriginal.
func (x JsonInputs) GetOriginal(name string) (any, bool) {
	return x.NonFiltered.Get(name)
}

// Has implements FilteredInputs.Has.
func (x JsonInputs) Has(name string) bool {
	return x.Filtered.Has(name)
}

// Get implements FilteredInputs.Get.
func (NoInputs) Get(string) (any, bool) { return nil, false }

// GetOriginal implements FilteredInputs.GetOriginal.
func (NoInputs) GetOriginal(string) (any, bool) { return nil, false }

// Has implements FilteredInputs.Has.
func (NoInputs) Has(string) bool { return false }
