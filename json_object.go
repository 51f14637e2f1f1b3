package websvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// JsonObject 是保持字段顺序的 JSON 对象，用于表示 JSON 请求的 body 以及其过滤结果。
//
// 字段值的类型为：
//   - string 、 bool 、 nil ；
//   - json.Number ，数值保留原文；
//   - []any ，数组；
//   - *JsonObject ，嵌套的对象。
type JsonObject struct {
	keys   []string
	values map[string]any
}

var (
	_ json.Marshaler   = (*JsonObject)(nil)
	_ json.Unmarshaler = (*JsonObject)(nil)
)

// NewJsonObject 创建一个空的 JsonObject 。
func NewJsonObject() *JsonObject {
	return &JsonObject{
		values: make(map[string]any),
	}
}

// ParseJsonObject 解析一段 JSON ，其根节点必须是对象。字段顺序与原文一致，重复的字段保留最后一个值。
func ParseJsonObject(data []byte) (*JsonObject, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errors.New("the root of the JSON must be an object")
	}
	return parseJsonObject(data)
}

func parseJsonObject(data []byte) (*JsonObject, error) {
	o := NewJsonObject()
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}

		v, err := parseJsonValue(value, dataType)
		if err != nil {
			return err
		}

		o.Set(k, v)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return o, nil
}

func parseJsonArray(data []byte) ([]any, error) {
	res := make([]any, 0)

	var innerErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if innerErr != nil {
			return
		}

		if err != nil {
			innerErr = err
			return
		}

		v, err := parseJsonValue(value, dataType)
		if err != nil {
			innerErr = err
			return
		}
		res = append(res, v)
	})

	if err != nil {
		return nil, err
	}
	if innerErr != nil {
		return nil, innerErr
	}
	return res, nil
}

func parseJsonValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)

	case jsonparser.Number:
		// value 引用的是原始数据，需复制一份。
		return json.Number(string(value)), nil

	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)

	case jsonparser.Null:
		return nil, nil

	case jsonparser.Object:
		return parseJsonObject(value)

	case jsonparser.Array:
		return parseJsonArray(value)
	}

	return nil, fmt.Errorf("unknown JSON value: %s", value)
}

// Set 设置字段的值。新的字段追加在末尾，已有的字段保持原来的位置。
func (o *JsonObject) Set(key string, v any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}

	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get 获取字段的值，第二个返回值表示字段是否存在。
func (o *JsonObject) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has 判断字段是否存在。
func (o *JsonObject) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys 按顺序返回全部字段名称。
func (o *JsonObject) Keys() []string {
	if o == nil {
		return nil
	}
	res := make([]string, len(o.keys))
	copy(res, o.keys)
	return res
}

// Len 返回字段的数量。
func (o *JsonObject) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// FindProperty 以深度优先的方式，在当前对象及其嵌套的对象和数组中查找给定名称的字段，返回第一个找到的值。
// 每个字段先比较名称，名称不匹配时再深入其值，然后才处理下一个字段。
func (o *JsonObject) FindProperty(name string) (any, bool) {
	if o == nil {
		return nil, false
	}

	for _, k := range o.keys {
		v := o.values[k]
		if k == name {
			return v, true
		}

		if res, ok := findJsonProperty(v, name); ok {
			return res, true
		}
	}
	return nil, false
}

func findJsonProperty(v any, name string) (any, bool) {
	switch x := v.(type) {
	case *JsonObject:
		return x.FindProperty(name)

	case []any:
		for _, elem := range x {
			if res, ok := findJsonProperty(elem, name); ok {
				return res, true
			}
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler. 字段按顺序输出。
func (o *JsonObject) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field '%s': %w", k, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. 与 ParseJsonObject 的规则一致。
func (o *JsonObject) UnmarshalJSON(data []byte) error {
	res, err := ParseJsonObject(data)
	if err != nil {
		return err
	}
	*o = *res
	return nil
}

// String 返回 JSON 形式。
func (o *JsonObject) String() string {
	b, err := o.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("!(%v)", err)
	}
	return string(b)
}
