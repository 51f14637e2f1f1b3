package websvc

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestParameter(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		p := NewRequestParameter("first-number", ParamTypeInt, true)
		assert.Equal(t, "first-number", p.Name())
		assert.Equal(t, ParamTypeInt, p.Type())
		assert.True(t, p.IsOptional())

		min, ok := p.MinValue()
		assert.True(t, ok)
		assert.Equal(t, float64(math.MinInt64), min)

		max, ok := p.MaxValue()
		assert.True(t, ok)
		assert.Equal(t, float64(math.MaxInt64), max)
	})

	t.Run("bad-name", func(t *testing.T) {
		p := NewRequestParameter("a b", ParamTypeString, false)
		assert.Equal(t, "a-parameter", p.Name())
	})

	t.Run("bad-type", func(t *testing.T) {
		p := NewRequestParameter("x", ParamType("date"), false)
		assert.Equal(t, ParamTypeString, p.Type())
	})

	t.Run("double-range", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeDouble, false)
		min, _ := p.MinValue()
		max, _ := p.MaxValue()
		assert.Equal(t, -math.MaxFloat64, min)
		assert.Equal(t, math.MaxFloat64, max)
	})
}

func TestRequestParameter_Bounds(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeInt, false)
		assert.True(t, p.SetMinValue(10))
		assert.True(t, p.SetMaxValue(20))

		// max 需大于 min 。
		assert.False(t, p.SetMaxValue(10))
		assert.False(t, p.SetMaxValue(5))

		// min 需小于 max 。
		assert.False(t, p.SetMinValue(20))
		assert.False(t, p.SetMinValue(math.NaN()))

		min, _ := p.MinValue()
		max, _ := p.MaxValue()
		assert.Equal(t, float64(10), min)
		assert.Equal(t, float64(20), max)
	})

	t.Run("numeric-on-string", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeString, false)
		assert.False(t, p.SetMinValue(1))
		assert.False(t, p.SetMaxValue(2))

		_, ok := p.MinValue()
		assert.False(t, ok)
	})

	t.Run("length", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeString, false)
		assert.False(t, p.SetMinLength(-1))
		assert.False(t, p.SetMaxLength(0))

		assert.True(t, p.SetMinLength(2))
		assert.False(t, p.SetMaxLength(1))
		assert.True(t, p.SetMaxLength(5))
		assert.False(t, p.SetMinLength(6))
		assert.True(t, p.SetMinLength(5))

		min, _ := p.MinLength()
		max, _ := p.MaxLength()
		assert.Equal(t, 5, min)
		assert.Equal(t, 5, max)
	})

	t.Run("length-on-int", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeInt, false)
		assert.False(t, p.SetMinLength(1))
		assert.False(t, p.SetMaxLength(1))
	})

	t.Run("allow-empty", func(t *testing.T) {
		assert.True(t, NewRequestParameter("x", ParamTypeString, false).SetAllowEmptyString(true))
		assert.False(t, NewRequestParameter("x", ParamTypeEmail, false).SetAllowEmptyString(true))
	})

	t.Run("change-type", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeString, false)
		p.SetMaxLength(10)
		p.SetAllowEmptyString(true)
		p.SetDefault("abc")

		require.True(t, p.SetType(ParamTypeInt))
		_, ok := p.MaxLength()
		assert.False(t, ok)
		assert.False(t, p.IsEmptyStringAllowed())

		// 默认值与新类型不匹配，被清除。
		_, ok = p.Default()
		assert.False(t, ok)

		assert.False(t, p.SetType("bad"))
		assert.Equal(t, ParamTypeInt, p.Type())
	})
}

func TestRequestParameter_SetDefault(t *testing.T) {
	tests := []struct {
		name   string
		typ    ParamType
		value  any
		wantOk bool
		want   any
	}{
		{"int-int", ParamTypeInt, 5, true, int64(5)},
		{"int-uint8", ParamTypeInt, uint8(5), true, int64(5)},
		{"int-float", ParamTypeInt, 1.5, false, nil},
		{"int-integral-float", ParamTypeInt, float64(30), true, int64(30)},
		{"int-float-overflow", ParamTypeInt, 1e19, false, nil},
		{"int-json-number", ParamTypeInt, json.Number("42"), true, int64(42)},
		{"int-string", ParamTypeInt, "5", false, nil},
		{"double-float", ParamTypeDouble, 1.5, true, 1.5},
		{"double-int", ParamTypeDouble, 2, true, float64(2)},
		{"string", ParamTypeString, "a", true, "a"},
		{"email-int", ParamTypeEmail, 1, false, nil},
		{"bool", ParamTypeBool, false, true, false},
		{"bool-string", ParamTypeBool, "true", false, nil},
		{"array", ParamTypeArray, []int{1, 2}, true, []int{1, 2}},
		{"array-string", ParamTypeArray, "[1]", false, nil},
		{"json-object", ParamTypeJsonObject, NewJsonObject(), true, NewJsonObject()},
		{"json-object-map", ParamTypeJsonObject, map[string]any{}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestParameter("x", tt.typ, true)
			assert.Equal(t, tt.wantOk, p.SetDefault(tt.value))

			v, ok := p.Default()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("clear", func(t *testing.T) {
		p := NewRequestParameter("x", ParamTypeString, true)
		p.SetDefault("a")
		assert.True(t, p.SetDefault(nil))
		_, ok := p.Default()
		assert.False(t, ok)
	})
}

func TestRequestParameter_Methods(t *testing.T) {
	p := NewRequestParameter("x", ParamTypeString, false)
	assert.True(t, p.IsApplicable("GET"))
	assert.True(t, p.IsApplicable("post"))

	assert.True(t, p.AddMethod("post"))
	assert.False(t, p.AddMethod("POST"))
	assert.False(t, p.AddMethod(" "))
	assert.Equal(t, []string{"POST"}, p.Methods())

	assert.True(t, p.IsApplicable("POST"))
	assert.True(t, p.IsApplicable("post"))
	assert.False(t, p.IsApplicable("GET"))

	p.SetMethods("get", "put", "GET")
	assert.Equal(t, []string{"GET", "PUT"}, p.Methods())
}

func TestNewRequestParameterFromOptions(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		cf := CustomFilterFunc(func(original, basicResult any, p *RequestParameter) (any, bool) {
			return basicResult, true
		})

		p, err := NewRequestParameterFromOptions(map[string]any{
			ParamOptionName:         "age",
			ParamOptionType:         "int",
			ParamOptionOptional:     true,
			ParamOptionDefault:      18,
			ParamOptionMin:          1,
			ParamOptionMax:          "150",
			ParamOptionDescription:  " the age ",
			ParamOptionCustomFilter: cf,
			ParamOptionMethods:      "get,post",
		})
		require.NoError(t, err)

		assert.Equal(t, "age", p.Name())
		assert.Equal(t, ParamTypeInt, p.Type())
		assert.True(t, p.IsOptional())

		def, _ := p.Default()
		assert.Equal(t, int64(18), def)

		min, _ := p.MinValue()
		max, _ := p.MaxValue()
		assert.Equal(t, float64(1), min)
		assert.Equal(t, float64(150), max)

		assert.Equal(t, "the age", p.Description())
		assert.NotNil(t, p.CustomFilter())
		assert.True(t, p.ApplyBasicFilter())
		assert.Equal(t, []string{"GET", "POST"}, p.Methods())
	})

	t.Run("string-options", func(t *testing.T) {
		p, err := NewRequestParameterFromOptions(map[string]any{
			ParamOptionName:       "name",
			ParamOptionMinLength:  2,
			ParamOptionMaxLength:  20,
			ParamOptionAllowEmpty: true,
			ParamOptionMethods:    []any{"put", 1},
		})
		require.NoError(t, err)

		assert.Equal(t, ParamTypeString, p.Type())
		assert.False(t, p.IsOptional())

		min, _ := p.MinLength()
		max, _ := p.MaxLength()
		assert.Equal(t, 2, min)
		assert.Equal(t, 20, max)
		assert.True(t, p.IsEmptyStringAllowed())
		assert.Equal(t, []string{"PUT"}, p.Methods())
	})

	t.Run("rejected-values-ignored", func(t *testing.T) {
		p, err := NewRequestParameterFromOptions(map[string]any{
			ParamOptionName:    "x",
			ParamOptionType:    ParamTypeString,
			ParamOptionMin:     1,
			ParamOptionDefault: 1,
		})
		require.NoError(t, err)

		_, ok := p.MinValue()
		assert.False(t, ok)
		_, ok = p.Default()
		assert.False(t, ok)
	})

	t.Run("decoded-json", func(t *testing.T) {
		var options map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"name":"page","type":"integer","optional":true,"default":1,"min":1}`), &options))

		p, err := NewRequestParameterFromOptions(options)
		require.NoError(t, err)

		def, ok := p.Default()
		assert.True(t, ok)
		assert.Equal(t, int64(1), def)
	})

	t.Run("missing-name", func(t *testing.T) {
		_, err := NewRequestParameterFromOptions(map[string]any{ParamOptionType: "int"})
		assert.Error(t, err)
	})

	t.Run("bad-type-value", func(t *testing.T) {
		_, err := NewRequestParameterFromOptions(map[string]any{ParamOptionName: "x", ParamOptionType: 1})
		assert.Error(t, err)
	})

	t.Run("bad-custom-filter", func(t *testing.T) {
		_, err := NewRequestParameterFromOptions(map[string]any{ParamOptionName: "x", ParamOptionCustomFilter: 1})
		assert.Error(t, err)
	})
}

func TestRequestParameter_String(t *testing.T) {
	assert.Equal(t, "a:integer", NewRequestParameter("a", ParamTypeInt, false).String())
	assert.Equal(t, "b:string?", NewRequestParameter("b", ParamTypeString, true).String())
}
