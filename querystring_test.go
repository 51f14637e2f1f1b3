package websvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryString(t *testing.T) {
	tests := []struct {
		name        string
		queryString string
		wantNames   []string
		wantValues  map[string]string
	}{
		{
			"none",
			"",
			[]string{},
			map[string]string{},
		},

		{
			"question-mark-only",
			"?",
			[]string{},
			map[string]string{},
		},

		{
			"p1",
			"?a=1",
			[]string{"a"},
			map[string]string{"a": "1"},
		},

		{
			"raw-value",
			"a=%E4%B8%AD%E6%96%87&b=x+y",
			[]string{"a", "b"},
			map[string]string{"a": "%E4%B8%AD%E6%96%87", "b": "x+y"},
		},

		{
			"last-wins",
			"a=1&b=2&a=3",
			[]string{"a", "b"},
			map[string]string{"a": "3", "b": "2"},
		},

		{
			"no-equal-sign",
			"a&b=1&&",
			[]string{"a", "b"},
			map[string]string{"a": "", "b": "1"},
		},

		{
			"decoded-name",
			"%E4%B8%AD=1&first%2Dnumber=2",
			[]string{"中", "first-number"},
			map[string]string{"中": "1", "first-number": "2"},
		},

		{
			"bad-name",
			"%zz=1&ok=2",
			[]string{"ok"},
			map[string]string{"ok": "2"},
		},

		{
			"case-sensitive",
			"A=1&a=2",
			[]string{"A", "a"},
			map[string]string{"A": "1", "a": "2"},
		},

		{
			"equal-sign-in-value",
			"a=b=c",
			[]string{"a"},
			map[string]string{"a": "b=c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQueryString(tt.queryString)
			assert.Equal(t, tt.wantNames, got.Names())
			assert.Equal(t, len(tt.wantNames), got.Len())

			for k, v := range tt.wantValues {
				gotValue, ok := got.Get(k)
				assert.True(t, ok, k)
				assert.Equal(t, v, gotValue, k)
			}
		})
	}
}

func TestQueryString_Get(t *testing.T) {
	qs := ParseQueryString("a=%E4%B8%AD%E6%96%87&b=%zz")

	t.Run("raw", func(t *testing.T) {
		v, ok := qs.Get("a")
		assert.True(t, ok)
		assert.Equal(t, "%E4%B8%AD%E6%96%87", v)
	})

	t.Run("decoded", func(t *testing.T) {
		v, ok := qs.GetDecoded("a")
		assert.True(t, ok)
		assert.Equal(t, "中文", v)

		// 无法解码的保留原值。
		v, ok = qs.GetDecoded("b")
		assert.True(t, ok)
		assert.Equal(t, "%zz", v)
	})

	t.Run("miss", func(t *testing.T) {
		v, ok := qs.Get("x")
		assert.False(t, ok)
		assert.Equal(t, "", v)

		v, ok = qs.GetDecoded("A")
		assert.False(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("map", func(t *testing.T) {
		assert.Equal(t, map[string]any{"a": "%E4%B8%AD%E6%96%87", "b": "%zz"}, qs.Map())
	})
}
