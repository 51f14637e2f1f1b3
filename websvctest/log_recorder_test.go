package websvctest

import (
	"testing"

	"github.com/cmstar/go-logx"
	"github.com/stretchr/testify/assert"
)

func TestLogRecorder(t *testing.T) {
	r := NewLogRecorder()
	assert := assert.New(t)
	assert.Empty(r.String())
	assert.Nil(r.Last())

	r.Log(logx.LevelDebug, "")
	r.Log(logx.LevelError, "msg")
	r.Log(logx.LevelInfo, "", "k1", "v1", "k2", 2, 3)
	r.LogFn(logx.LevelInfo, func() (string, []any) {
		return "msg", []any{"k1", "v1"}
	})

	want := `level=DEBUG message=
level=ERROR message=msg
level=INFO message= k1=v1 k2=2 UNKNOWN=3
level=INFO message=msg k1=v1
`
	assert.Equal(want, r.String())

	checkMap := func(idx int, key, wantValue string) {
		m := r.Map()[idx]
		assert.Equal(wantValue, m[key])
	}

	checkMap(0, "level", "DEBUG")
	checkMap(0, "message", "")

	checkMap(1, "level", "ERROR")
	checkMap(1, "message", "msg")

	checkMap(2, "level", "INFO")
	checkMap(2, "k1", "v1")
	checkMap(2, "k2", "2")
	checkMap(2, "UNKNOWN", "3")

	assert.Equal("v1", r.Last()["k1"])
	assert.Equal("msg", r.Last()["message"])

	r.Reset()
	assert.Empty(r.String())
	assert.Len(r.Map(), 0)
}
