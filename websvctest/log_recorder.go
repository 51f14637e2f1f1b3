package websvctest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cmstar/go-logx"
)

// LogRecorder 实现 logx.Logger ，记录全部日志，用于在测试中检查日志的内容。可被并发使用。
//
// String 返回的文本中，每条日志一行，格式为：
//
//	level={LEVEL} message={MESSAGE} KEY1=VALUE1 KEY2=VALUE2 ...
//
// key-value 的个数为奇数时，最后一个值的 key 记为 UNKNOWN 。
type LogRecorder struct {
	mu  sync.Mutex
	buf strings.Builder
	m   []map[string]string
}

var _ logx.Logger = (*LogRecorder)(nil)

// NewLogRecorder 创建一个 LogRecorder 的新实例。
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Log implements logx.Logger.Log.
func (l *LogRecorder) Log(level logx.Level, message string, keyValues ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := make(map[string]string)
	l.m = append(l.m, m)

	write := func(k, v string) {
		if len(m) > 0 {
			l.buf.WriteByte(' ')
		}
		l.buf.WriteString(k)
		l.buf.WriteByte('=')
		l.buf.WriteString(v)
		m[k] = v
	}

	write("level", logx.LevelToString(level))
	write("message", message)

	length := len(keyValues)
	for i := 0; i < length-1; i += 2 {
		write(fmt.Sprint(keyValues[i]), fmt.Sprint(keyValues[i+1]))
	}

	if length%2 != 0 {
		write("UNKNOWN", fmt.Sprint(keyValues[length-1]))
	}

	l.buf.WriteByte('\n')
	return nil
}

// LogFn implements logx.Logger.LogFn.
func (l *LogRecorder) LogFn(level logx.Level, messageFactory func() (string, []any)) error {
	m, kv := messageFactory()
	return l.Log(level, m, kv...)
}

// String 返回当前记录的完整日志。
func (l *LogRecorder) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Map 返回结构化日志。每条日志使用一个 map 记录，除日志的 key-value 外，还包含 level 和 message 。
func (l *LogRecorder) Map() []map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]map[string]string, len(l.m))
	copy(res, l.m)
	return res
}

// Last 返回最后一条日志，没有日志时返回 nil 。
func (l *LogRecorder) Last() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.m) == 0 {
		return nil
	}
	return l.m[len(l.m)-1]
}

// Reset 清除已记录的日志。
func (l *LogRecorder) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Reset()
	l.m = nil
}
