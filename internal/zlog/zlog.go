// zlog 包基于 zerolog 实现 logx.Logger 和 logx.LogFinder 。
package zlog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cmstar/go-logx"
	"github.com/rs/zerolog"
)

// 日志的输出格式。
const (
	FormatJson    = "json"
	FormatConsole = "console"
)

// Logger 实现 logx.Logger ，将日志输出到 zerolog.Logger 。
type Logger struct {
	z zerolog.Logger
}

var _ logx.Logger = (*Logger)(nil)

// NewLogger 使用给定的 zerolog.Logger 创建 Logger 。
func NewLogger(z zerolog.Logger) *Logger {
	return &Logger{z: z}
}

// Log implements logx.Logger.Log.
// keyValues 按 key-value 对输出为字段，个数为奇数时，最后一个值的 key 记为 UNKNOWN 。
func (l *Logger) Log(level logx.Level, message string, keyValues ...any) error {
	ev := l.z.WithLevel(toZerologLevel(level))
	if ev == nil {
		return nil
	}

	length := len(keyValues)
	for i := 0; i < length-1; i += 2 {
		ev = addField(ev, fmt.Sprint(keyValues[i]), keyValues[i+1])
	}
	if length%2 != 0 {
		ev = addField(ev, "UNKNOWN", keyValues[length-1])
	}

	ev.Msg(message)
	return nil
}

// LogFn implements logx.Logger.LogFn.
// 日志级别未开启时， messageFactory 不会被调用。
func (l *Logger) LogFn(level logx.Level, messageFactory func() (string, []any)) error {
	if toZerologLevel(level) < l.z.GetLevel() {
		return nil
	}

	message, keyValues := messageFactory()
	return l.Log(level, message, keyValues...)
}

func addField(ev *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return ev.Str(key, v)
	case error:
		return ev.AnErr(key, v)
	case fmt.Stringer:
		return ev.Stringer(key, v)
	default:
		return ev.Interface(key, v)
	}
}

func toZerologLevel(level logx.Level) zerolog.Level {
	switch level {
	case logx.LevelDebug:
		return zerolog.DebugLevel
	case logx.LevelInfo:
		return zerolog.InfoLevel
	case logx.LevelWarn:
		return zerolog.WarnLevel
	case logx.LevelError:
		return zerolog.ErrorLevel
	case logx.LevelFatal:
		return zerolog.FatalLevel
	}
	return zerolog.InfoLevel
}

// ParseLevel 解析日志级别的名称： debug/info/warn/error/fatal ，大小写不敏感。
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level '%s'", s)
}

// New 创建输出到 w 的 zerolog.Logger 。 format 为 console 时输出便于阅读的文本，否则输出 JSON 。
func New(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Finder 实现 logx.LogFinder ，每个名称对应一个带有 logger 字段的 Logger 。
type Finder struct {
	root    zerolog.Logger
	loggers sync.Map
}

var _ logx.LogFinder = (*Finder)(nil)

// NewFinder 创建基于给定 zerolog.Logger 的 Finder 。
func NewFinder(root zerolog.Logger) *Finder {
	return &Finder{root: root}
}

// Find implements logx.LogFinder.Find.
func (f *Finder) Find(name string) logx.Logger {
	if v, ok := f.loggers.Load(name); ok {
		return v.(logx.Logger)
	}

	logger := NewLogger(f.root.With().Str("logger", name).Logger())
	v, _ := f.loggers.LoadOrStore(name, logger)
	return v.(logx.Logger)
}
