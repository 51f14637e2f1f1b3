package websvc

import "github.com/cmstar/go-logx"

// ApiLogger 在响应写出后，生成请求的日志。
type ApiLogger interface {
	// Log 根据 ApiState 的内容生成日志，日志由 ApiState.Logger 接收。
	// 若 ApiState.Logger 为 nil ，则不生成日志。
	Log(state *ApiState)
}

// LogSetup 定义一个过程，此过程用于向 ApiState 填充日志信息。
// 预定义的实现见 logsetup 包。
type LogSetup interface {
	// Setup 可将日志信息写入 ApiState.LogLevel 和 ApiState.LogMessage 。
	Setup(state *ApiState)
}

// LogSetupFunc 将函数包装为 LogSetup 。
type LogSetupFunc func(state *ApiState)

// Setup implements LogSetup.Setup.
func (f LogSetupFunc) Setup(state *ApiState) {
	f(state)
}

// LogSetupPipeline 是 LogSetup 组成的管道，实现 ApiLogger 。
//
// 在 Log 时，依次执行每个 LogSetup.Setup ，并将得到的 ApiState.LogLevel 和 ApiState.LogMessage 输出到日志。
// 若 LogLevel 未被设置，默认使用 logx.LevelInfo 级别。
type LogSetupPipeline []LogSetup

var _ ApiLogger = (LogSetupPipeline)(nil)

// NewLogSetupPipeline 返回一个 LogSetupPipeline 。
func NewLogSetupPipeline(s ...LogSetup) LogSetupPipeline {
	return LogSetupPipeline(s)
}

// Append 返回追加了给定步骤的新管道，原管道不变。
func (p LogSetupPipeline) Append(s ...LogSetup) LogSetupPipeline {
	res := make(LogSetupPipeline, 0, len(p)+len(s))
	res = append(res, p...)
	return append(res, s...)
}

// Log implements ApiLogger.Log.
func (p LogSetupPipeline) Log(state *ApiState) {
	logger := state.Logger
	if logger == nil || len(p) == 0 {
		return
	}

	for _, v := range p {
		v.Setup(state)
	}

	lv := state.LogLevel
	if lv == 0 {
		lv = logx.LevelInfo
	}

	logger.Log(lv, "", state.LogMessage...)
}
