package websvc

import (
	"context"
	"net/http"

	"github.com/cmstar/go-logx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ApiEngine 表示一个 HTTP 服务器，基于 ServicesManager 注册和管理服务。
type ApiEngine struct {
	echo *echo.Echo
}

var _ http.Handler = (*ApiEngine)(nil)

// NewEngine 创建一个 ApiEngine 实例，并完成初始化设置。
// 自动生成并绑定 echo 实例。
func NewEngine() *ApiEngine {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return NewEngineFromEcho(e)
}

// NewEngineFromEcho 创建一个 ApiEngine 实例，并绑定给定的 echo 实例。
func NewEngineFromEcho(e *echo.Echo) *ApiEngine {
	return &ApiEngine{echo: e}
}

// Echo 返回绑定的 echo 实例，可用于注册其他路由或中间件。
func (engine *ApiEngine) Echo() *echo.Echo {
	return engine.echo
}

// ServeHTTP implements http.Handler.
func (engine *ApiEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	engine.echo.ServeHTTP(w, r)
}

// Start 在指定的地址开启 HTTP 服务，开始监听端口并响应请求。在完成各个服务注册后，最后调用此方法开启服务。
// 方法阻塞直到服务停止；通过 Shutdown 停止时，返回 http.ErrServerClosed 。
//
// addr 地址格式为 IP:PORT ，监听来自于特定 IP ，对于特定端口的请求；若不指定 IP 地址，省略 IP 部分，格式为 :PORT 。
// 如“:12345”监听任何来源对于 12345 端口的请求，“127.0.0.1:12345”则仅监听本机。
func (engine *ApiEngine) Start(addr string) error {
	return engine.echo.Start(addr)
}

// Shutdown 停止 HTTP 服务，等待正在处理的请求完成，直到 ctx 结束。
func (engine *ApiEngine) Shutdown(ctx context.Context) error {
	return engine.echo.Shutdown(ctx)
}

// Handle 指定一个 ServicesManager ，响应对应 URL 路径下任意 HTTP 方法的请求。
// 通过 CreateHandlerFunc(manager, logFinder) 方法创建用于响应请求的过程。
// 返回 ServiceSetup ，用于向 ServicesManager 注册服务。
//
// path 为相对路径，以 / 开头，使用 echo 的格式，参考 https://echo.labstack.com/guide/routing/ 。
// 路径参数会被写入 chi 的路由上下文，可通过 GetRouteParam 读取。
// 若路径包含参数 :service ，如 /api/:service ，在请求参数未给定服务名称时，使用此参数作为服务名称。
func (engine *ApiEngine) Handle(path string, manager *ServicesManager, logFinder logx.LogFinder) ServiceSetup {
	handlerFunc := CreateHandlerFunc(manager, logFinder)

	engine.echo.Any(path, func(c echo.Context) error {
		r := c.Request()

		names := c.ParamNames()
		if len(names) > 0 {
			values := c.ParamValues()
			params := make(map[string]string, len(names))
			for i, name := range names {
				if i < len(values) {
					params[name] = values[i]
				}
			}
			r = SetRouteParams(r, params)
		}

		handlerFunc(c.Response(), r)
		return nil
	})

	return ServiceSetup{engine, manager}
}
