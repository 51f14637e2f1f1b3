package main

import (
	"io"

	"github.com/cmstar/go-errx"
	"github.com/cmstar/go-websvc"
	"github.com/cmstar/go-websvc/internal/config"
	"github.com/cmstar/go-websvc/internal/demo"
	"github.com/cmstar/go-websvc/internal/zlog"
	"github.com/cmstar/go-websvc/logsetup"
	"github.com/cmstar/go-websvc/signauth"
	"github.com/cmstar/go-websvc/svcmetrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// app 组装 websvcd 的各个部分。
type app struct {
	cfg     *config.Config
	engine  *websvc.ApiEngine
	manager *websvc.ServicesManager
	log     zerolog.Logger
}

func newApp(cfg *config.Config, logOutput io.Writer) (*app, error) {
	level, err := zlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errx.Wrap("log level", err)
	}
	root := zlog.New(logOutput, level, cfg.LogFormat)

	manager := websvc.NewServicesManager(cfg.Name)
	manager.UserHostResolver = websvc.NewBasicApiUserHostResolver(cfg.TrustForwardedFor)
	manager.Logger = logsetup.Default()

	var authorizer *signauth.Authorizer
	if len(cfg.AuthKeys) > 0 {
		authorizer = signauth.NewAuthorizer(signauth.MapSecretFinder(cfg.AuthKeys))
	}

	engine := websvc.NewEngine()
	engine.Handle(cfg.Path, manager, zlog.NewFinder(root)).
		AddService(demo.Services(authorizer)...)

	if cfg.MetricsPath != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if _, err := svcmetrics.Register(reg, manager, ""); err != nil {
			return nil, errx.Wrap("register metrics", err)
		}
		engine.Echo().GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	return &app{
		cfg:     cfg,
		engine:  engine,
		manager: manager,
		log:     root,
	}, nil
}
