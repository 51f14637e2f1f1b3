package main

import (
	"github.com/cmstar/go-websvc/internal/config"
	"github.com/spf13/cobra"
)

// 命令行上的通用选项。
type rootOptions struct {
	configFile string
	envFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: o.configFile,
		EnvFile:    o.envFile,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "websvcd",
		Short: "Serves the example services over HTTP",
		Long: `websvcd serves a set of example services. Each request names a service via the
action, service or service-name parameter (or the :service route parameter); the
parameters are filtered and validated before the service runs, and every response is JSON.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path of the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path of the .env file, ignored when missing")

	cmd.AddCommand(newServeCmd(opts), newServicesCmd(opts))
	return cmd
}
