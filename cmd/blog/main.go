// Command blog builds and serves the blog described by a site manifest.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/msahib/blog"
	"github.com/msahib/blog/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blog",
		Short:         "Build and serve a Markdown blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Optional config file (yaml, toml or json)")
	flags.StringP("manifest", "m", "site.yaml", "Path to the site manifest")
	flags.StringP("out", "o", "public", "Directory the static site is written to")
	flags.String("db", "data/pages.db", "Path to the SQLite page index")
	flags.String("url", "http://localhost:8000", "Canonical site origin, without the path prefix")
	flags.String("addr", ":8000", "Listen address for serve")
	flags.String("fonts-endpoint", "", "Web font stylesheet API")
	flags.Duration("font-wait", 0, "How long a build waits for the font stylesheet")
	flags.Bool("debug", false, "Run in debug mode")
	flags.Bool("json", false, "Log in JSON")
	flags.String("log-level", "", "Minimum log level")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(newBuildCmd(v), newServeCmd(v), newInitCmd(v), newVersionCmd())
	return cmd
}

// initConfig merges the optional config file and BLOG_* environment
// variables under the command line flags.
func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func siteConfig(v *viper.Viper) blog.SiteConfig {
	return blog.SiteConfig{
		ManifestPath:  v.GetString("manifest"),
		URL:           v.GetString("url"),
		OutDir:        v.GetString("out"),
		DatabasePath:  v.GetString("db"),
		Addr:          v.GetString("addr"),
		FontsEndpoint: v.GetString("fonts-endpoint"),
		FontWait:      v.GetDuration("font-wait"),
	}
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Debug: v.GetBool("debug"),
		JSON:  v.GetBool("json"),
		Level: v.GetString("log-level"),
	})
}

// withApp runs fn against an App built from the merged configuration and
// closes it afterwards.
func withApp(v *viper.Viper, fn func(ctx context.Context, app *blog.App) error) error {
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := blog.New(siteConfig(v), blog.WithLogger(logger))
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted")
			return nil
		}
		logger.Error("failed", zap.Error(err))
		return err
	}
	return nil
}

func newBuildCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "build",
		Short:   "Run the plugin pipeline and write the static site",
		Example: "  blog build -m site.yaml -o public --url https://example.com",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(ctx context.Context, app *blog.App) error {
				return app.Build(ctx)
			})
		},
	}
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Build the site and serve it under the manifest's path prefix",
		Example: "  blog serve --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(ctx context.Context, app *blog.App) error {
				return app.Start(ctx)
			})
		},
	}
}

func newInitCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter manifest and source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("manifest")
			if err := blog.WriteDefaultManifest(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
