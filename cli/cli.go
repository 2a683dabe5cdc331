package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mashiike/nimcheck"
	"github.com/mashiike/nimcheck/scenario"
	"github.com/mashiike/slogutils"
)

type CLI struct {
	LogFormat string `help:"Log format" enum:"json,text" default:"json"`
	Color     bool   `help:"Enable color output" negatable:"" default:"true"`
	Debug     bool   `help:"Enable debug mode" env:"DEBUG"`
	Verbose   bool   `help:"Enable log verbose mode" env:"VERBOSE"`

	Region       string        `help:"AWS region for SageMaker mode (e.g. us-east-1)" env:"AWS_REGION"`
	EndpointName string        `help:"SageMaker endpoint name"`
	Host         string        `help:"Host for direct HTTP mode (e.g. localhost)"`
	Port         int           `help:"Port for direct HTTP mode" default:"8000"`
	Timeout      time.Duration `help:"Request timeout" default:"3600s"`
	StrictEOF    bool          `help:"Treat a stream closed without the done marker as an error"`

	Model   string           `help:"Model identifier" default:"${default_model}"`
	Test    string           `help:"Which scenario to run" enum:"all,health,basic,streaming,reasoning,multimodal" default:"all"`
	Image   string           `help:"Path to image file for the multimodal scenario" type:"path"`
	Version kong.VersionFlag `help:"Show version"`
}

func newLogger(level slog.Level, format string, c bool) *slog.Logger {
	var f func(io.Writer, *slog.HandlerOptions) slog.Handler
	switch format {
	case "text":
		f = func(w io.Writer, ho *slog.HandlerOptions) slog.Handler {
			return slog.NewTextHandler(w, ho)
		}
	default:
		f = func(w io.Writer, ho *slog.HandlerOptions) slog.Handler {
			return slog.NewJSONHandler(w, ho)
		}
	}
	var modifierFuncs map[slog.Level]slogutils.ModifierFunc
	if c {
		modifierFuncs = map[slog.Level]slogutils.ModifierFunc{
			slog.LevelDebug: slogutils.Color(color.FgBlack),
			slog.LevelInfo:  nil,
			slog.LevelWarn:  slogutils.Color(color.FgYellow),
			slog.LevelError: slogutils.Color(color.FgRed, color.Bold),
		}
	}
	middleware := slogutils.NewMiddleware(
		f,
		slogutils.MiddlewareOptions{
			Writer:        os.Stderr,
			ModifierFuncs: modifierFuncs,
			HandlerOptions: &slog.HandlerOptions{
				Level: level,
			},
		},
	)
	return slog.New(middleware)
}

func (c *CLI) Run(ctx context.Context) int {
	k := kong.Parse(c,
		kong.Name("nimcheck"),
		kong.Description("Nimcheck exercises a NIM chat endpoint over SageMaker or direct HTTP."),
		kong.UsageOnError(),
		kong.Vars{
			"default_model": scenario.DefaultModel,
			"version":       nimcheck.Version,
		},
	)
	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	logger := newLogger(logLevel, c.LogFormat, c.Color)
	if c.Verbose {
		slog.SetDefault(logger)
	}
	color.NoColor = !c.Color
	ok, err := c.run(ctx, k, logger)
	if err != nil {
		logger.Error("runtime error", "details", err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}

func (c *CLI) run(ctx context.Context, _ *kong.Context, logger *slog.Logger) (bool, error) {
	cfg, err := c.endpointConfig()
	if err != nil {
		return false, err
	}
	client, err := nimcheck.NewClient(ctx, cfg)
	if err != nil {
		return false, fmt.Errorf("initialize client: %w", err)
	}
	logger.InfoContext(ctx, "run scenarios", "endpoint", client.EndpointInfo(), "test", c.Test)
	runner := scenario.NewRunner(client, func(o *scenario.Options) {
		o.Model = c.Model
		o.ImagePath = c.Image
	})
	results := runner.Run(ctx, c.Test)
	passed, total := scenario.WriteReport(os.Stdout, results)
	return passed == total, nil
}

func (c *CLI) endpointConfig() (*nimcheck.EndpointConfig, error) {
	sagemakerMode := c.Region != "" && c.EndpointName != ""
	httpMode := c.Host != ""
	switch {
	case sagemakerMode && httpMode:
		return nil, errors.New("cannot use both SageMaker (--region/--endpoint-name) and HTTP (--host) modes together")
	case sagemakerMode:
		return &nimcheck.EndpointConfig{
			Kind:         "sagemaker",
			Region:       c.Region,
			EndpointName: c.EndpointName,
			Timeout:      c.Timeout,
			StrictEOF:    c.StrictEOF,
		}, nil
	case httpMode:
		return &nimcheck.EndpointConfig{
			Kind:      "http",
			Host:      c.Host,
			Port:      c.Port,
			Timeout:   c.Timeout,
			StrictEOF: c.StrictEOF,
		}, nil
	default:
		return nil, errors.New("must specify either SageMaker mode (--region and --endpoint-name) or HTTP mode (--host)")
	}
}
