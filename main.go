package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-logr/zapr"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"github.com/stoewer/go-strcase"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/krateoplatformops/oascontracts/internal/controllers"
	"github.com/krateoplatformops/oascontracts/internal/controllers/command"
	"github.com/krateoplatformops/oascontracts/internal/controllers/logger"
	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("%s: %v", command.AppName, err)
	}
}

func run(args []string) error {
	app := kingpin.New(command.AppName, "Validate, generate and mock data described by OpenAPI documents.")
	app.HelpFlag.Short('h')

	debug := app.Flag("debug", "Run with debug logging.").Envar(command.Envar("debug")).Bool()
	maxDepth := app.Flag("max-depth", "Maximum depth of schema references followed during conversion.").
		Envar(command.Envar("max-depth")).Default(strconv.Itoa(oas2datatype.DefaultMaxRecursiveDepth)).Int()
	maxNodes := app.Flag("max-nodes", "Maximum number of schema nodes converted per schema, 0 for no limit.").
		Envar(command.Envar("max-nodes")).Default(strconv.Itoa(int(oas2datatype.DefaultMaxNodes))).Int32()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &command.Options{Out: os.Stdout}
	var zl *zap.Logger
	app.PreAction(func(*kingpin.ParseContext) error {
		var err error
		zl, err = newZapLogger(*debug)
		if err != nil {
			return fmt.Errorf("cannot create logger: %w", err)
		}
		o.Logger = &logger.Logger{
			Verbose: *debug,
			Logger:  logging.NewLogrLogger(zapr.NewLogger(zl).WithName(strcase.KebabCase(command.AppName))),
		}
		o.Conversion = &oas2datatype.Config{
			MaxRecursiveDepth: *maxDepth,
			MaxNodes:          *maxNodes,
		}
		o.Logger.Debug("Starting", "max-depth", *maxDepth, "max-nodes", *maxNodes)
		return nil
	})
	controllers.Setup(ctx, app, o)

	_, err := app.Parse(args)
	if zl != nil {
		_ = zl.Sync()
	}
	return err
}

// newZapLogger logs to stderr so that command output on stdout stays
// parseable.
func newZapLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
