// Package restdefinition registers the commands that work on the operations
// of a document: contracts, mock and verify.
package restdefinition

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/krateoplatformops/oascontracts/internal/controllers/command"
	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
	"github.com/krateoplatformops/oascontracts/internal/tools/mockserver"
	"github.com/krateoplatformops/oascontracts/internal/tools/verifier"
)

const (
	contractsCommand = "contracts"
	mockCommand      = "mock"
	verifyCommand    = "verify"

	shutdownTimeout = 5 * time.Second
)

func Setup(ctx context.Context, app *kingpin.Application, o *command.Options) {
	cc := app.Command(contractsCommand, "Print the request/response contracts of a document as YAML.")
	ccSource := sourceFlags(cc)
	cc.Action(func(*kingpin.ParseContext) error {
		log := o.Logger.WithValues("command", contractsCommand)
		set, err := ccSource.load(ctx, o, log)
		if err != nil {
			return err
		}
		b, err := set.YAML()
		if err != nil {
			return err
		}
		_, err = o.Out.Write(b)
		return err
	})

	mc := app.Command(mockCommand, "Serve responses that satisfy the contracts of a document.")
	mcSource := sourceFlags(mc)
	listen := mc.Flag("listen", "Address the mock server listens on.").Envar(command.Envar("listen")).Default(":8080").String()
	mc.Action(func(*kingpin.ParseContext) error {
		log := o.Logger.WithValues("command", mockCommand)
		set, err := mcSource.load(ctx, o, log)
		if err != nil {
			return err
		}
		return serve(ctx, set, *listen, log)
	})

	vc := app.Command(verifyCommand, "Send generated requests to a service and check its responses against the contracts of a document.")
	vcSource := sourceFlags(vc)
	baseURL := vc.Flag("base-url", "URL of the service under test.").Envar(command.Envar("base-url")).Required().String()
	statusHeader := vc.Flag("status-header", "Header carrying the expected status, so that every contract is verified.").Envar(command.Envar("status-header")).String()
	attempts := vc.Flag("attempts", "Attempts per request when no response is received.").Envar(command.Envar("attempts")).Default("3").Uint()
	delay := vc.Flag("delay", "Delay between attempts, such as 300ms or 2s.").Envar(command.Envar("delay")).Default("500ms").Duration()
	timeout := vc.Flag("timeout", "Timeout of each request.").Envar(command.Envar("timeout")).Default("30s").Duration()
	headers := vc.Flag("header", "Header added to every request, as name=value. Repeatable.").Short('H').StringMap()
	vc.Action(func(*kingpin.ParseContext) error {
		log := o.Logger.WithValues("command", verifyCommand)
		set, err := vcSource.load(ctx, o, log)
		if err != nil {
			return err
		}

		cfg := verifier.DefaultConfig(*baseURL)
		cfg.Client.Timeout = *timeout
		cfg.Attempts = *attempts
		cfg.Delay = *delay
		cfg.StatusHeader = *statusHeader
		cfg.Header = http.Header{}
		for k, v := range *headers {
			cfg.Header.Set(k, v)
		}
		return report(o, verifier.New(cfg, log).Verify(ctx, set))
	})
}

type source struct {
	path      *string
	methods   *[]string
	mimeTypes *[]string
}

func sourceFlags(cmd *kingpin.CmdClause) *source {
	return &source{
		path:      cmd.Arg("source", "Path or URL of the OpenAPI document.").Required().String(),
		methods:   cmd.Flag("method", "Method to include, '*' for all. Repeatable.").Short('m').Default("*").Strings(),
		mimeTypes: cmd.Flag("mime-type", "Media type contracts are built for. Repeatable.").Default("application/json").Strings(),
	}
}

// load builds the contracts of the document, keeping the selected methods.
func (s *source) load(ctx context.Context, o *command.Options, log logging.Logger) (*contracts.Set, error) {
	doc, err := o.Load(ctx, *s.path)
	if err != nil {
		return nil, err
	}

	cfg := contracts.DefaultConfig()
	cfg.Conversion = o.Conversion
	cfg.AcceptedMIMETypes = *s.mimeTypes
	set, err := contracts.Build(doc, cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range set.Warnings {
		log.Info("Contract warning", "warning", w.Error())
	}

	methods, err := expandWildcardMethods(*s.methods, methodsOf(set))
	if err != nil {
		return nil, err
	}
	set = withMethods(set, methods)
	log.Debug("Contracts built", "source", *s.path, "contracts", len(set.Contracts))
	return set, nil
}

// serve runs a mock server until ctx is done.
func serve(ctx context.Context, set *contracts.Set, addr string, log logging.Logger) error {
	handler, err := mockserver.New(set, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("Mock server started", "address", addr, "contracts", len(set.Contracts), "metrics", mockserver.MetricsPath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock server failed: %w", err)
	case <-ctx.Done():
		log.Info("Shutting down mock server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func report(o *command.Options, r *verifier.Report) error {
	for _, out := range r.Outcomes {
		verdict := "PASS"
		if !out.Passed() {
			verdict = "FAIL"
		}
		o.Printf("%s %s %s %d %s", verdict, out.Method, out.Path, out.Status, out.Contract)
		for _, e := range out.Errors {
			o.Printf("  - %s", e)
		}
	}
	failed := r.Failed()
	o.Printf("%d passed, %d failed", len(r.Outcomes)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(r.Outcomes))
	}
	return nil
}
