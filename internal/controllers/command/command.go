// Package command holds what the commands of the CLI share: their options
// and the loading of OpenAPI documents.
package command

import (
	"context"
	"fmt"
	"io"

	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"github.com/stoewer/go-strcase"

	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
	"github.com/krateoplatformops/oascontracts/internal/tools/specloader"
)

// Options are filled in by main before a command runs.
type Options struct {
	Logger     logging.Logger
	Out        io.Writer
	Conversion *oas2datatype.Config
}

// Load fetches and parses the document at src. Parser warnings, such as
// circular references, are logged.
func (o *Options) Load(ctx context.Context, src string) (oas2datatype.OASDocument, error) {
	o.Logger.Debug("Loading document", "source", src)
	doc, err := specloader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, w := range doc.Warnings() {
		o.Logger.Debug("Document warning", "source", src, "warning", w.Error())
	}
	return doc, nil
}

// Printf writes a line of command output.
func (o *Options) Printf(format string, args ...any) {
	fmt.Fprintf(o.Out, format+"\n", args...)
}

// AppName names the binary and prefixes its environment variables.
const AppName = "oascontracts"

// Envar names the environment variable holding the default of flag, as in
// OASCONTRACTS_BASE_URL for base-url.
func Envar(flag string) string {
	return strcase.UpperSnakeCase(AppName + "_" + flag)
}
