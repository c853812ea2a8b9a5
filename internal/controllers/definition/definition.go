// Package definition registers the commands that work on the schemas of a
// document: validate and generate.
package definition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"gopkg.in/alecthomas/kingpin.v2"
	"sigs.k8s.io/yaml"

	"github.com/krateoplatformops/oascontracts/internal/controllers/command"
	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

const (
	validateCommand = "validate"
	generateCommand = "generate"

	errInvalidDocument = "document is invalid"
)

func Setup(ctx context.Context, app *kingpin.Application, o *command.Options) {
	validate := app.Command(validateCommand, "Check that every schema and operation of a document converts into data types.")
	validateSource := validate.Arg("source", "Path or URL of the OpenAPI document.").Required().String()
	validate.Action(func(*kingpin.ParseContext) error {
		v := &validator{opts: o, log: o.Logger.WithValues("command", validateCommand)}
		return v.run(ctx, *validateSource)
	})

	generate := app.Command(generateCommand, "Print random values that satisfy the schemas of a document.")
	generateSource := generate.Arg("source", "Path or URL of the OpenAPI document.").Required().String()
	g := &generator{opts: o}
	generate.Flag("schema", "Schema to generate values for, all when omitted. Repeatable.").Short('s').StringsVar(&g.schemas)
	generate.Flag("count", "Number of values per schema.").Short('n').Default("1").IntVar(&g.count)
	generate.Flag("output", "Output format.").Short('o').Envar(command.Envar("output")).Default("yaml").EnumVar(&g.format, "yaml", "json")
	generate.Action(func(*kingpin.ParseContext) error {
		g.log = o.Logger.WithValues("command", generateCommand)
		return g.run(ctx, *generateSource)
	})
}

type validator struct {
	opts *command.Options
	log  logging.Logger
}

func (v *validator) run(ctx context.Context, src string) error {
	doc, err := v.opts.Load(ctx, src)
	if err != nil {
		return err
	}
	reg := oas2datatype.NewRegistry(v.opts.Conversion)
	if err := reg.Load(doc); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	invalid := 0
	for _, name := range reg.Names() {
		res := reg.Named(name)
		v.log.Debug("Schema converted", "schema", name, "nodes", reg.Visited())
		if errs, ok := result.AsFailure(oas2datatype.NewConversionError(name, res)); ok {
			invalid++
			v.opts.Printf("%s: invalid", name)
			for _, e := range errs {
				v.opts.Printf("  - %s", e)
			}
			continue
		}
		v.opts.Printf("%s: ok (%s)", name, datatypes.Resolve(res.Value()).Kind())
	}
	v.log.Debug("Schemas converted", "total", len(reg.Names()), "invalid", invalid)
	if invalid > 0 {
		v.opts.Printf("%d of %d schemas are invalid", invalid, len(reg.Names()))
		return errors.New(errInvalidDocument)
	}

	cfg := contracts.DefaultConfig()
	cfg.Conversion = v.opts.Conversion
	set, err := contracts.Build(doc, cfg)
	if err != nil {
		v.opts.Printf("operations: invalid")
		v.opts.Printf("  - %s", err)
		return errors.New(errInvalidDocument)
	}
	for _, w := range set.Warnings {
		v.opts.Printf("warning: %s", w)
	}
	v.opts.Printf("%d schemas and %d contracts are valid", len(reg.Names()), len(set.Contracts))
	return nil
}

type generator struct {
	opts    *command.Options
	log     logging.Logger
	schemas []string
	count   int
	format  string
}

func (g *generator) run(ctx context.Context, src string) error {
	if g.count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", g.count)
	}
	doc, err := g.opts.Load(ctx, src)
	if err != nil {
		return err
	}
	reg := oas2datatype.NewRegistry(g.opts.Conversion)
	if err := reg.Load(doc); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	names := g.schemas
	if len(names) == 0 {
		names = reg.Names()
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		if _, ok := reg.Schema(name); !ok {
			return fmt.Errorf("schema '%s' is not declared", name)
		}
		res := reg.Named(name)
		if err := oas2datatype.NewConversionError(name, res); err != nil {
			return err
		}
		dt := res.Value()
		values := make([]any, g.count)
		for i := range values {
			values[i] = datatypes.Plain(dt.RandomValue())
		}
		if g.count == 1 {
			out[name] = values[0]
		} else {
			out[name] = values
		}
		g.log.Debug("Values generated", "schema", name, "count", g.count)
	}

	var b []byte
	switch g.format {
	case "json":
		b, err = json.MarshalIndent(out, "", "  ")
	default:
		b, err = yaml.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("failed to encode values: %w", err)
	}
	_, err = g.opts.Out.Write(append(b, '\n'))
	return err
}
