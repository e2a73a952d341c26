// cmd/lazygen/main.go
package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// usageError marks invalid flag combinations; run exits with 2 for them.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// overrides are flag values applied on top of a loaded spec.
type overrides struct {
	out     string
	name    string
	pkg     string
	emitter bool
}

func (o overrides) apply(spec *Spec) {
	if o.name != "" {
		spec.WrapperName = o.name
	}
	if o.pkg != "" {
		spec.Package = o.pkg
	}
	if o.emitter {
		spec.Emitter = true
	}
}

func newCommand(stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "lazygen",
		Usage:     "Generate lazily constructed wrappers for Go interfaces",
		UsageText: "lazygen --iface <Name> [--dir <pkg>] [--out <file>]\nlazygen --spec <file.lazy.yaml> [--spec ...]",
		Writer:    stderr,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "spec", Aliases: []string{"s"}, Usage: "spec file (.json, .yaml, .yml, .toml); repeatable"},
			&cli.StringFlag{Name: "iface", Aliases: []string{"i"}, Usage: "interface to wrap, read from --dir"},
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: ".", Usage: "package directory for --iface"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output .gen.go file (single target only)"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "wrapper type name (default Lazy<Interface>)"},
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "package clause of the generated file"},
			&cli.BoolFlag{Name: "emitter", Usage: "attach an event emitter on construction"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{msg: err.Error()}
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := log.NewWithOptions(stderr, log.Options{Prefix: "lazygen"})
			if cmd.Bool("verbose") {
				logger.SetLevel(log.DebugLevel)
			}

			ov := overrides{
				out:     cmd.String("out"),
				name:    cmd.String("name"),
				pkg:     cmd.String("package"),
				emitter: cmd.Bool("emitter"),
			}
			specs := cmd.StringSlice("spec")
			iface := strings.TrimSpace(cmd.String("iface"))

			switch {
			case iface != "" && len(specs) > 0:
				return &usageError{msg: "use only one of --spec or --iface"}
			case iface != "":
				return generateFromInterface(cmd.String("dir"), iface, ov, logger)
			case len(specs) == 0:
				return &usageError{msg: "missing --spec or --iface"}
			case len(specs) > 1 && (ov.out != "" || ov.name != ""):
				return &usageError{msg: "--out and --name need a single --spec"}
			}

			g, ctx := errgroup.WithContext(ctx)
			for _, specPath := range specs {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					return generateFromSpecFile(specPath, ov, logger)
				})
			}
			return g.Wait()
		},
	}
}

// run executes the generator and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newCommand(stderr)
	if err := cmd.Run(ctx, append([]string{"lazygen"}, args...)); err != nil {
		log.NewWithOptions(stderr, log.Options{Prefix: "lazygen"}).Error(err)
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

// generateFromSpecFile loads, completes and generates one spec file. A
// relative spec.Out resolves against the spec file's directory.
func generateFromSpecFile(specPath string, ov overrides, logger *log.Logger) error {
	spec, err := decodeSpecFile(specPath)
	if err != nil {
		return err
	}
	ov.apply(spec)

	specDir := filepath.Dir(specPath)
	outPath := ov.out
	switch {
	case outPath != "":
	case spec.Out != "" && filepath.IsAbs(spec.Out):
		outPath = spec.Out
	case spec.Out != "":
		outPath = filepath.Join(specDir, spec.Out)
	default:
		outPath = filepath.Join(specDir, defaultOutName(spec.Interface))
	}

	logger.Debug("loaded spec", "spec", specPath, "interface", spec.Interface, "methods", len(spec.Methods))
	return generate(spec, outPath, logger)
}

// generateFromInterface reads iface from the package in dir and generates its
// wrapper next to it unless --out says otherwise.
func generateFromInterface(dir, iface string, ov overrides, logger *log.Logger) error {
	spec, err := loadInterfaceSpec(dir, iface)
	if err != nil {
		return err
	}
	ov.apply(spec)

	outPath := ov.out
	if outPath == "" {
		outPath = filepath.Join(dir, defaultOutName(iface))
	}

	logger.Debug("parsed interface", "dir", dir, "interface", iface, "methods", len(spec.Methods))
	return generate(spec, outPath, logger)
}

// generate validates spec and writes the wrapper to outPath.
func generate(spec *Spec, outPath string, logger *log.Logger) error {
	applyDefaults(spec)
	if err := validateSpec(spec); err != nil {
		return err
	}

	generatedFilePath := filepath.Clean(outPath)
	var owner *ownerFile
	if len(spec.Imports) == 0 {
		// Without an owner file only the lazy import is emitted.
		if found, err := findOwner(filepath.Dir(generatedFilePath)); err == nil {
			owner = found
			logger.Debug("owner file", "path", owner.path)
		}
	}

	imports, err := resolveImports(owner, spec)
	if err != nil {
		return err
	}
	src, err := render(spec, imports)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(generatedFilePath, src, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", generatedFilePath)
	}

	logger.Info("generated", "wrapper", spec.WrapperName, "interface", spec.Interface, "out", generatedFilePath)
	return nil
}

// defaultOutName turns FooBar into foo_bar_lazy.gen.go. Runs of capitals
// stay together: HTTPClient becomes httpclient_lazy.gen.go.
func defaultOutName(iface string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range iface {
		upper := unicode.IsUpper(r)
		if upper && prevLower {
			b.WriteByte('_')
		}
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + "_lazy.gen.go"
}
