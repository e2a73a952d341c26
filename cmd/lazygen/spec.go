package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// defaultLazyImport is the runtime package generated wrappers build on.
const defaultLazyImport = "github.com/sghaida/lazyproxy/lazy"

// Param is one method parameter. For a variadic parameter, Type is the element
// type (int for ...int).
type Param struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type" yaml:"type" toml:"type"`
	Variadic bool   `json:"variadic" yaml:"variadic" toml:"variadic"`
}

// Return is one method result.
type Return struct {
	Type string `json:"type" yaml:"type" toml:"type"`
}

// Method describes one forwarded method of the interface.
type Method struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Params  []Param  `json:"params" yaml:"params" toml:"params"`
	Returns []Return `json:"returns" yaml:"returns" toml:"returns"`
}

// ImportSpec models one Go import: optional alias and full import path.
type ImportSpec struct {
	Alias string `json:"alias" yaml:"alias" toml:"alias"`
	Path  string `json:"path" yaml:"path" toml:"path"`
}

// Spec is the full input schema consumed by the generator.
//
// Example (YAML):
//
//	package: counter
//	interface: Counter
//	methods:
//	  - name: Inc
//	  - name: Get
//	    returns: [{type: int}]
type Spec struct {
	Package   string `json:"package" yaml:"package" toml:"package"`
	Interface string `json:"interface" yaml:"interface" toml:"interface"`

	// WrapperName defaults to Lazy<Interface>.
	WrapperName string `json:"wrapperName" yaml:"wrapperName" toml:"wrapperName"`

	// Out is the output path, relative to the spec file. Defaults to
	// <interface>_lazy.gen.go next to the spec.
	Out string `json:"out" yaml:"out" toml:"out"`

	// Emitter makes the generated constructor add lazy.WithEventEmitter.
	Emitter bool `json:"emitter" yaml:"emitter" toml:"emitter"`

	// LazyImport overrides the runtime import path.
	LazyImport string `json:"lazyImport" yaml:"lazyImport" toml:"lazyImport"`

	// Imports are extra imports referenced by method types. When empty, they
	// are read from the package's go:generate owner file.
	Imports []ImportSpec `json:"imports" yaml:"imports" toml:"imports"`

	Methods []Method `json:"methods" yaml:"methods" toml:"methods"`
}

// decodeSpecFile reads a spec, choosing the decoder by file extension.
func decodeSpecFile(path string) (*Spec, error) {
	var spec Spec

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &spec); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open spec")
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			if err == nil {
				return nil, errors.Errorf("decode %s: unexpected extra YAML document", path)
			}
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read spec")
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, errors.Errorf("decode %s: unexpected extra content after JSON document", path)
		}
	default:
		return nil, errors.Errorf("unsupported spec file type %q (supported: .json, .yaml, .yml, .toml)", ext)
	}

	return &spec, nil
}

// reservedIdents are used by the generated method bodies.
var reservedIdents = map[string]struct{}{"w": {}, "inst": {}, "err": {}}

// applyDefaults fills optional fields, names anonymous parameters and renames
// parameters that clash with identifiers of the generated method bodies.
func applyDefaults(spec *Spec) {
	if strings.TrimSpace(spec.WrapperName) == "" {
		spec.WrapperName = "Lazy" + spec.Interface
	}
	if strings.TrimSpace(spec.LazyImport) == "" {
		spec.LazyImport = defaultLazyImport
	}
	for i := range spec.Methods {
		for j := range spec.Methods[i].Params {
			p := &spec.Methods[i].Params[j]
			if p.Name == "" || p.Name == "_" {
				p.Name = fmt.Sprintf("arg%d", j)
			}
			if _, clash := reservedIdents[p.Name]; clash {
				p.Name += "Arg"
			}
		}
	}
}

// validateSpec checks the semantic correctness of spec after applyDefaults.
func validateSpec(spec *Spec) error {
	var missing []string
	requireNonEmpty := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	requireNonEmpty("package", spec.Package)
	requireNonEmpty("interface", spec.Interface)
	if len(spec.Methods) == 0 {
		missing = append(missing, "methods (must have at least 1)")
	}
	if len(missing) > 0 {
		return errors.Errorf("spec missing required fields: %v", missing)
	}

	for _, ident := range []string{spec.Package, spec.Interface, spec.WrapperName} {
		if !token.IsIdentifier(ident) {
			return errors.Errorf("invalid identifier %q", ident)
		}
	}

	if spec.WrapperName == spec.Interface {
		return errors.Errorf("wrapperName %q must differ from the interface name", spec.WrapperName)
	}

	seen := make(map[string]struct{}, len(spec.Methods))
	for _, m := range spec.Methods {
		if !token.IsExported(m.Name) || !token.IsIdentifier(m.Name) {
			return errors.Errorf("method name %q must be an exported identifier", m.Name)
		}
		if m.Name == "Proxy" {
			return errors.Errorf("method name %q clashes with the generated accessor", m.Name)
		}
		if _, dup := seen[m.Name]; dup {
			return errors.Errorf("duplicate method: %s", m.Name)
		}
		seen[m.Name] = struct{}{}

		if err := validateParams(m); err != nil {
			return err
		}
		for _, r := range m.Returns {
			if strings.TrimSpace(r.Type) == "" {
				return errors.Errorf("method %s: every return needs a type", m.Name)
			}
		}
	}
	return nil
}

func validateParams(m Method) error {
	names := make(map[string]struct{}, len(m.Params))
	for i, p := range m.Params {
		if strings.TrimSpace(p.Type) == "" {
			return errors.Errorf("method %s: param %q needs a type", m.Name, p.Name)
		}
		if !token.IsIdentifier(p.Name) {
			return errors.Errorf("method %s: invalid param name %q", m.Name, p.Name)
		}
		if _, dup := names[p.Name]; dup {
			return errors.Errorf("method %s: duplicate param %q", m.Name, p.Name)
		}
		names[p.Name] = struct{}{}
		if p.Variadic && i != len(m.Params)-1 {
			return errors.Errorf("method %s: only the last param can be variadic", m.Name)
		}
	}
	return nil
}
