package main

import (
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// methodView is a Method pre-rendered for the template.
type methodView struct {
	Name       string
	ParamList  string
	ResultList string
	CallArgs   string
	HasResults bool

	// OnError is the statement run when construction fails: a return of
	// zero values plus err when the last result is error, a panic otherwise.
	OnError string
}

// templateData is the input passed to the Go template.
type templateData struct {
	Spec    *Spec
	Imports []ImportSpec
	Methods []methodView
}

func newMethodView(m Method) methodView {
	params := make([]string, len(m.Params))
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		if p.Variadic {
			params[i] = p.Name + " ..." + p.Type
			args[i] = p.Name + "..."
			continue
		}
		params[i] = p.Name + " " + p.Type
		args[i] = p.Name
	}

	results := make([]string, len(m.Returns))
	for i, r := range m.Returns {
		results[i] = r.Type
	}

	view := methodView{
		Name:       m.Name,
		ParamList:  strings.Join(params, ", "),
		CallArgs:   strings.Join(args, ", "),
		HasResults: len(results) > 0,
		OnError:    "panic(err)",
	}

	switch len(results) {
	case 0:
	case 1:
		view.ResultList = results[0]
	default:
		view.ResultList = "(" + strings.Join(results, ", ") + ")"
	}

	if n := len(results); n > 0 && results[n-1] == "error" {
		zeros := make([]string, 0, n)
		for _, r := range results[:n-1] {
			zeros = append(zeros, "*new("+r+")")
		}
		zeros = append(zeros, "err")
		view.OnError = "return " + strings.Join(zeros, ", ")
	}
	return view
}

// render produces the gofmt'ed wrapper source for spec.
func render(spec *Spec, imports []ImportSpec) ([]byte, error) {
	data := templateData{Spec: spec, Imports: imports}
	for _, m := range spec.Methods {
		data.Methods = append(data.Methods, newMethodView(m))
	}

	var out strings.Builder
	if err := genTemplate.Execute(&out, data); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}

	src, err := format.Source([]byte(out.String()))
	if err != nil {
		return nil, errors.Wrapf(err, "format generated %s", spec.WrapperName)
	}
	return src, nil
}

// genTemplate is the Go source template used to generate the wrapper.
var genTemplate = template.Must(
	template.New("lazygen").Parse(`// Code generated by lazygen; DO NOT EDIT.

package {{.Spec.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)

// {{.Spec.WrapperName}} is a {{.Spec.Interface}} that constructs the real
// implementation on its first method call.
type {{.Spec.WrapperName}} struct {
	proxy *lazy.Proxy[{{.Spec.Interface}}]
}

var _ {{.Spec.Interface}} = (*{{.Spec.WrapperName}})(nil)

// New{{.Spec.WrapperName}} returns a {{.Spec.WrapperName}}. factory is not called until a
// method is used.
func New{{.Spec.WrapperName}}(factory func() ({{.Spec.Interface}}, error), opts ...lazy.Option) *{{.Spec.WrapperName}} {
{{- if .Spec.Emitter}}
	opts = append([]lazy.Option{lazy.WithEventEmitter()}, opts...)
{{- end}}
	return &{{.Spec.WrapperName}}{proxy: lazy.NewWithError(factory, opts...)}
}

// Proxy returns the lazy slot behind the wrapper.
func (w *{{.Spec.WrapperName}}) Proxy() *lazy.Proxy[{{.Spec.Interface}}] { return w.proxy }
{{range .Methods}}
func (w *{{$.Spec.WrapperName}}) {{.Name}}({{.ParamList}}) {{.ResultList}} {
	inst, err := w.proxy.Get()
	if err != nil {
		{{.OnError}}
	}
	{{if .HasResults}}return {{end}}inst.{{.Name}}({{.CallArgs}})
}
{{end}}`),
)

// tempFile is the part of *os.File writeFileAtomic uses.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// fsOps are the filesystem calls behind writeFileAtomic; tests replace them.
var fsOps = struct {
	createTemp func(dir, pattern string) (tempFile, error)
	chmod      func(name string, mode os.FileMode) error
	rename     func(oldpath, newpath string) error
	remove     func(name string) error
}{
	createTemp: func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) },
	chmod:      os.Chmod,
	rename:     os.Rename,
	remove:     os.Remove,
}

// writeFileAtomic replaces targetPath with data through a hidden temp file in
// the same directory, so readers and the go tool never see a partial file.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) error {
	tmp, err := fsOps.createTemp(filepath.Dir(targetPath), "."+filepath.Base(targetPath)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if err := commitTemp(tmp, data, perm, targetPath); err != nil {
		_ = fsOps.remove(tmp.Name())
		return err
	}
	return nil
}

// commitTemp fills tmp, closes it and moves it over targetPath.
func commitTemp(tmp tempFile, data []byte, perm os.FileMode, targetPath string) error {
	_, err := tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := fsOps.chmod(tmp.Name(), perm); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}
	return errors.Wrap(fsOps.rename(tmp.Name(), targetPath), "replace output")
}
