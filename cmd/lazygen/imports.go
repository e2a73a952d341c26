package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ownerFile is the Go file whose go:generate directive runs lazygen. Its
// imports are reused for method types when the spec lists none.
type ownerFile struct {
	path    string
	imports []ImportSpec
}

// findOwner returns the source file in dir with a go:generate directive that
// runs lazygen. Files that fail to parse are skipped.
func findOwner(dir string) (*ownerFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read package dir")
	}

	fileSet := token.NewFileSet()
	for _, entry := range entries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		file, err := parser.ParseFile(fileSet, filePath, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil || !runsLazygen(file) {
			continue
		}
		return &ownerFile{path: filePath, imports: fileImports(file)}, nil
	}
	return nil, errors.Errorf("no go:generate directive running lazygen in %s", dir)
}

func runsLazygen(file *ast.File) bool {
	for _, group := range file.Comments {
		for _, c := range group.List {
			if strings.HasPrefix(c.Text, "//go:generate ") && strings.Contains(c.Text, "lazygen") {
				return true
			}
		}
	}
	return false
}

// isSourceFile reports whether name is a non-test, non-generated Go file.
func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, ".gen.go")
}

func fileImports(file *ast.File) []ImportSpec {
	imports := make([]ImportSpec, 0, len(file.Imports))
	for _, imp := range file.Imports {
		spec := ImportSpec{Path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			spec.Alias = imp.Name.Name
		}
		imports = append(imports, spec)
	}
	return imports
}

var majorVersionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// importIdent returns the identifier an import is referred to by in code.
// Without an alias this is a best guess from the path: the last element,
// skipping a /vN major version and dropping a gopkg.in style .vN suffix.
func importIdent(imp ImportSpec) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	p := strings.TrimSpace(imp.Path)
	base := path.Base(p)
	if majorVersionSuffix.MatchString(base) {
		base = path.Base(path.Dir(p))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	return strings.TrimPrefix(base, "go-")
}

// importSet holds the imports of one generated file, keyed by the identifier
// the code refers to them by.
type importSet map[string]ImportSpec

// add records imp. Adding a second path under an identifier already taken is
// an error: the generated file would not compile.
func (s importSet) add(imp ImportSpec) error {
	ident := importIdent(imp)
	if prev, taken := s[ident]; taken {
		if prev.Path == imp.Path {
			return nil
		}
		return errors.Errorf("import name %s is ambiguous: %q and %q", ident, prev.Path, imp.Path)
	}
	s[ident] = imp
	return nil
}

// sorted returns the imports ordered by path, then alias.
func (s importSet) sorted() []ImportSpec {
	out := make([]ImportSpec, 0, len(s))
	for _, imp := range s {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// methodUsesPkgQualifier returns true if any method param/return contains "pkg.".
func methodUsesPkgQualifier(methods []Method, pkg string) bool {
	qualifier := regexp.MustCompile(`(^|[^A-Za-z0-9_.])` + regexp.QuoteMeta(pkg) + `\.`)
	for _, m := range methods {
		for _, p := range m.Params {
			if qualifier.MatchString(p.Type) {
				return true
			}
		}
		for _, r := range m.Returns {
			if qualifier.MatchString(r.Type) {
				return true
			}
		}
	}
	return false
}

// usedImports keeps only the candidates referenced by method types, in
// candidate order. Blank and dot imports are dropped. Two used candidates
// sharing an identifier are reported, since nothing tells which one a method
// type means.
func usedImports(candidates []ImportSpec, methods []Method) ([]ImportSpec, error) {
	set := importSet{}
	var out []ImportSpec
	for _, imp := range candidates {
		if imp.Alias == "_" || imp.Alias == "." {
			continue
		}
		ident := importIdent(imp)
		if !methodUsesPkgQualifier(methods, ident) {
			continue
		}
		if _, seen := set[ident]; !seen {
			out = append(out, imp)
		}
		if err := set.add(imp); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolveImports builds the final imports list for the generated file.
//
// spec.Imports are used as given. Without them, the owner file's imports are
// used, filtered to the packages method types reference. The lazy runtime is
// always imported under the name lazy.
func resolveImports(owner *ownerFile, spec *Spec) ([]ImportSpec, error) {
	set := importSet{}

	imports := spec.Imports
	if len(imports) == 0 && owner != nil {
		used, err := usedImports(owner.imports, spec.Methods)
		if err != nil {
			return nil, errors.Wrapf(err, "imports of %s", owner.path)
		}
		imports = used
	}
	for _, imp := range imports {
		if err := set.add(imp); err != nil {
			return nil, err
		}
	}

	runtime := ImportSpec{Path: spec.LazyImport}
	if importIdent(runtime) != "lazy" {
		runtime.Alias = "lazy"
	}
	if err := set.add(runtime); err != nil {
		return nil, errors.Wrap(err, "lazy runtime import")
	}
	return set.sorted(), nil
}
