package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// parsedInterface is an interface declaration plus the imports of its file.
type parsedInterface struct {
	decl    *ast.InterfaceType
	imports []ImportSpec
}

// loadInterfaceSpec builds a Spec from the declaration of iface in the Go
// package at dir. Interfaces embedded from the same package are flattened.
func loadInterfaceSpec(dir, iface string) (*Spec, error) {
	pkgName, decls, err := parseInterfaces(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := decls[iface]; !ok {
		return nil, errors.Errorf("interface %s not found in %s", iface, dir)
	}

	spec := &Spec{Package: pkgName, Interface: iface}
	set := importSet{}
	if err := collectMethods(iface, decls, map[string]bool{}, spec, set); err != nil {
		return nil, err
	}
	spec.Imports = set.sorted()
	return spec, nil
}

// parseInterfaces parses the non-test, non-generated files in dir and
// returns the package name and every interface type declared there.
func parseInterfaces(dir string) (string, map[string]parsedInterface, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, errors.Wrap(err, "read package dir")
	}

	fileSet := token.NewFileSet()
	pkgName := ""
	decls := make(map[string]parsedInterface)

	for _, entry := range entries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())
		file, err := parser.ParseFile(fileSet, filePath, nil, parser.SkipObjectResolution)
		if err != nil {
			return "", nil, errors.Wrapf(err, "parse %s", filePath)
		}
		if pkgName == "" {
			pkgName = file.Name.Name
		}

		imports := fileImports(file)
		ast.Inspect(file, func(n ast.Node) bool {
			ts, ok := n.(*ast.TypeSpec)
			if !ok {
				return true
			}
			it, ok := ts.Type.(*ast.InterfaceType)
			if !ok || ts.TypeParams != nil {
				return false
			}
			decls[ts.Name.Name] = parsedInterface{decl: it, imports: imports}
			return false
		})
	}

	if pkgName == "" {
		return "", nil, errors.Errorf("no Go source files in %s", dir)
	}
	return pkgName, decls, nil
}

// collectMethods appends the methods of interface name, embedded ones
// included, to spec. Each declaration's methods are matched against the
// imports of its own file, and the used ones are added to imports.
func collectMethods(name string, decls map[string]parsedInterface, visiting map[string]bool, spec *Spec, imports importSet) error {
	if visiting[name] {
		return errors.Errorf("interface %s embeds itself", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	pi := decls[name]
	var own []Method

	for _, field := range pi.decl.Methods.List {
		switch t := field.Type.(type) {
		case *ast.FuncType:
			for _, ident := range field.Names {
				if !ident.IsExported() {
					return errors.Errorf("interface %s: unexported method %s cannot be forwarded", name, ident.Name)
				}
				m := methodFromFunc(ident.Name, t)
				own = append(own, m)
				appendMethod(spec, m)
			}
		case *ast.Ident:
			if t.Name == "error" {
				appendMethod(spec, Method{Name: "Error", Returns: []Return{{Type: "string"}}})
				continue
			}
			if _, ok := decls[t.Name]; !ok {
				return errors.Errorf("interface %s: embedded %s is not an interface in this package", name, t.Name)
			}
			if err := collectMethods(t.Name, decls, visiting, spec, imports); err != nil {
				return err
			}
		case *ast.SelectorExpr:
			return errors.Errorf("interface %s: embedded %s is declared in another package; describe %s in a spec file instead",
				name, types.ExprString(t), name)
		default:
			return errors.Errorf("interface %s: unsupported embedded element %s", name, types.ExprString(field.Type))
		}
	}

	used, err := usedImports(pi.imports, own)
	if err != nil {
		return errors.Wrapf(err, "interface %s", name)
	}
	for _, imp := range used {
		if err := imports.add(imp); err != nil {
			return errors.Wrapf(err, "interface %s", name)
		}
	}
	return nil
}

// appendMethod adds m unless an embedded interface already contributed a
// method of the same name.
func appendMethod(spec *Spec, m Method) {
	for _, existing := range spec.Methods {
		if existing.Name == m.Name {
			return
		}
	}
	spec.Methods = append(spec.Methods, m)
}

func methodFromFunc(name string, fn *ast.FuncType) Method {
	m := Method{Name: name}

	if fn.Params != nil {
		for _, field := range fn.Params.List {
			typ, variadic := field.Type, false
			if ellipsis, ok := typ.(*ast.Ellipsis); ok {
				typ, variadic = ellipsis.Elt, true
			}
			typeStr := types.ExprString(typ)

			if len(field.Names) == 0 {
				m.Params = append(m.Params, Param{Type: typeStr, Variadic: variadic})
				continue
			}
			for _, ident := range field.Names {
				m.Params = append(m.Params, Param{Name: ident.Name, Type: typeStr, Variadic: variadic})
			}
		}
	}

	if fn.Results != nil {
		for _, field := range fn.Results.List {
			typeStr := types.ExprString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				m.Returns = append(m.Returns, Return{Type: typeStr})
			}
		}
	}
	return m
}
