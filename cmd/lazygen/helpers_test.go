package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// counterSpecYAML is a spec exercising every forwarding shape: no results, a
// single result, a trailing error, multiple results and a variadic param.
const counterSpecYAML = `package: counter
interface: Counter
methods:
  - name: Inc
  - name: Get
    returns: [{type: int}]
  - name: Add
    params: [{name: n, type: int}]
    returns: [{type: int}, {type: error}]
  - name: Sum
    params: [{name: ns, type: int, variadic: true}]
    returns: [{type: int}]
  - name: Close
    returns: [{type: error}]
`

const counterSpecJSON = `{
  "package": "counter",
  "interface": "Counter",
  "methods": [
    { "name": "Inc" },
    { "name": "Get", "returns": [{ "type": "int" }] },
    { "name": "Add", "params": [{ "name": "n", "type": "int" }], "returns": [{ "type": "int" }, { "type": "error" }] },
    { "name": "Sum", "params": [{ "name": "ns", "type": "int", "variadic": true }], "returns": [{ "type": "int" }] },
    { "name": "Close", "returns": [{ "type": "error" }] }
  ]
}`

const counterSpecTOML = `package = "counter"
interface = "Counter"

[[methods]]
name = "Inc"

[[methods]]
name = "Get"
returns = [{ type = "int" }]

[[methods]]
name = "Add"
params = [{ name = "n", type = "int" }]
returns = [{ type = "int" }, { type = "error" }]

[[methods]]
name = "Sum"
params = [{ name = "ns", type = "int", variadic = true }]
returns = [{ type = "int" }]

[[methods]]
name = "Close"
returns = [{ type = "error" }]
`

// counterSource declares Counter across an embedded interface, with imports
// used and unused by method types.
const counterSource = `package counter

import (
	"context"
	"fmt"
	"time"
)

//go:generate go run ../../cmd/lazygen --iface Counter

type Reader interface {
	Get() int
}

type Counter interface {
	Reader
	Inc()
	Add(ctx context.Context, n int) (total int, err error)
	Sum(ns ...int) int
	Since(t time.Time) time.Duration
}

func describe(c Counter) string { return fmt.Sprint(c.Get()) }
`

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// requireParses fails the test if src is not a valid Go file.
func requireParses(t *testing.T, src string) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors)
	require.NoError(t, err, src)
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// restoreFSOps puts the current filesystem calls back when t ends.
func restoreFSOps(t *testing.T) {
	t.Helper()
	orig := fsOps
	t.Cleanup(func() { fsOps = orig })
}
