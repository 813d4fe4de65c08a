// Package ambientnow provides a linter that flags direct time.Now() calls.
//
// Follow-up classification depends on "today", so code reads the clock through an
// injected func() time.Time. Passing time.Now as a value (the default clock) is fine;
// calling it inline is not.
package ambientnow

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports time.Now() calls that bypass an injected clock.
var Analyzer = &analysis.Analyzer{
	Name: "ambientnow",
	Doc:  "checks for direct time.Now() calls; read the clock through an injected func() time.Time",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename
		if strings.HasSuffix(filename, "_test.go") {
			continue
		}

		suppressed := nolintLines(pass, file)

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || !isTimeNow(pass, call) {
				return true
			}
			if suppressed[pass.Fset.Position(call.Pos()).Line] {
				return true
			}
			pass.Reportf(call.Pos(), "direct time.Now() call; use an injected clock")
			return true
		})
	}
	return nil, nil
}

// isTimeNow reports whether call is time.Now() from the standard time package,
// whatever name the package was imported under.
func isTimeNow(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Now" {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return false
	}
	return pkgName.Imported().Path() == "time"
}

// nolintLines returns the lines covered by a //nolint or //nolint:ambientnow comment.
// A comment covers its own line and the line below it.
func nolintLines(pass *analysis.Pass, file *ast.File) map[int]bool {
	lines := make(map[int]bool)
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
			if !strings.HasPrefix(text, "nolint") {
				continue
			}
			rest := strings.TrimPrefix(text, "nolint")
			if strings.HasPrefix(rest, ":") && !strings.Contains(strings.Fields(rest)[0], "ambientnow") {
				continue
			}
			line := pass.Fset.Position(c.Pos()).Line
			lines[line] = true
			lines[line+1] = true
		}
	}
	return lines
}
