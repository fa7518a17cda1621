package internalcheck

import (
	"fmt"
	"go/ast"
	"go/constant"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestErrorStringsArePrefixed checks that errors.New, fmt.Errorf and panic
// messages built from constant strings in pkg/alpm start with "alpm: ".
func TestErrorStringsArePrefixed(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, modulePath+"/pkg/alpm")
	if err != nil {
		t.Fatalf("load package: %v", err)
	}

	var findings []string
	checked := 0

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			fset := pkg.Fset
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok || len(call.Args) == 0 || !isMessageCall(pkg, call) {
					return true
				}

				msg := leadingConstant(pkg, call.Args[0])
				if msg == nil {
					return true
				}
				checked++
				if !strings.HasPrefix(*msg, "alpm: ") {
					pos := fset.Position(call.Args[0].Pos())
					findings = append(findings, fmt.Sprintf("%s: message %q lacks the alpm: prefix", pos, *msg))
				}
				return true
			})
		}
	}

	if checked == 0 {
		t.Fatal("no messages inspected")
	}
	if len(findings) > 0 {
		t.Fatalf("error string policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func isMessageCall(pkg *packages.Package, call *ast.CallExpr) bool {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name == "panic" && pkg.TypesInfo.Uses[fun] != nil && pkg.TypesInfo.Uses[fun].Pkg() == nil
	case *ast.SelectorExpr:
		obj := pkg.TypesInfo.Uses[fun.Sel]
		if obj == nil || obj.Pkg() == nil {
			return false
		}
		switch obj.Pkg().Path() + "." + obj.Name() {
		case "errors.New", "fmt.Errorf":
			return true
		}
	}
	return false
}

// leadingConstant returns the constant prefix of expr: the whole value for a
// constant, or the left operand of a string concatenation.
func leadingConstant(pkg *packages.Package, expr ast.Expr) *string {
	for {
		if tv, ok := pkg.TypesInfo.Types[expr]; ok && tv.Value != nil && tv.Value.Kind() == constant.String {
			s := constant.StringVal(tv.Value)
			return &s
		}
		bin, ok := expr.(*ast.BinaryExpr)
		if !ok {
			return nil
		}
		expr = bin.X
	}
}
