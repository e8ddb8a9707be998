package validator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// importAllowlist is the fixed set of import paths a rewrite may use,
// beyond the evolvable package's own import path. Mirrors the "core
// value/collection/string utilities... concurrency primitives
// explicitly allowed" namespace allowlist.
var importAllowlist = map[string]bool{
	"strings": true, "strconv": true, "sort": true, "math": true,
	"errors": true, "fmt": true, "time": true, "sync": true,
	"sync/atomic": true, "context": true,
}

// bannedRuntimeImports is the denylisted runtime namespace set — the
// Go-idiomatic analogue of the OS shell / reflective runtime /
// filesystem / code loader / networking stack / RPC atoms.
var bannedRuntimeImports = map[string]bool{
	"os/exec": true, "syscall": true, "plugin": true,
	"net": true, "net/rpc": true, "unsafe": true,
}

// bannedQualifiedCalls is the denylist for primitive names: specific
// package.Function calls that are never permitted even if the package
// were otherwise reachable.
var bannedQualifiedCalls = map[string]bool{
	"exec.Command": true, "os.Remove": true, "os.RemoveAll": true,
	"os.Exit": true, "syscall.Exec": true, "plugin.Open": true,
	"net.Dial": true, "net.Listen": true, "unsafe.Pointer": true,
	"reflect.NewAt": true,
}

// astAllowlistWalk parses source and walks its nodes, stopping at the
// first violation found and rejecting with it; later violations are not
// collected, so a rejection reports one violation only (any one is
// sufficient to reject).
func astAllowlistWalk(source string, selfImportPath string) (*Rejection, *ast.File) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", source, parser.ParseComments)
	if err != nil {
		return astParseFailed(err), nil
	}

	// go:linkname directives — can retarget a symbol to arbitrary
	// low-level runtime/linker internals.
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			if strings.Contains(c.Text, "go:linkname") {
				return bannedRuntime("go:linkname"), nil
			}
		}
	}

	// Import allowlist / runtime denylist.
	aliases := map[string]string{} // local alias -> import path
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if bannedRuntimeImports[path] {
			return bannedRuntime(path), nil
		}
		if path != selfImportPath && !importAllowlist[path] {
			return disallowedModule(path), nil
		}
		name := lastSegment(path)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		aliases[name] = path
	}

	var rejection *Rejection
	ast.Inspect(file, func(n ast.Node) bool {
		if rejection != nil {
			return false
		}
		switch node := n.(type) {
		case *ast.GoStmt:
			rejection = bannedRuntime("go statement (goroutine spawn)")
			return false
		case *ast.CallExpr:
			if r := checkCall(node, aliases); r != nil {
				rejection = r
				return false
			}
		}
		return true
	})

	return rejection, file
}

func checkCall(call *ast.CallExpr, aliases map[string]string) *Rejection {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		if bannedFunctionNames[fn.Name] {
			return bannedFunction(fn.Name)
		}
	case *ast.SelectorExpr:
		pkgIdent, ok := fn.X.(*ast.Ident)
		if !ok {
			return nil
		}
		qualified := pkgIdent.Name + "." + fn.Sel.Name
		if bannedQualifiedCalls[qualified] {
			return bannedFunction(qualified)
		}
		if bannedFunctionNames[fn.Sel.Name] {
			return bannedFunction(fn.Sel.Name)
		}
	}
	return nil
}

// bannedFunctionNames is the bare-name counterpart to
// bannedQualifiedCalls: it catches the same primitives called through a
// dot-import (`import . "os"`) or a bound method value, where the call
// site carries no package qualifier for bannedQualifiedCalls to match.
var bannedFunctionNames = map[string]bool{
	"Command": true, "Remove": true, "RemoveAll": true, "Exit": true,
	"Dial": true, "Listen": true, "NewAt": true,
}

func lastSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}
