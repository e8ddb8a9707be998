package validator

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
)

// reparseForTypeCheck re-parses source with a fresh FileSet for
// go/types, which needs position info independent of the Gate 2 walk.
func reparseForTypeCheck(source string) (*token.FileSet, *ast.File, *Rejection) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", source, 0)
	if err != nil {
		return nil, nil, astParseFailed(err)
	}
	return fset, file, nil
}

// compileCheck type-checks file in-memory against the standard
// library's export data. No persistence occurs here; this only proves
// new_source is valid, well-typed Go.
func compileCheck(fset *token.FileSet, file *ast.File) *Rejection {
	var firstErr error
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			if firstErr == nil {
				firstErr = err
			}
		},
	}

	info := &types.Info{}
	_, _ = conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	if firstErr != nil {
		return compilationFailed(firstErr.Error())
	}
	return nil
}
