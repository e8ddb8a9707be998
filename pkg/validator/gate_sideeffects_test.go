package validator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, src string) *ast.File {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", src, 0)
	require.NoError(t, err)
	return file
}

func TestModuleLevelSideEffectScanClean(t *testing.T) {
	src := `package greeter

var greeting = "hello"

func Greet() string { return greeting }
`
	rej := moduleLevelSideEffectScan(parseFixture(t, src))
	assert.Nil(t, rej)
}

func TestModuleLevelSideEffectScanInitFunc(t *testing.T) {
	src := `package greeter

func init() {
	println("side effect")
}
`
	rej := moduleLevelSideEffectScan(parseFixture(t, src))
	require.NotNil(t, rej)
	assert.Contains(t, rej.Reason, "module_level_side_effects")
}

func TestModuleLevelSideEffectScanVarCallInitializer(t *testing.T) {
	src := `package greeter

import "time"

var startedAt = time.Now()
`
	rej := moduleLevelSideEffectScan(parseFixture(t, src))
	require.NotNil(t, rej)
	assert.Contains(t, rej.Reason, "module_level_side_effects")
}
