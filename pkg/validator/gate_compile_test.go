package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCheckValid(t *testing.T) {
	src := `package greeter

import "strings"

func Greet(name string) string {
	return strings.TrimSpace(name)
}
`
	fset, file, rej := reparseForTypeCheck(src)
	require.Nil(t, rej)
	got := compileCheck(fset, file)
	assert.Nil(t, got)
}

func TestCompileCheckTypeError(t *testing.T) {
	src := `package greeter

func Greet() string {
	var x int = "not an int"
	return x
}
`
	fset, file, rej := reparseForTypeCheck(src)
	require.Nil(t, rej)
	got := compileCheck(fset, file)
	require.NotNil(t, got)
	assert.Contains(t, got.Reason, "compilation_failed")
}

func TestReparseForTypeCheckUnparseable(t *testing.T) {
	_, _, rej := reparseForTypeCheck("not valid go {{{")
	require.NotNil(t, rej)
	assert.Contains(t, rej.Reason, "ast_parse_failed")
}
