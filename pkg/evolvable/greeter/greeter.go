// Package greeter is a small, low-risk evolvable target with no purpose
// beyond being safe practice material for early generations.
package greeter

import "strings"

// Greet returns a friendly greeting for name. name is trimmed and
// defaults to "friend" when empty.
func Greet(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "friend"
	}
	return "Hello, " + name + "!"
}
