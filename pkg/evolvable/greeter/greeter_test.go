package greeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreetName(t *testing.T) {
	assert.Equal(t, "Hello, evo!", Greet("evo"))
}

func TestGreetEmptyDefaultsToFriend(t *testing.T) {
	assert.Equal(t, "Hello, friend!", Greet(""))
	assert.Equal(t, "Hello, friend!", Greet("   "))
}

// BenchmarkGreet is the representative call the Benchmarker shells out
// to via `go test -bench` for this target; see pkg/evolvable/bench. Its
// name, and its presence in this file, is itself part of the evolvable
// surface: a rewrite of greeter.go is benchmarked by running this exact
// function against whatever source is on disk at the time.
func BenchmarkGreet(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Greet("evo")
	}
}
