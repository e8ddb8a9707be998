package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllStableOrder(t *testing.T) {
	r := New("/app")
	first := r.All()
	second := r.All()
	assert.Equal(t, first, second)
	assert.Len(t, first, 6)
	assert.Equal(t, TargetFitness, first[0].Name)
	assert.Equal(t, TargetGreeter, first[len(first)-1].Name)
}

func TestSelectRoundRobin(t *testing.T) {
	r := New("/app")
	all := r.All()
	for gen := 0; gen < len(all)*3; gen++ {
		got := r.Select(gen)
		want := all[gen%len(all)]
		assert.Equal(t, want, got)
	}
}

func TestSelectNegativeGeneration(t *testing.T) {
	r := New("/app")
	got := r.Select(-1)
	assert.Equal(t, TargetGreeter, got.Name)
}

func TestSourcePathDeterministic(t *testing.T) {
	r := New("/app")
	assert.Equal(t, "/app/pkg/evolvable/fitness/fitness.go", r.SourcePath(TargetFitness))
	assert.Equal(t, "/app/pkg/evolvable/greeter/greeter.go", r.SourcePath(TargetGreeter))
}

func TestTestPathDeterministic(t *testing.T) {
	r := New("/app")
	assert.Equal(t, "/app/pkg/evolvable/router/router_test.go", r.TestPath(TargetRouter))
}

func TestUnknownTarget(t *testing.T) {
	r := New("/app")
	target := r.target("does-not-exist")
	assert.Equal(t, TargetName("does-not-exist"), target.Name)
	assert.Empty(t, target.SourcePath)
}
