package validator

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// defaultTestTimeout bounds the child `go test` invocation so a hung
// or infinite-looping candidate can't stall a generation forever.
const defaultTestTimeout = 60 * time.Second

// runTests runs the test suite in packageDir — a staged scratch copy
// of the candidate, never the target's real on-disk directory — in a
// child process with clean stdout/stderr capture. Zero exit code
// passes; any other exit code fails with the captured output; a spawn
// failure is reported distinctly.
func runTests(packageDir string) *Rejection {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "test", "./...")
	cmd.Dir = packageDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return testsFailed(out.String())
	}
	return testExecutionFailed(err)
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
