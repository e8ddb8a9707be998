package validator

import "fmt"

// Rejection is a structured gate failure. Gate names the gate that
// produced it and Reason carries the tagged failure detail; both are
// always populated.
type Rejection struct {
	Gate   string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("validator: gate %s rejected: %s", r.Gate, r.Reason)
}

func tooManyChanges(changed, cap int) *Rejection {
	return &Rejection{Gate: "size_limit", Reason: fmt.Sprintf("too_many_changes(changed=%d, cap=%d)", changed, cap)}
}

func astParseFailed(err error) *Rejection {
	return &Rejection{Gate: "ast_allowlist", Reason: fmt.Sprintf("ast_parse_failed: %v", err)}
}

func disallowedModule(pkg string) *Rejection {
	return &Rejection{Gate: "ast_allowlist", Reason: fmt.Sprintf("disallowed_module(%s)", pkg)}
}

func bannedFunction(name string) *Rejection {
	return &Rejection{Gate: "ast_allowlist", Reason: fmt.Sprintf("banned_function(%s)", name)}
}

func bannedRuntime(pkg string) *Rejection {
	return &Rejection{Gate: "ast_allowlist", Reason: fmt.Sprintf("banned_runtime(%s)", pkg)}
}

func moduleLevelSideEffects(n int) *Rejection {
	return &Rejection{Gate: "module_level_side_effects", Reason: fmt.Sprintf("module_level_side_effects(%d)", n)}
}

func compilationFailed(msg string) *Rejection {
	return &Rejection{Gate: "compilation", Reason: fmt.Sprintf("compilation_failed: %s", msg)}
}

func testsFailed(output string) *Rejection {
	return &Rejection{Gate: "test_execution", Reason: fmt.Sprintf("tests_failed: %s", truncate(output, 2000))}
}

func testExecutionFailed(err error) *Rejection {
	return &Rejection{Gate: "test_execution", Reason: fmt.Sprintf("test_execution_failed: %v", err)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
