package benchmark

import "errors"

// Tool names as recorded in the run's "tool" field.
const (
	ToolGo                    = "go"
	ToolCargo                 = "cargo"
	ToolBenchmarkJS           = "benchmarkjs"
	ToolGoogleCpp             = "googlecpp"
	ToolCustomBiggerIsBetter  = "customBiggerIsBetter"
	ToolCustomSmallerIsBetter = "customSmallerIsBetter"
)

var (
	ErrUnknownTool  = errors.New("unknown benchmark tool")
	ErrNoBenchmarks = errors.New("no benchmark results found in output")
)

// Tools lists the supported tool names.
func Tools() []string {
	return []string{
		ToolGo,
		ToolCargo,
		ToolBenchmarkJS,
		ToolGoogleCpp,
		ToolCustomBiggerIsBetter,
		ToolCustomSmallerIsBetter,
	}
}

// KnownTool reports whether tool is supported.
func KnownTool(tool string) bool {
	for _, t := range Tools() {
		if t == tool {
			return true
		}
	}
	return false
}

// BiggerIsBetter reports whether larger values of the tool's main metric are
// improvements (throughput) rather than regressions (time).
func BiggerIsBetter(tool string) bool {
	switch tool {
	case ToolBenchmarkJS, ToolCustomBiggerIsBetter:
		return true
	}
	return false
}
