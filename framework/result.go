package framework

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of a test run to standard output.
func PrintResults(results Results) {
	skipped := 0
	for _, result := range results.Tests {
		if result.Skipped {
			skipped++
		}
	}
	if results.OK() {
		color.Green("All tests passed (%d run, %d skipped)", len(results.Tests)-skipped, skipped)
		return
	}
	color.Red("Failures (%d/%d):", len(results.Failures), len(results.Tests))
	for _, failure := range results.Failures {
		fmt.Printf("  %s\n", failure.TestID)
		for _, err := range failure.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
}
