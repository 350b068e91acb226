package main

import (
	"context"
	"os"
	"strings"

	"taskflow-cli/internal/cli"
	"taskflow-cli/internal/model"
)

func isTaskID(s string) bool {
	_, err := model.ParseTaskID(s)
	return err == nil
}

// rewriteDirectTaskLookupArgs makes `taskflow <id>` work like `taskflow tasks show <id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first (`taskflow --api-url ... 42`), so the first
// positional token is located rather than assuming argv[1].
func rewriteDirectTaskLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--api-url": true,
		"--format":  true,
		"--timeout": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags and --flag=value consume no extra token.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		if isTaskID(a) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "tasks", "show")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}
	return argv
}

func main() {
	args := rewriteDirectTaskLookupArgs(os.Args)
	if err := cli.Execute(context.Background(), args[1:]); err != nil {
		os.Exit(1)
	}
}
