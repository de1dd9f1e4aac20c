// Package confirm implements the yes/no gate in front of push and pull.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Gate prompts on Out and reads one answer line from In.
type Gate struct {
	In  io.Reader
	Out io.Writer

	// AssumeYes skips the prompt and accepts.
	AssumeYes bool
}

// Prompt returns the question shown for action on vault.
func Prompt(action, vault string) string {
	return fmt.Sprintf("Are you sure you want to %s secrets in the vault '%s'? [y/n]: ", action, vault)
}

// Confirm asks once and returns true only for the answer "y" (any case,
// surrounding whitespace ignored). EOF and read errors count as no.
func (g *Gate) Confirm(action, vault string) bool {
	if g.AssumeYes {
		return true
	}
	fmt.Fprint(g.Out, Prompt(action, vault))

	line, err := bufio.NewReader(g.In).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(g.Out)
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
