package dispatch

import (
	"fmt"
	"os/exec"
)

// Preflight checks that the shell needed by the verify command is on PATH.
// An empty command needs nothing.
func Preflight(verify string) error {
	if verify == "" {
		return nil
	}
	if _, err := exec.LookPath("bash"); err != nil {
		return fmt.Errorf("verify command is configured but bash was not found in PATH")
	}
	return nil
}
