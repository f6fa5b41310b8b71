//go:build !unix

package backend

import (
	"os"
	"os/exec"
)

func configureProcAttrs(*exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
