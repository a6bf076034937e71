//go:build !unix

package host

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killGroup(p *os.Process) error {
	return p.Kill()
}

func exitSignal(*os.ProcessState) string { return "" }
