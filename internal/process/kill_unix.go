//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid.
// pid <= 0 is ignored: -0 would address our own group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// launcher.Kill remains the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
