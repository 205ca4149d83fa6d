package engine

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"kiteready/internal/fileutil"
)

// lockHeld reports whether another process holds the engine's lock file.
// A missing lock file means no holder.
func lockHeld(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock file: %w", err)
	}

	lock := flock.New(path)
	acquired, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock file: %w", err)
	}
	if acquired {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// readPID returns the pid recorded in path, or 0 when the file is absent.
func readPID(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q holds %q", path, text)
	}
	return pid, nil
}

// pidAlive reports whether the process in the pid file exists.
func pidAlive(path string) (bool, error) {
	pid, err := readPID(path)
	if err != nil || pid == 0 {
		return false, err
	}
	switch err := unix.Kill(pid, 0); {
	case err == nil, errors.Is(err, unix.EPERM):
		return true, nil
	case errors.Is(err, unix.ESRCH):
		return false, nil
	default:
		return false, fmt.Errorf("signal pid %d: %w", pid, err)
	}
}

// launchDetached starts the engine in its own session and forgets it. The
// returned pid is the started process.
func launchDetached(path string, args []string) (int, error) {
	proc := exec.Command(path, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch engine: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}

// writePID records pid in path so the pid fallback and stop can find the
// engine when it keeps no pid file of its own.
func writePID(path string, pid int) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := fileutil.WriteAtomic(path, strings.NewReader(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file %q: %w", path, err)
	}
	return nil
}

// terminate sends SIGTERM to the pid recorded in pidPath and removes the
// pid and lock files.
func terminate(pidPath, lockPath string) (int, error) {
	pid, err := readPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, fmt.Errorf("unable to determine engine pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return 0, fmt.Errorf("signal engine process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}
