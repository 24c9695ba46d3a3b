//go:build windows

// SPDX-License-Identifier: BSD-3-Clause

package platform

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

func newAdapter() Adapter { return windowsAdapter{} }

type windowsAdapter struct{}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(\.\d+)?`)

func (windowsAdapter) FindRuntime(ctx context.Context, family string, major, minMinor int) (Runtime, error) {
	var candidates []string
	const probeCeiling = 20
	for minor := probeCeiling; minor >= minMinor; minor-- {
		candidates = append(candidates, fmt.Sprintf("%s%d.%d.exe", family, major, minor))
	}
	candidates = append(candidates, fmt.Sprintf("%s%d.exe", family, major), family+".exe", family)

	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
		if err != nil {
			continue
		}
		m := versionRe.FindSubmatch(out)
		if m == nil {
			continue
		}
		gotMajor, _ := strconv.Atoi(string(m[1]))
		gotMinor, _ := strconv.Atoi(string(m[2]))
		if gotMajor != major || gotMinor < minMinor {
			continue
		}
		return Runtime{Path: path, Major: gotMajor, Minor: gotMinor}, nil
	}
	return Runtime{}, fmt.Errorf("%w: %s>=%d.%d", ErrRuntimeNotFound, family, major, minMinor)
}

// KillTree shells out to taskkill /T (tree) /F (force); Windows has no
// signal-then-escalate story for arbitrary processes, so there is no
// graceful phase here: the tree is force-killed at once and grace is
// ignored.
func (windowsAdapter) KillTree(ctx context.Context, pid int, grace int) error {
	if pid <= 0 {
		return nil
	}
	err := exec.CommandContext(ctx, "taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 128 {
		return nil // taskkill: process not found, already gone
	}
	return fmt.Errorf("%w: %v", ErrKillFailed, err)
}

// PIDsOnPort parses `netstat -ano`, matching the ":<port>" LISTENING rows
// the way dev-server orchestrators already do when no netsh/WMI binding is
// wired in.
func (windowsAdapter) PIDsOnPort(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "netstat", "-ano").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPortScanFailed, err)
	}

	suffix := fmt.Sprintf(":%d", port)
	seen := make(map[int]bool)
	var pids []int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, suffix) || !strings.Contains(line, "LISTENING") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		localAddr := fields[1]
		if !strings.HasSuffix(localAddr, suffix) {
			continue
		}
		pidStr := fields[len(fields)-1]
		pid, err := strconv.Atoi(pidStr)
		if err != nil || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids, nil
}

// ProcessAlive opens pid with the minimal query right and checks its exit
// code is STILL_ACTIVE; Windows has no signal-0 equivalent for an
// unrelated process.
func ProcessAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}

func (a windowsAdapter) KillOnPort(ctx context.Context, port int, excludePID int) (int, error) {
	pids, err := a.PIDsOnPort(ctx, port)
	if err != nil {
		return 0, err
	}
	killed := 0
	for _, pid := range pids {
		if pid == excludePID {
			continue
		}
		if err := a.KillTree(ctx, pid, 0); err != nil {
			return killed, err
		}
		killed++
	}
	return killed, nil
}

func (windowsAdapter) NewGroup() (Group, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGroupUnavailable, err)
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		windows.CloseHandle(job)
		return nil, fmt.Errorf("%w: %v", ErrGroupUnavailable, err)
	}
	return &windowsGroup{job: job}, nil
}

// windowsGroup wraps a job object configured to kill every member process
// when the handle closes, giving Windows the same no-orphans guarantee a
// Unix process group gets from KillTree's negative-pid signal.
type windowsGroup struct {
	job windows.Handle
}

func (g *windowsGroup) Prepare(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

func (g *windowsGroup) Attach(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return fmt.Errorf("%w: process not started", ErrGroupUnavailable)
	}
	handle, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, uint32(cmd.Process.Pid))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGroupUnavailable, err)
	}
	defer windows.CloseHandle(handle)
	if err := windows.AssignProcessToJobObject(g.job, handle); err != nil {
		return fmt.Errorf("%w: %v", ErrGroupUnavailable, err)
	}
	return nil
}

func (g *windowsGroup) Close() error {
	return windows.CloseHandle(g.job)
}

// Detach is a no-op on Windows: a child spawned through Group.Prepare is
// created with CREATE_NEW_PROCESS_GROUP, which already stops Ctrl-C on the
// parent's console from reaching it, so there is nothing further for the
// watchdog to do here.
func Detach() error { return nil }
