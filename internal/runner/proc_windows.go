//go:build windows

package runner

import (
	"os/exec"
	"sync/atomic"
	"unsafe"

	"github.com/qiniu/x/log"
	"golang.org/x/sys/windows"
)

// start runs cmd inside a job object that is terminated on cancellation
// and closed, killing any leftover descendants, once cmd has exited.
// cmd.exe and msbuild both spawn children that TerminateProcess on the
// parent alone would orphan.
func start(cmd *exec.Cmd) (release func(), err error) {
	job, err := newKillOnCloseJob()
	if err != nil {
		return nil, err
	}
	var assigned atomic.Bool
	cmd.Cancel = func() error {
		if assigned.Load() {
			return windows.TerminateJobObject(job, 1)
		}
		return cmd.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		windows.CloseHandle(job)
		return nil, err
	}
	if err := assignProcess(job, cmd.Process.Pid); err != nil {
		log.Debugf("job object for pid %d: %v", cmd.Process.Pid, err)
	} else {
		assigned.Store(true)
	}
	return func() { windows.CloseHandle(job) }, nil
}

func newKillOnCloseJob() (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	_, err = windows.SetInformationJobObject(job, windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
	if err != nil {
		windows.CloseHandle(job)
		return 0, err
	}
	return job, nil
}

func assignProcess(job windows.Handle, pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.AssignProcessToJobObject(job, h)
}
