// Package bpfcontain 把调用进程放进 BPF 侧维护的容器策略上下文
//
// 这里唯一跨越边界的调用是 Containerize：它通过 uprobe 同步地进入 BPF 程序，
// 由 BPF 侧决定进程能否绑定到指定容器。本包不做参数校验、不重试、不记日志，
// 所有失败都原样返回给调用方。
package bpfcontain

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrTransitionFailure uprobe 没有被触发（BPF 程序未挂载或未就绪）
	ErrTransitionFailure = errors.New("failed to call into uprobe")
	// ErrUnknownContainer BPF 侧没有这个 ID 的容器
	ErrUnknownContainer = errors.New("no such container")
	// ErrInvalidState 进程已经被容器化，或者进程表已满
	ErrInvalidState = errors.New("process is already containerized or no room in map")
)

// EngineError 是 BPF 侧返回的未识别结果码，Code 保留原值用于诊断
type EngineError struct {
	Code int32
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("unknown error %d", e.Code)
}

// Unwrap 对负的 errno 返回对应的 unix.Errno
func (e *EngineError) Unwrap() error {
	if e.Code < 0 {
		return unix.Errno(-e.Code)
	}
	return nil
}

// Caller 执行一次跨边界调用，返回 BPF 侧的结果码（0 或负 errno）
type Caller func(containerID uint64) int32

// Binder 把结果码映射为错误
type Binder struct {
	call Caller
}

// NewBinder 创建 Binder；call 为 nil 时使用 uprobe 挂载点
func NewBinder(call Caller) *Binder {
	if call == nil {
		call = uprobeCall
	}
	return &Binder{call: call}
}

var defaultBinder = NewBinder(nil)

// Containerize 把当前进程放进 ID 为 containerID 的容器
//
// 不是幂等的：同一进程第二次调用会返回 ErrInvalidState。
func Containerize(containerID uint64) error {
	return defaultBinder.Containerize(containerID)
}

// Containerize 把当前进程放进 ID 为 containerID 的容器
func (b *Binder) Containerize(containerID uint64) error {
	return resultError(b.call(containerID), containerID)
}

func resultError(code int32, containerID uint64) error {
	switch code {
	case 0:
		return nil
	case -int32(unix.EAGAIN):
		return ErrTransitionFailure
	case -int32(unix.ENOENT):
		return fmt.Errorf("%w with ID %d", ErrUnknownContainer, containerID)
	case -int32(unix.EINVAL):
		return ErrInvalidState
	default:
		return &EngineError{Code: code}
	}
}
