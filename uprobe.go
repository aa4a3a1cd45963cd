package bpfcontain

import "golang.org/x/sys/unix"

// UprobeSymbol 是 BPF 侧 uprobe 挂载的符号名
//
// 使用 Go 寄存器 ABI：第一个整型参数寄存器（amd64 上是 RAX，arm64 上是 X0）
// 保存结果指针，第二个（RBX / X1）保存 container ID。
const UprobeSymbol = "bpfcontain.doContainerize"

// doContainerize 只是 uprobe 的挂载点，函数体为空。
// BPF 程序在入口处处理请求，并用 bpf_probe_write_user 写回 *ret。
//
//go:noinline
func doContainerize(ret *int32, containerID uint64) {
	_, _ = ret, containerID
}

// uprobeCall 预置 -EAGAIN：uprobe 没有触发时调用方会得到 ErrTransitionFailure
func uprobeCall(containerID uint64) int32 {
	ret := -int32(unix.EAGAIN)
	doContainerize(&ret, containerID)
	return ret
}
