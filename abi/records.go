// Package abi 定义与 BPF 侧内存布局逐字节一致的共享结构体
//
// 每个结构体都对应 structs.h 里的一个 C 结构体：字段顺序、宽度和对齐
// （64 位 Linux 上的自然 C 对齐）都必须一致，填充字节显式写成 `_` 字段。
// 两边不存在运行时协商，布局不一致只会静默地破坏裁决结果。
//
// 警告：修改任何结构体时必须同步修改 structs.h。
package abi

import (
	"fmt"

	"golang.org/x/sys/unix"

	"bpfcontain/policy"
)

// InodeKey 唯一标识一个文件系统对象（struct inode_key）
//
// DeviceID 使用用户态 st_dev 的编码（new_encode_dev），内核侧必须用同样的编码。
type InodeKey struct {
	InodeID  uint64
	DeviceID uint32
	_        [4]byte
}

// InodeKeyFromStat 从 stat 结果构造 InodeKey
func InodeKeyFromStat(st *unix.Stat_t) InodeKey {
	return InodeKey{
		InodeID:  st.Ino,
		DeviceID: uint32(st.Dev),
	}
}

// InodeKeyFromPath stat 指定路径（跟随符号链接）并构造 InodeKey
func InodeKeyFromPath(path string) (InodeKey, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return InodeKey{}, fmt.Errorf("stat %q: %w", path, err)
	}
	return InodeKeyFromStat(&st), nil
}

// ContainerFlags 是 struct bpfcon_container 里的状态位
type ContainerFlags uint8

const (
	ContainerComplain    ContainerFlags = 0x01
	ContainerPrivileged  ContainerFlags = 0x02
	ContainerDefaultDeny ContainerFlags = 0x04
)

// Container 是 BPF 侧单个容器实例的状态（struct bpfcon_container）
type Container struct {
	ContainerID uint64
	Flags       ContainerFlags
	_           [7]byte
}

func (c Container) Complain() bool    { return c.Flags&ContainerComplain != 0 }
func (c Container) Privileged() bool  { return c.Flags&ContainerPrivileged != 0 }
func (c Container) DefaultDeny() bool { return c.Flags&ContainerDefaultDeny != 0 }

// ProcessFlags 是 struct bpfcon_process 里的状态位
type ProcessFlags uint8

const (
	ProcessInExecve ProcessFlags = 0x01
)

// Process 是单个容器化进程的状态（struct bpfcon_process）
//
// 生命周期完全由 BPF 侧管理：containerize 时创建，进程退出时销毁。
type Process struct {
	PID         uint32
	TGID        uint32
	ContainerID uint64
	Flags       ProcessFlags
	_           [7]byte
}

func (p Process) InExecve() bool { return p.Flags&ProcessInExecve != 0 }

// FsPolicyKey 标识 (container, filesystem)（struct fs_policy_key）
type FsPolicyKey struct {
	ContainerID uint64
	DeviceID    uint32
	_           [4]byte
}

// FilePolicyKey 标识 (container, inode)（struct file_policy_key）
type FilePolicyKey struct {
	ContainerID uint64
	Inode       InodeKey
}

// DevPolicyKey 标识 (container, device)（struct dev_policy_key）
type DevPolicyKey struct {
	ContainerID uint64
	Major       uint32
	Minor       uint32
}

// NewDevPolicyKey 从 st_rdev 拆出主/次设备号
func NewDevPolicyKey(containerID uint64, rdev uint64) DevPolicyKey {
	return DevPolicyKey{
		ContainerID: containerID,
		Major:       unix.Major(rdev),
		Minor:       unix.Minor(rdev),
	}
}

// CapPolicyKey 标识 (container, capability)（struct cap_policy_key）
type CapPolicyKey struct {
	ContainerID uint64
	Capability  policy.Capability
	_           [4]byte
}

// NetPolicyKey 标识 (container, category, operation)（struct net_policy_key）
type NetPolicyKey struct {
	ContainerID uint64
	Category    policy.NetCategory
	_           [3]byte
	Operation   policy.NetOperation
}
