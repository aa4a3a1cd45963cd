package abi

import "unsafe"

// 下面的大小必须和 BPF 侧 sizeof(struct ...) 一致。
// 任何一边改了布局，这里会在编译期报 "index out of range" 或常量溢出；
// 索引表达式为 0 当且仅当大小完全相等。
const (
	InodeKeySize      = 16
	ContainerSize     = 16
	ProcessSize       = 24
	FsPolicyKeySize   = 16
	FilePolicyKeySize = 24
	DevPolicyKeySize  = 16
	CapPolicyKeySize  = 16
	NetPolicyKeySize  = 16
	AuditRecordSize   = 40
)

// RecordAlign 是所有共享结构体的对齐，和 BPF 侧的 u64 首字段一致
const RecordAlign = 8

func _() {
	var x [1]struct{}
	_ = x[unsafe.Sizeof(InodeKey{})-InodeKeySize]
	_ = x[unsafe.Sizeof(Container{})-ContainerSize]
	_ = x[unsafe.Sizeof(Process{})-ProcessSize]
	_ = x[unsafe.Sizeof(FsPolicyKey{})-FsPolicyKeySize]
	_ = x[unsafe.Sizeof(FilePolicyKey{})-FilePolicyKeySize]
	_ = x[unsafe.Sizeof(DevPolicyKey{})-DevPolicyKeySize]
	_ = x[unsafe.Sizeof(CapPolicyKey{})-CapPolicyKeySize]
	_ = x[unsafe.Sizeof(NetPolicyKey{})-NetPolicyKeySize]
	_ = x[unsafe.Sizeof(AuditRecord{})-AuditRecordSize]

	// 对齐
	_ = x[unsafe.Alignof(InodeKey{})-RecordAlign]
	_ = x[unsafe.Alignof(Container{})-RecordAlign]
	_ = x[unsafe.Alignof(Process{})-RecordAlign]
	_ = x[unsafe.Alignof(FsPolicyKey{})-RecordAlign]
	_ = x[unsafe.Alignof(FilePolicyKey{})-RecordAlign]
	_ = x[unsafe.Alignof(DevPolicyKey{})-RecordAlign]
	_ = x[unsafe.Alignof(CapPolicyKey{})-RecordAlign]
	_ = x[unsafe.Alignof(NetPolicyKey{})-RecordAlign]
	_ = x[unsafe.Alignof(AuditRecord{})-RecordAlign]

	// 字段偏移
	_ = x[unsafe.Offsetof(Process{}.ContainerID)-8]
	_ = x[unsafe.Offsetof(FilePolicyKey{}.Inode)-8]
	_ = x[unsafe.Offsetof(NetPolicyKey{}.Operation)-12]
	_ = x[unsafe.Offsetof(AuditRecord{}.Access)-20]
	_ = x[unsafe.Offsetof(AuditRecord{}.Comm)-24]
}
