package abi

import (
	"fmt"

	"bpfcontain/policy"
)

// AuditKind 是审计记录的类别
type AuditKind uint8

const (
	AuditFile AuditKind = iota + 1
	AuditFs
	AuditDev
	AuditCap
	AuditNet
)

func (k AuditKind) String() string {
	switch k {
	case AuditFile:
		return "FILE"
	case AuditFs:
		return "FS"
	case AuditDev:
		return "DEV"
	case AuditCap:
		return "CAP"
	case AuditNet:
		return "NET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// AuditRecord 是 BPF 侧推入审计 ring buffer 的单条裁决记录（struct bpfcon_audit）
//
// Access 的含义取决于 Kind：FILE/FS/DEV 为 FilePermission，
// CAP 为 Capability，NET 为 NetOperation。
type AuditRecord struct {
	ContainerID uint64
	PID         uint32
	TGID        uint32
	Kind        AuditKind
	Decision    policy.PolicyDecision
	_           [2]byte
	Access      uint32
	Comm        [16]byte
}

// CommString 将以 null 结尾的 comm 转为 Go string
func (r AuditRecord) CommString() string {
	for i, b := range r.Comm {
		if b == 0 {
			return string(r.Comm[:i])
		}
	}
	return string(r.Comm[:])
}

// AccessString 按 Kind 解释 Access 位
func (r AuditRecord) AccessString() string {
	switch r.Kind {
	case AuditFile, AuditFs, AuditDev:
		return policy.FilePermissionFromBits(r.Access).String()
	case AuditCap:
		return policy.CapabilityFromBits(r.Access).String()
	case AuditNet:
		return policy.NetOperationFromBits(r.Access).String()
	default:
		return fmt.Sprintf("0x%x", r.Access)
	}
}
