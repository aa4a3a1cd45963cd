package abi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"
)

// ErrSize 缓冲区长度和结构体大小不一致
var ErrSize = errors.New("buffer size does not match record size")

// Record 是所有可以作为原始字节跨越边界的共享结构体
type Record interface {
	InodeKey | Container | Process | FsPolicyKey | FilePolicyKey |
		DevPolicyKey | CapPolicyKey | NetPolicyKey | AuditRecord
}

// RecordLayout 是结构体在本机上的大小和对齐
type RecordLayout struct {
	Size  uintptr
	Align uintptr
}

// Layout 返回 T 的大小和对齐
func Layout[T Record]() RecordLayout {
	var zero T
	return RecordLayout{Size: unsafe.Sizeof(zero), Align: unsafe.Alignof(zero)}
}

// Marshal 以本机字节序序列化 r，返回新分配的缓冲区，不和 r 共享内存
func Marshal[T Record](r *T) []byte {
	buf := make([]byte, 0, Layout[T]().Size)
	// 所有字段都是定长类型，Append 不会失败
	buf, _ = binary.Append(buf, binary.NativeEndian, r)
	return buf
}

// Unmarshal 把恰好 sizeof(T) 字节的缓冲区解释为 T
//
// 填充字段 (_) 不参与解码，Marshal 总是把它们写成 0：
// 填充字节非零的缓冲区经过 Unmarshal 再 Marshal 后，只有这些字节会变成 0。
// 需要逐字节原样转发时直接传递原始缓冲区。
func Unmarshal[T Record](data []byte) (T, error) {
	var r T
	err := UnmarshalInto(data, &r)
	return r, err
}

// UnmarshalInto 同 Unmarshal，写入调用方提供的 r
func UnmarshalInto[T Record](data []byte, r *T) error {
	size := Layout[T]().Size
	if uintptr(len(data)) != size {
		return fmt.Errorf("%w: %T is %d bytes, got %d", ErrSize, *r, size, len(data))
	}
	if _, err := binary.Decode(data, binary.NativeEndian, r); err != nil {
		return fmt.Errorf("decode %T: %w", *r, err)
	}
	return nil
}
