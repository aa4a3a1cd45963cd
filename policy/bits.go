// Package policy 定义与 BPF 侧共享的策略位掩码类型
//
// 所有类型都只是整数上的语义标签：未命名的位会原样保留，
// 因为内核侧可能定义了用户态尚未命名的位。
//
// 警告：位的取值必须和 BPF 侧的 structs.h 保持同步。
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownFlag 解析时遇到未知的 flag 名称
var ErrUnknownFlag = errors.New("unknown flag")

type bitmask interface {
	~uint8 | ~uint32
}

// flagName 是单个命名位
type flagName[T bitmask] struct {
	bit  T
	name string
}

// formatFlags 将位掩码渲染为 "A|B|0x40" 形式，未命名的位以十六进制输出
func formatFlags[T bitmask](v T, names []flagName[T], zero string) string {
	if v == 0 {
		return zero
	}
	var parts []string
	rest := v
	for _, n := range names {
		if v&n.bit == n.bit {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// parseFlags 解析 formatFlags 的输出；名称不区分大小写，也接受十六进制/十进制字面量
func parseFlags[T bitmask](s string, names []flagName[T], zero string, bitSize int) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, zero) {
		return 0, nil
	}
	var v T
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if bit, ok := lookupFlag(part, names); ok {
			v |= bit
			continue
		}
		n, err := strconv.ParseUint(part, 0, bitSize)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, part)
		}
		v |= T(n)
	}
	return v, nil
}

func lookupFlag[T bitmask](name string, names []flagName[T]) (T, bool) {
	for _, n := range names {
		if strings.EqualFold(name, n.name) {
			return n.bit, true
		}
	}
	return 0, false
}
