package policy

// Capability 是 BPF 侧的 capability 位掩码（capability_t）
//
// 只覆盖引擎实际仲裁的一小部分 capability，和内核的 CAP_* 编号无关。
type Capability uint32

const (
	CapNetBindService Capability = 0x00000001
	CapNetRaw         Capability = 0x00000002
	CapNetBroadcast   Capability = 0x00000004
	CapDacOverride    Capability = 0x00000008
	CapDacReadSearch  Capability = 0x00000010

	AllCapabilities = CapNetBindService | CapNetRaw | CapNetBroadcast |
		CapDacOverride | CapDacReadSearch
)

var capabilityNames = []flagName[Capability]{
	{CapNetBindService, "NET_BIND_SERVICE"},
	{CapNetRaw, "NET_RAW"},
	{CapNetBroadcast, "NET_BROADCAST"},
	{CapDacOverride, "DAC_OVERRIDE"},
	{CapDacReadSearch, "DAC_READ_SEARCH"},
}

// CapabilityFromBits 从原始整数构造，未知位保留
func CapabilityFromBits(v uint32) Capability { return Capability(v) }

// Bits 返回线上格式的原始整数
func (c Capability) Bits() uint32 { return uint32(c) }

// Union 返回两个集合的并集
func (c Capability) Union(o Capability) Capability { return c | o }

// Intersection 返回两个集合的交集
func (c Capability) Intersection(o Capability) Capability { return c & o }

// Difference 返回在 c 中但不在 o 中的位
func (c Capability) Difference(o Capability) Capability { return c &^ o }

// Contains 判断 o 的所有位是否都在 c 中
func (c Capability) Contains(o Capability) bool { return c&o == o }

// IsEmpty 判断是否没有任何位
func (c Capability) IsEmpty() bool { return c == 0 }

// Truncate 丢弃未命名的位
func (c Capability) Truncate() Capability { return c & AllCapabilities }

// String 按名称渲染，未知位以十六进制追加
func (c Capability) String() string {
	return formatFlags(c, capabilityNames, "NONE")
}

// ParseCapability 解析 String 的输出，名称不区分大小写，也接受十六进制
func ParseCapability(s string) (Capability, error) {
	return parseFlags(s, capabilityNames, "NONE", 32)
}
