package policy

// NetCategory 描述网络资源的目标类别（net_category_t）
type NetCategory uint8

const (
	NetWWW NetCategory = 0x01
	NetIPC NetCategory = 0x02

	AllNetCategories = NetWWW | NetIPC
)

// NetOperation 描述网络动作（net_operation_t）
//
// 策略按 (category, operation) 键控，见 abi.NetPolicyKey。
type NetOperation uint32

const (
	NetConnect  NetOperation = 0x00000001
	NetBind     NetOperation = 0x00000002
	NetAccept   NetOperation = 0x00000004
	NetListen   NetOperation = 0x00000008
	NetSend     NetOperation = 0x00000010
	NetRecv     NetOperation = 0x00000020
	NetCreate   NetOperation = 0x00000040
	NetShutdown NetOperation = 0x00000080

	AllNetOperations = NetConnect | NetBind | NetAccept | NetListen |
		NetSend | NetRecv | NetCreate | NetShutdown
)

var netCategoryNames = []flagName[NetCategory]{
	{NetWWW, "WWW"},
	{NetIPC, "IPC"},
}

var netOperationNames = []flagName[NetOperation]{
	{NetConnect, "NET_CONNECT"},
	{NetBind, "NET_BIND"},
	{NetAccept, "NET_ACCEPT"},
	{NetListen, "NET_LISTEN"},
	{NetSend, "NET_SEND"},
	{NetRecv, "NET_RECV"},
	{NetCreate, "NET_CREATE"},
	{NetShutdown, "NET_SHUTDOWN"},
}

// NetCategoryFromBits 从原始整数构造，未知位保留
func NetCategoryFromBits(v uint8) NetCategory { return NetCategory(v) }

// Bits 返回线上格式的原始整数
func (c NetCategory) Bits() uint8 { return uint8(c) }

// Union 返回两个集合的并集
func (c NetCategory) Union(o NetCategory) NetCategory { return c | o }

// Intersection 返回两个集合的交集
func (c NetCategory) Intersection(o NetCategory) NetCategory { return c & o }

// Difference 返回在 c 中但不在 o 中的位
func (c NetCategory) Difference(o NetCategory) NetCategory { return c &^ o }

// Contains 判断 o 的所有位是否都在 c 中
func (c NetCategory) Contains(o NetCategory) bool { return c&o == o }

// IsEmpty 判断是否没有任何位
func (c NetCategory) IsEmpty() bool { return c == 0 }

// Truncate 丢弃未命名的位
func (c NetCategory) Truncate() NetCategory { return c & AllNetCategories }

// String 按名称渲染，未知位以十六进制追加
func (c NetCategory) String() string {
	return formatFlags(c, netCategoryNames, "NONE")
}

// ParseNetCategory 解析 String 的输出，名称不区分大小写，也接受十六进制
func ParseNetCategory(s string) (NetCategory, error) {
	return parseFlags(s, netCategoryNames, "NONE", 8)
}

// NetOperationFromBits 从原始整数构造，未知位保留
func NetOperationFromBits(v uint32) NetOperation { return NetOperation(v) }

// Bits 返回线上格式的原始整数
func (op NetOperation) Bits() uint32 { return uint32(op) }

// Union 返回两个集合的并集
func (op NetOperation) Union(o NetOperation) NetOperation { return op | o }

// Intersection 返回两个集合的交集
func (op NetOperation) Intersection(o NetOperation) NetOperation { return op & o }

// Difference 返回在 op 中但不在 o 中的位
func (op NetOperation) Difference(o NetOperation) NetOperation { return op &^ o }

// Contains 判断 o 的所有位是否都在 op 中
func (op NetOperation) Contains(o NetOperation) bool { return op&o == o }

// IsEmpty 判断是否没有任何位
func (op NetOperation) IsEmpty() bool { return op == 0 }

// Truncate 丢弃未命名的位
func (op NetOperation) Truncate() NetOperation { return op & AllNetOperations }

// String 按名称渲染，未知位以十六进制追加
func (op NetOperation) String() string {
	return formatFlags(op, netOperationNames, "NONE")
}

// ParseNetOperation 解析 String 的输出，名称不区分大小写，也接受十六进制
func ParseNetOperation(s string) (NetOperation, error) {
	return parseFlags(s, netOperationNames, "NONE", 32)
}
