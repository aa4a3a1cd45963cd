package policy

// FilePermission 是 BPF 侧的文件权限位掩码（file_permission_t）
type FilePermission uint32

const (
	MayExec     FilePermission = 0x00000001
	MayWrite    FilePermission = 0x00000002
	MayRead     FilePermission = 0x00000004
	MayAppend   FilePermission = 0x00000008
	MayCreate   FilePermission = 0x00000010
	MayDelete   FilePermission = 0x00000020
	MayRename   FilePermission = 0x00000040
	MaySetattr  FilePermission = 0x00000080
	MayChmod    FilePermission = 0x00000100
	MayChown    FilePermission = 0x00000200
	MayLink     FilePermission = 0x00000400
	MayExecMmap FilePermission = 0x00000800
	MayChdir    FilePermission = 0x00001000

	AllFilePermissions = MayExec | MayWrite | MayRead | MayAppend | MayCreate |
		MayDelete | MayRename | MaySetattr | MayChmod | MayChown | MayLink |
		MayExecMmap | MayChdir
)

var filePermissionNames = []flagName[FilePermission]{
	{MayExec, "MAY_EXEC"},
	{MayWrite, "MAY_WRITE"},
	{MayRead, "MAY_READ"},
	{MayAppend, "MAY_APPEND"},
	{MayCreate, "MAY_CREATE"},
	{MayDelete, "MAY_DELETE"},
	{MayRename, "MAY_RENAME"},
	{MaySetattr, "MAY_SETATTR"},
	{MayChmod, "MAY_CHMOD"},
	{MayChown, "MAY_CHOWN"},
	{MayLink, "MAY_LINK"},
	{MayExecMmap, "MAY_EXEC_MMAP"},
	{MayChdir, "MAY_CHDIR"},
}

// FilePermissionFromBits 从原始整数构造，未知位保留
func FilePermissionFromBits(v uint32) FilePermission { return FilePermission(v) }

// Bits 返回线上格式的原始整数
func (p FilePermission) Bits() uint32 { return uint32(p) }

// Union 返回两个集合的并集
func (p FilePermission) Union(o FilePermission) FilePermission { return p | o }

// Intersection 返回两个集合的交集
func (p FilePermission) Intersection(o FilePermission) FilePermission { return p & o }

// Difference 返回在 p 中但不在 o 中的位
func (p FilePermission) Difference(o FilePermission) FilePermission { return p &^ o }

// Contains 判断 o 的所有位是否都在 p 中
func (p FilePermission) Contains(o FilePermission) bool { return p&o == o }

// IsEmpty 判断是否没有任何位
func (p FilePermission) IsEmpty() bool { return p == 0 }

// Truncate 丢弃未命名的位
func (p FilePermission) Truncate() FilePermission { return p & AllFilePermissions }

// String 按名称渲染，未知位以十六进制追加
func (p FilePermission) String() string {
	return formatFlags(p, filePermissionNames, "NONE")
}

// ParseFilePermission 解析 "MAY_READ|MAY_WRITE" 形式
func ParseFilePermission(s string) (FilePermission, error) {
	return parseFlags(s, filePermissionNames, "NONE", 32)
}
