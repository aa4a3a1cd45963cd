package policy

// PolicyDecision 是 BPF 侧的策略裁决（policy_decision_t）
//
// Allow 与 Deny 是否互斥由内核侧保证，这里不做检查。
type PolicyDecision uint8

const (
	NoDecision PolicyDecision = 0x00
	Allow      PolicyDecision = 0x01
	Deny       PolicyDecision = 0x02

	AllDecisions = Allow | Deny
)

var decisionNames = []flagName[PolicyDecision]{
	{Allow, "ALLOW"},
	{Deny, "DENY"},
}

// PolicyDecisionFromBits 从原始整数构造，未知位保留
func PolicyDecisionFromBits(v uint8) PolicyDecision { return PolicyDecision(v) }

// Bits 返回线上格式的原始整数
func (d PolicyDecision) Bits() uint8 { return uint8(d) }

// Union 返回两个集合的并集
func (d PolicyDecision) Union(o PolicyDecision) PolicyDecision { return d | o }

// Intersection 返回两个集合的交集
func (d PolicyDecision) Intersection(o PolicyDecision) PolicyDecision { return d & o }

// Difference 返回在 d 中但不在 o 中的位
func (d PolicyDecision) Difference(o PolicyDecision) PolicyDecision { return d &^ o }

// Contains 判断 o 的所有位是否都在 d 中
func (d PolicyDecision) Contains(o PolicyDecision) bool { return d&o == o }

// IsEmpty 判断是否没有任何位
func (d PolicyDecision) IsEmpty() bool { return d == NoDecision }

// Truncate 丢弃未命名的位
func (d PolicyDecision) Truncate() PolicyDecision { return d & AllDecisions }

// Allowed 只检查 Allow 位
func (d PolicyDecision) Allowed() bool { return d&Allow != 0 }

// Denied 只检查 Deny 位
func (d PolicyDecision) Denied() bool { return d&Deny != 0 }

// String 按名称渲染，未知位以十六进制追加
func (d PolicyDecision) String() string {
	return formatFlags(d, decisionNames, "NO_DECISION")
}

// ParsePolicyDecision 解析 String 的输出
func ParsePolicyDecision(s string) (PolicyDecision, error) {
	return parseFlags(s, decisionNames, "NO_DECISION", 8)
}
