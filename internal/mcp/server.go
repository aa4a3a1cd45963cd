package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"bpfcontain/abi"
	"bpfcontain/internal/ebpf"
	"bpfcontain/policy"
)

const maxAuditHistory = 1000

// Inspector 是只读的 BPF 侧状态查询，*ebpf.Manager 满足该接口
type Inspector interface {
	Container(id uint64) (abi.Container, error)
	Process(pid uint32) (abi.Process, error)
	FsPolicy(key abi.FsPolicyKey) (policy.FilePermission, error)
	FilePolicy(key abi.FilePolicyKey) (policy.FilePermission, error)
	DevPolicy(key abi.DevPolicyKey) (policy.FilePermission, error)
	CapPolicy(key abi.CapPolicyKey) (policy.PolicyDecision, error)
	NetPolicy(key abi.NetPolicyKey) (policy.PolicyDecision, error)
}

var _ Inspector = (*ebpf.Manager)(nil)

// Server 通过 MCP 暴露容器和策略的查询工具，不修改 BPF 侧状态
type Server struct {
	mcpServer *server.MCPServer
	inspector Inspector
	audit     []abi.AuditRecord // 最近的审计记录
	mu        sync.RWMutex
	startTime time.Time
}

// NewServer 创建 MCP 服务端
func NewServer(inspector Inspector) *Server {
	s := &Server{
		inspector: inspector,
		startTime: time.Now(),
	}

	srv := server.NewMCPServer(
		"bpfcontain",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.registerTools(srv)
	s.mcpServer = srv
	return s
}

// RecordAudit 记录一条审计记录
func (s *Server) RecordAudit(rec abi.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, rec)
	if len(s.audit) > maxAuditHistory {
		s.audit = s.audit[len(s.audit)-maxAuditHistory:]
	}
}

// ConsumeAudit 把 channel 里的记录写入历史，直到 channel 关闭或 ctx 取消
func (s *Server) ConsumeAudit(ctx context.Context, records <-chan abi.AuditRecord) {
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			s.RecordAudit(rec)
		case <-ctx.Done():
			return
		}
	}
}

// ServeStdio 在 stdio 上启动 MCP 服务
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get bpfcontain inspector status"),
	), s.handleStatus)

	srv.AddTool(mcp.NewTool("get_container",
		mcp.WithDescription("Look up a container descriptor by ID"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
	), s.handleContainer)

	srv.AddTool(mcp.NewTool("get_process",
		mcp.WithDescription("Look up a containerized process by PID"),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("Process ID")),
	), s.handleProcess)

	srv.AddTool(mcp.NewTool("get_fs_policy",
		mcp.WithDescription("Get the file permissions granted on a filesystem"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
		mcp.WithNumber("device_id", mcp.Required(), mcp.Description("Filesystem device ID (st_dev)")),
	), s.handleFsPolicy)

	srv.AddTool(mcp.NewTool("get_file_policy",
		mcp.WithDescription("Get the file permissions granted on a file"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file; resolved to its inode")),
	), s.handleFilePolicy)

	srv.AddTool(mcp.NewTool("get_dev_policy",
		mcp.WithDescription("Get the file permissions granted on a device"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
		mcp.WithNumber("major", mcp.Required(), mcp.Description("Device major number")),
		mcp.WithNumber("minor", mcp.Required(), mcp.Description("Device minor number")),
	), s.handleDevPolicy)

	srv.AddTool(mcp.NewTool("get_cap_policy",
		mcp.WithDescription("Get the decision for a capability"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
		mcp.WithString("capability", mcp.Required(), mcp.Description("Capability, e.g. NET_RAW")),
	), s.handleCapPolicy)

	srv.AddTool(mcp.NewTool("get_net_policy",
		mcp.WithDescription("Get the decision for a network category and operation"),
		mcp.WithNumber("container_id", mcp.Required(), mcp.Description("Container ID")),
		mcp.WithString("category", mcp.Required(), mcp.Description("WWW or IPC")),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation, e.g. NET_CONNECT")),
	), s.handleNetPolicy)

	srv.AddTool(mcp.NewTool("get_recent_audit",
		mcp.WithDescription("Get recent audit records"),
		mcp.WithNumber("limit", mcp.Description("Max number of records to return (default 20)")),
	), s.handleRecentAudit)
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	count := len(s.audit)
	s.mu.RUnlock()
	return jsonResult(map[string]any{
		"status":      "running",
		"uptime":      time.Since(s.startTime).String(),
		"audit_count": count,
	})
}

func (s *Server) handleContainer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.inspector.Container(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"container_id": c.ContainerID,
		"complain":     c.Complain(),
		"privileged":   c.Privileged(),
		"default_deny": c.DefaultDeny(),
	})
}

func (s *Server) handleProcess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pid, err := uint32Arg(req, "pid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.inspector.Process(pid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"pid":          p.PID,
		"tgid":         p.TGID,
		"container_id": p.ContainerID,
		"in_execve":    p.InExecve(),
	})
}

func (s *Server) handleFsPolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dev, err := uint32Arg(req, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	perm, err := s.inspector.FsPolicy(abi.FsPolicyKey{ContainerID: id, DeviceID: dev})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(perm.String()), nil
}

func (s *Server) handleFilePolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := stringArg(req, "path")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	inode, err := abi.InodeKeyFromPath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	perm, err := s.inspector.FilePolicy(abi.FilePolicyKey{ContainerID: id, Inode: inode})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(perm.String()), nil
}

func (s *Server) handleDevPolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	major, err := uint32Arg(req, "major")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minor, err := uint32Arg(req, "minor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	perm, err := s.inspector.DevPolicy(abi.DevPolicyKey{ContainerID: id, Major: major, Minor: minor})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(perm.String()), nil
}

func (s *Server) handleCapPolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	capability, err := policy.ParseCapability(stringArg(req, "capability"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if capability.IsEmpty() {
		return mcp.NewToolResultError("capability is required"), nil
	}
	d, err := s.inspector.CapPolicy(abi.CapPolicyKey{ContainerID: id, Capability: capability})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(d.String()), nil
}

func (s *Server) handleNetPolicy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := uint64Arg(req, "container_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := policy.ParseNetCategory(stringArg(req, "category"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	operation, err := policy.ParseNetOperation(stringArg(req, "operation"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if category.IsEmpty() || operation.IsEmpty() {
		return mcp.NewToolResultError("category and operation are required"), nil
	}
	d, err := s.inspector.NetPolicy(abi.NetPolicyKey{
		ContainerID: id,
		Category:    category,
		Operation:   operation,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(d.String()), nil
}

func (s *Server) handleRecentAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 20
	if l, err := uint32Arg(req, "limit"); err == nil && l > 0 {
		limit = int(l)
	}
	s.mu.RLock()
	records := s.audit
	s.mu.RUnlock()
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	result := make([]map[string]any, len(records))
	for i, r := range records {
		result[i] = map[string]any{
			"container_id": r.ContainerID,
			"pid":          r.PID,
			"tgid":         r.TGID,
			"comm":         r.CommString(),
			"kind":         r.Kind.String(),
			"decision":     r.Decision.String(),
			"access":       r.AccessString(),
		}
	}
	return jsonResult(result)
}

// uintArg 读取一个非负整数参数，小数、负数和超过 upper 的值都拒绝
func uintArg(req mcp.CallToolRequest, name string, upper uint64) (uint64, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	v, ok := args[name].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	// float64(upper)+1 对 2^32 和 2^64 都是精确值
	if v < 0 || v != math.Trunc(v) || v >= float64(upper)+1 {
		return 0, fmt.Errorf("%s must be an integer in [0, %d], got %v", name, upper, v)
	}
	return uint64(v), nil
}

func uint64Arg(req mcp.CallToolRequest, name string) (uint64, error) {
	return uintArg(req, name, math.MaxUint64)
}

func uint32Arg(req mcp.CallToolRequest, name string) (uint32, error) {
	v, err := uintArg(req, name, math.MaxUint32)
	return uint32(v), err
}

func stringArg(req mcp.CallToolRequest, name string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	v, _ := args[name].(string)
	return v
}

// jsonResult 将任意值序列化为 JSON 并返回 ToolResult
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
