package ebpf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ciliumebpf "github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"
	"github.com/hashicorp/go-multierror"

	"bpfcontain/abi"
	"bpfcontain/internal/config"
	"bpfcontain/policy"
)

// BPF 侧 pin 在 PinPath 下的 map 名称
const (
	ContainersMap = "containers"
	ProcessesMap  = "processes"
	FsPolicyMap   = "fs_policy"
	FilePolicyMap = "file_policy"
	DevPolicyMap  = "dev_policy"
	CapPolicyMap  = "cap_policy"
	NetPolicyMap  = "net_policy"
	AuditMap      = "audit"
)

const lsmPath = "/sys/kernel/security/lsm"

var (
	// ErrNotFound map 中没有这个 key
	ErrNotFound = errors.New("no such entry")
	// ErrAuditDisabled 配置里关闭了审计
	ErrAuditDisabled = errors.New("audit ring buffer disabled")
)

// objectMap 是 Manager 用到的 map 操作，*ciliumebpf.Map 满足该接口
type objectMap interface {
	Lookup(key, valueOut interface{}) error
	Close() error
}

// Manager 持有 BPF 侧 pinned 对象的句柄
//
// 只读：策略的写入由外部 loader 完成。
type Manager struct {
	cfg config.Config

	containers objectMap
	processes  objectMap
	fsPolicy   objectMap
	filePolicy objectMap
	devPolicy  objectMap
	capPolicy  objectMap
	netPolicy  objectMap

	audit    *ciliumebpf.Map
	readerMu sync.Mutex
	reader   *AuditReader
	links    []link.Link
}

// openAuditReader 在测试里可替换
var openAuditReader = newRingbufAuditReader

// NewManager 打开 BPF 侧 pin 好的 map
func NewManager(cfg config.Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := checkLSMEnvironment(lsmPath); err != nil {
		return nil, err
	}

	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, fmt.Errorf("remove memlock rlimit: %w", err)
	}

	mgr := &Manager{cfg: cfg}
	pinned := []struct {
		name string
		dst  *objectMap
	}{
		{ContainersMap, &mgr.containers},
		{ProcessesMap, &mgr.processes},
		{FsPolicyMap, &mgr.fsPolicy},
		{FilePolicyMap, &mgr.filePolicy},
		{DevPolicyMap, &mgr.devPolicy},
		{CapPolicyMap, &mgr.capPolicy},
		{NetPolicyMap, &mgr.netPolicy},
	}
	for _, p := range pinned {
		m, err := ciliumebpf.LoadPinnedMap(cfg.MapPath(p.name), nil)
		if err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("load pinned map %s: %w", p.name, err)
		}
		*p.dst = m
		slog.Info("opened pinned map", "map", p.name, "path", cfg.MapPath(p.name))
	}

	if cfg.Audit.Enabled {
		m, err := ciliumebpf.LoadPinnedMap(cfg.MapPath(AuditMap), nil)
		if err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("load pinned map %s: %w", AuditMap, err)
		}
		mgr.audit = m
	}

	return mgr, nil
}

// AttachUprobe 把 BPF 侧的 containerize 处理程序挂到配置的符号上
func (m *Manager) AttachUprobe(prog *ciliumebpf.Program) error {
	ex, err := link.OpenExecutable(m.cfg.Uprobe.Binary)
	if err != nil {
		return fmt.Errorf("open executable %s: %w", m.cfg.Uprobe.Binary, err)
	}
	l, err := ex.Uprobe(m.cfg.Uprobe.Symbol, prog, nil)
	if err != nil {
		return fmt.Errorf("attach uprobe %s: %w", m.cfg.Uprobe.Symbol, err)
	}
	m.links = append(m.links, l)
	slog.Info("attached uprobe", "binary", m.cfg.Uprobe.Binary, "symbol", m.cfg.Uprobe.Symbol)
	return nil
}

// AuditReader 返回审计 ring buffer 的 reader，多次调用返回同一个
func (m *Manager) AuditReader() (*AuditReader, error) {
	if m.audit == nil {
		return nil, ErrAuditDisabled
	}
	m.readerMu.Lock()
	defer m.readerMu.Unlock()
	if m.reader == nil {
		r, err := openAuditReader(m.audit, m.cfg.Audit.Buffer)
		if err != nil {
			return nil, err
		}
		m.reader = r
	}
	return m.reader, nil
}

// Close detach 所有 links，关闭所有资源
func (m *Manager) Close() error {
	var result *multierror.Error
	m.readerMu.Lock()
	if m.reader != nil {
		if err := m.reader.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close audit reader: %w", err))
		}
		m.reader = nil
	}
	m.readerMu.Unlock()
	for _, l := range m.links {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close link: %w", err))
		}
	}
	maps := []objectMap{
		m.containers, m.processes, m.fsPolicy, m.filePolicy,
		m.devPolicy, m.capPolicy, m.netPolicy,
	}
	if m.audit != nil {
		maps = append(maps, m.audit)
	}
	for _, mp := range maps {
		if mp == nil {
			continue
		}
		if err := mp.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Container 查询容器状态
func (m *Manager) Container(id uint64) (abi.Container, error) {
	key := binary.NativeEndian.AppendUint64(nil, id)
	return lookupRecord[abi.Container](m.containers, ContainersMap, key)
}

// Process 查询进程状态
func (m *Manager) Process(pid uint32) (abi.Process, error) {
	key := binary.NativeEndian.AppendUint32(nil, pid)
	return lookupRecord[abi.Process](m.processes, ProcessesMap, key)
}

// FsPolicy 查询容器在某个文件系统上被授予的文件权限
func (m *Manager) FsPolicy(key abi.FsPolicyKey) (policy.FilePermission, error) {
	return lookupValue[policy.FilePermission](m.fsPolicy, FsPolicyMap, abi.Marshal(&key))
}

// FilePolicy 查询容器在某个 inode 上被授予的文件权限
func (m *Manager) FilePolicy(key abi.FilePolicyKey) (policy.FilePermission, error) {
	return lookupValue[policy.FilePermission](m.filePolicy, FilePolicyMap, abi.Marshal(&key))
}

// DevPolicy 查询容器在某个设备上被授予的文件权限
func (m *Manager) DevPolicy(key abi.DevPolicyKey) (policy.FilePermission, error) {
	return lookupValue[policy.FilePermission](m.devPolicy, DevPolicyMap, abi.Marshal(&key))
}

// CapPolicy 查询容器对某个 capability 的裁决
func (m *Manager) CapPolicy(key abi.CapPolicyKey) (policy.PolicyDecision, error) {
	return lookupValue[policy.PolicyDecision](m.capPolicy, CapPolicyMap, abi.Marshal(&key))
}

// NetPolicy 查询容器对某类网络操作的裁决
func (m *Manager) NetPolicy(key abi.NetPolicyKey) (policy.PolicyDecision, error) {
	return lookupValue[policy.PolicyDecision](m.netPolicy, NetPolicyMap, abi.Marshal(&key))
}

// lookupRecord 读出一个共享结构体，缓冲区只在本次调用内有效
func lookupRecord[V abi.Record](mp objectMap, name string, key []byte) (V, error) {
	var zero V
	buf := make([]byte, abi.Layout[V]().Size)
	if err := lookup(mp, name, key, buf); err != nil {
		return zero, err
	}
	return abi.Unmarshal[V](buf)
}

func lookupValue[V policy.FilePermission | policy.PolicyDecision](mp objectMap, name string, key []byte) (V, error) {
	var v V
	if err := lookup(mp, name, key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func lookup(mp objectMap, name string, key []byte, valueOut interface{}) error {
	if mp == nil {
		return fmt.Errorf("map %s not loaded", name)
	}
	if err := mp.Lookup(key, valueOut); err != nil {
		if errors.Is(err, ciliumebpf.ErrKeyNotExist) {
			return fmt.Errorf("%s key %x: %w", name, key, ErrNotFound)
		}
		return fmt.Errorf("lookup %s: %w", name, err)
	}
	return nil
}

// checkLSMEnvironment 检测内核是否启用了 BPF LSM
func checkLSMEnvironment(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w (is securityfs mounted?)", path, err)
	}
	lsmList := strings.TrimSpace(string(data))
	for _, lsm := range strings.Split(lsmList, ",") {
		if lsm == "bpf" {
			return nil
		}
	}
	return fmt.Errorf(
		"BPF LSM not active. Active LSMs: %q\n"+
			"To enable, add 'lsm=...,bpf' to kernel boot parameters and reboot.",
		lsmList,
	)
}
