package policy

import (
	"errors"
	"testing"
)

func TestRoundTripPreservesUnknownBits(t *testing.T) {
	for v := 0; v <= 0xff; v++ {
		if got := PolicyDecisionFromBits(uint8(v)).Bits(); got != uint8(v) {
			t.Fatalf("PolicyDecision round trip %#x: got %#x", v, got)
		}
		if got := NetCategoryFromBits(uint8(v)).Bits(); got != uint8(v) {
			t.Fatalf("NetCategory round trip %#x: got %#x", v, got)
		}
	}

	values := []uint32{0, 1, 0x1000, 0x1fff, 0x2000, 0xdeadbeef, 0xffffffff}
	for _, v := range values {
		if got := FilePermissionFromBits(v).Bits(); got != v {
			t.Errorf("FilePermission round trip %#x: got %#x", v, got)
		}
		if got := CapabilityFromBits(v).Bits(); got != v {
			t.Errorf("Capability round trip %#x: got %#x", v, got)
		}
		if got := NetOperationFromBits(v).Bits(); got != v {
			t.Errorf("NetOperation round trip %#x: got %#x", v, got)
		}
	}
}

func TestDecisionZeroValue(t *testing.T) {
	var d PolicyDecision
	if d != NoDecision {
		t.Fatalf("zero value = %v, want NoDecision", d)
	}
	if !d.IsEmpty() || d.Allowed() || d.Denied() {
		t.Fatalf("zero value should carry no bits: %v", d)
	}
	if d.String() != "NO_DECISION" {
		t.Fatalf("String() = %q", d.String())
	}
}

func TestDecisionBitsNotExclusive(t *testing.T) {
	d := Allow.Union(Deny)
	if !d.Allowed() || !d.Denied() {
		t.Fatalf("both bits should be reported for %v", d)
	}
	if d != AllDecisions {
		t.Fatalf("Allow|Deny = %#x, want %#x", d.Bits(), AllDecisions.Bits())
	}
}

func TestFilePermissionSetAlgebra(t *testing.T) {
	names := make([]FilePermission, 0, len(filePermissionNames))
	var all FilePermission
	for _, n := range filePermissionNames {
		names = append(names, n.bit)
		all |= n.bit
	}
	if all != AllFilePermissions {
		t.Fatalf("AllFilePermissions = %#x, want %#x", AllFilePermissions.Bits(), all.Bits())
	}
	if AllFilePermissions.Bits() != 0x1fff {
		t.Fatalf("13 permission bits expected, got %#x", AllFilePermissions.Bits())
	}

	for _, a := range names {
		for _, b := range names {
			u := a.Union(b)
			if !u.Contains(a) || !u.Contains(b) {
				t.Errorf("%v ∪ %v = %v does not contain both", a, b, u)
			}
			i := a.Intersection(b)
			if i&^(a&b) != 0 {
				t.Errorf("%v ∩ %v = %v has stray bits", a, b, i)
			}
			if a != b && !i.IsEmpty() {
				t.Errorf("distinct flags %v and %v intersect", a, b)
			}
			if d := u.Difference(b); !d.Intersection(b).IsEmpty() {
				t.Errorf("%v \\ %v = %v still carries %v", u, b, d, b)
			}
		}
	}
}

func TestTruncateDropsUnknownBits(t *testing.T) {
	if got := FilePermissionFromBits(0xffffffff).Truncate(); got != AllFilePermissions {
		t.Errorf("FilePermission.Truncate = %#x", got.Bits())
	}
	if got := CapabilityFromBits(0xff).Truncate(); got != AllCapabilities {
		t.Errorf("Capability.Truncate = %#x", got.Bits())
	}
	if got := NetOperationFromBits(0x1ff).Truncate(); got != AllNetOperations {
		t.Errorf("NetOperation.Truncate = %#x", got.Bits())
	}
	if got := NetCategoryFromBits(0xff).Truncate(); got != AllNetCategories {
		t.Errorf("NetCategory.Truncate = %#x", got.Bits())
	}
	if got := PolicyDecisionFromBits(0x07).Truncate(); got != AllDecisions {
		t.Errorf("PolicyDecision.Truncate = %#x", got.Bits())
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"read|write", (MayRead | MayWrite).String(), "MAY_WRITE|MAY_READ"},
		{"unknown file bit", (MayExec | 0x4000).String(), "MAY_EXEC|0x4000"},
		{"no perms", FilePermission(0).String(), "NONE"},
		{"cap", (CapNetRaw | CapDacOverride).String(), "NET_RAW|DAC_OVERRIDE"},
		{"category", NetIPC.String(), "IPC"},
		{"operation", (NetBind | NetListen).String(), "NET_BIND|NET_LISTEN"},
		{"deny", Deny.String(), "DENY"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	perm, err := ParseFilePermission("may_read | MAY_EXEC_MMAP|0x8000")
	if err != nil {
		t.Fatalf("ParseFilePermission: %v", err)
	}
	if want := MayRead | MayExecMmap | 0x8000; perm != want {
		t.Fatalf("got %#x, want %#x", perm.Bits(), want.Bits())
	}

	for _, p := range []FilePermission{0, MayChdir, AllFilePermissions, MayLink | 0x10000} {
		back, err := ParseFilePermission(p.String())
		if err != nil || back != p {
			t.Errorf("ParseFilePermission(%q) = %v, %v", p.String(), back, err)
		}
	}

	capSet, err := ParseCapability("NET_BIND_SERVICE|DAC_READ_SEARCH")
	if err != nil || capSet != CapNetBindService|CapDacReadSearch {
		t.Errorf("ParseCapability = %v, %v", capSet, err)
	}
	cat, err := ParseNetCategory("www")
	if err != nil || cat != NetWWW {
		t.Errorf("ParseNetCategory = %v, %v", cat, err)
	}
	op, err := ParseNetOperation("NET_SEND|NET_RECV")
	if err != nil || op != NetSend|NetRecv {
		t.Errorf("ParseNetOperation = %v, %v", op, err)
	}
	d, err := ParsePolicyDecision("NO_DECISION")
	if err != nil || d != NoDecision {
		t.Errorf("ParsePolicyDecision = %v, %v", d, err)
	}

	if _, err := ParseCapability("CAP_SYS_ADMIN"); !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("expected ErrUnknownFlag, got %v", err)
	}
	if _, err := ParseNetCategory("0x100"); !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("out of range category should fail, got %v", err)
	}
}
