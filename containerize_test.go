package bpfcontain

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func engineReturning(code int32) Caller {
	return func(uint64) int32 { return code }
}

func TestContainerizeResultCodes(t *testing.T) {
	tests := []struct {
		name    string
		code    int32
		wantErr error
	}{
		{"success", 0, nil},
		{"uprobe not entered", -int32(unix.EAGAIN), ErrTransitionFailure},
		{"unknown container", -int32(unix.ENOENT), ErrUnknownContainer},
		{"already containerized", -int32(unix.EINVAL), ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBinder(engineReturning(tt.code)).Containerize(4242)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownContainerNamesID(t *testing.T) {
	err := NewBinder(engineReturning(-int32(unix.ENOENT))).Containerize(4242)
	if !errors.Is(err, ErrUnknownContainer) {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "4242") {
		t.Fatalf("message %q does not mention container id", err.Error())
	}
}

func TestUnknownEngineCode(t *testing.T) {
	err := NewBinder(engineReturning(-999)).Containerize(1)

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *EngineError, got %T: %v", err, err)
	}
	if engineErr.Code != -999 {
		t.Fatalf("code = %d, want -999", engineErr.Code)
	}
	for _, sentinel := range []error{ErrTransitionFailure, ErrUnknownContainer, ErrInvalidState} {
		if errors.Is(err, sentinel) {
			t.Fatalf("unknown code should not match %v", sentinel)
		}
	}
}

func TestEngineErrorUnwrapsErrno(t *testing.T) {
	err := NewBinder(engineReturning(-int32(unix.EPERM))).Containerize(1)
	if !errors.Is(err, unix.EPERM) {
		t.Fatalf("expected EPERM in chain, got %v", err)
	}
	if (&EngineError{Code: 5}).Unwrap() != nil {
		t.Fatalf("positive codes carry no errno")
	}
}

func TestBinderPassesContainerID(t *testing.T) {
	var seen []uint64
	b := NewBinder(func(id uint64) int32 {
		seen = append(seen, id)
		if len(seen) > 1 {
			return -int32(unix.EINVAL)
		}
		return 0
	})

	if err := b.Containerize(7); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := b.Containerize(7); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second call: got %v, want ErrInvalidState", err)
	}
	if len(seen) != 2 || seen[0] != 7 || seen[1] != 7 {
		t.Fatalf("engine saw %v", seen)
	}
}

// 测试进程没有挂载 uprobe，调用应当落回预置的 -EAGAIN
func TestContainerizeWithoutUprobe(t *testing.T) {
	if err := Containerize(1); !errors.Is(err, ErrTransitionFailure) {
		t.Fatalf("got %v, want ErrTransitionFailure", err)
	}
}
