package ebpf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	ciliumebpf "github.com/cilium/ebpf"
	"github.com/cilium/ebpf/ringbuf"

	"bpfcontain/abi"
)

// recordReader 是 *ringbuf.Reader 的最小接口
type recordReader interface {
	Read() (ringbuf.Record, error)
	SetDeadline(t time.Time)
	Close() error
}

// AuditReader 从审计 ring buffer 持续消费裁决记录
type AuditReader struct {
	reader recordReader
	buffer int
}

func newRingbufAuditReader(m *ciliumebpf.Map, buffer int) (*AuditReader, error) {
	r, err := ringbuf.NewReader(m)
	if err != nil {
		return nil, fmt.Errorf("create ringbuf reader: %w", err)
	}
	return newAuditReader(r, buffer), nil
}

func newAuditReader(r recordReader, buffer int) *AuditReader {
	return &AuditReader{reader: r, buffer: buffer}
}

// Read 启动后台 goroutine 持续读取记录，发送到返回的 channel。
// ctx 取消或 reader 关闭后 goroutine 退出，channel 关闭。
func (ar *AuditReader) Read(ctx context.Context) <-chan abi.AuditRecord {
	ch := make(chan abi.AuditRecord, ar.buffer)

	// ctx 取消时把读超时设为现在，唤醒阻塞中的 Read
	stop := context.AfterFunc(ctx, func() {
		ar.reader.SetDeadline(time.Now())
	})

	go func() {
		defer close(ch)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			record, err := ar.reader.Read()
			if err != nil {
				if errors.Is(err, ringbuf.ErrClosed) {
					return
				}
				if errors.Is(err, os.ErrDeadlineExceeded) && ctx.Err() != nil {
					return
				}
				slog.Warn("ringbuf read error", "err", err)
				continue
			}

			rec, err := parseAuditRecord(record.RawSample)
			if err != nil {
				slog.Warn("parse audit record error", "err", err)
				continue
			}

			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Close 关闭底层 ring buffer reader，阻塞中的 Read 会返回
func (ar *AuditReader) Close() error {
	return ar.reader.Close()
}

// parseAuditRecord 解析一条样本；ring buffer 会把样本补齐到 8 字节，多出的尾部忽略
func parseAuditRecord(data []byte) (abi.AuditRecord, error) {
	if len(data) < abi.AuditRecordSize {
		return abi.AuditRecord{}, fmt.Errorf("short audit record: %d bytes", len(data))
	}
	return abi.Unmarshal[abi.AuditRecord](data[:abi.AuditRecordSize])
}
