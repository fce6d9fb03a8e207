package client

import (
	"fmt"
	"sync"
	"time"
)

// Stage labels for multi-step flows. Remaining counts in approval
// messages are relative to what is still missing, not the full set.
const (
	StageProxyCompute  = "proxy:compute"
	StageProxyDeploy   = "proxy:deploy"
	StageProxyConfirm  = "proxy:confirm"
	StageApprovalCheck = "approval:check"
	StageApprovalGrant = "approval:grant"
	StageAuth          = "auth"
	StageBuild         = "order:build"
	StageSign          = "order:sign"
	StageSubmit        = "order:submit"
	StageStatus        = "order:status"
	StageRelay         = "relay"
)

// ProgressEvent is one observable step of a long-running operation.
// TxHash and ExplorerURL are set once a transaction is in flight.
type ProgressEvent struct {
	Stage       string
	Message     string
	Elapsed     time.Duration
	TxHash      string
	ExplorerURL string
}

// Progress is a bounded event stream. Producers never block: when the
// consumer lags past the buffer, older events are dropped in favor of
// newer ones.
type Progress struct {
	ch      chan ProgressEvent
	once    sync.Once
	started time.Time
}

func NewProgress(buffer int) *Progress {
	if buffer <= 0 {
		buffer = 64
	}
	return &Progress{
		ch:      make(chan ProgressEvent, buffer),
		started: time.Now(),
	}
}

// Events exposes the stream for draining. It is closed by Close.
func (p *Progress) Events() <-chan ProgressEvent {
	if p == nil {
		return nil
	}
	return p.ch
}

// Emit records an event. Safe on a nil receiver so components can
// report unconditionally.
func (p *Progress) Emit(ev ProgressEvent) {
	if p == nil {
		return
	}
	if ev.Elapsed == 0 {
		ev.Elapsed = time.Since(p.started)
	}
	select {
	case p.ch <- ev:
	default:
		select {
		case <-p.ch:
		default:
		}
		select {
		case p.ch <- ev:
		default:
		}
	}
}

func (p *Progress) Emitf(stage, format string, args ...any) {
	p.Emit(ProgressEvent{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// EmitTx reports a transaction step with its explorer link.
func (p *Progress) EmitTx(stage, message, txHash, explorerURL string) {
	p.Emit(ProgressEvent{Stage: stage, Message: message, TxHash: txHash, ExplorerURL: explorerURL})
}

// Close ends the stream. Further Emit calls are dropped by the channel
// buffer logic only if the caller races Close; producers should stop
// before closing.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.ch) })
}

// Drain consumes and discards all remaining events, for callers that
// do not care about intermediate steps.
func (p *Progress) Drain() {
	if p == nil {
		return
	}
	for range p.ch {
	}
}
