package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/mdp/qrterminal/v3"
)

// Prompter 向用户展示配对 URI。
// 用户关闭提示 (dismissed 被关闭) 视为拒绝。Close 必须幂等。
type Prompter interface {
	Open(uri string) (dismissed <-chan struct{}, err error)
	Close()
}

// TerminalPrompter 在终端渲染二维码，供 CLI 使用
type TerminalPrompter struct {
	w io.Writer
}

func NewTerminalPrompter(w io.Writer) *TerminalPrompter {
	return &TerminalPrompter{w: w}
}

func (p *TerminalPrompter) Open(uri string) (<-chan struct{}, error) {
	fmt.Fprintln(p.w, "请使用钱包扫描二维码完成连接:")
	qrterminal.GenerateHalfBlock(uri, qrterminal.L, p.w)
	fmt.Fprintf(p.w, "\n或复制连接 URI:\n%s\n\n", uri)
	// 终端无法关闭提示，只能等待超时或 Ctrl+C
	return nil, nil
}

func (p *TerminalPrompter) Close() {}

// PairingBoard 保存当前待扫码的 URI，供 HTTP API 展示 (前端弹窗)
type PairingBoard struct {
	mu        sync.Mutex
	uri       string
	dismissed chan struct{}
}

func NewPairingBoard() *PairingBoard {
	return &PairingBoard{}
}

func (b *PairingBoard) Open(uri string) (<-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uri = uri
	b.dismissed = make(chan struct{})
	return b.dismissed, nil
}

// Close 关闭弹窗；若有进行中的配对，配对随之以拒绝结束
func (b *PairingBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uri = ""
	if b.dismissed != nil {
		close(b.dismissed)
		b.dismissed = nil
	}
}

// Current 返回正在展示的 URI
func (b *PairingBoard) Current() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uri, b.uri != ""
}
