// Package share hands a result URL to the user: system clipboard first, then the
// terminal's OSC52 clipboard, and finally a plain notice with the URL.
package share

import (
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"crypto-persona-backend/internal/locale"
)

type Method string

const (
	MethodClipboard Method = "clipboard"
	MethodOSC52     Method = "osc52"
	MethodNotice    Method = "notice"
)

// Outcome is how a URL was shared.
type Outcome struct {
	Method Method
	URL    string
	Err    error
}

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// Sharer copies URLs for the user.
type Sharer struct {
	// Terminal receives the OSC52 sequence. Nil disables the fallback.
	Terminal io.Writer
	// Interactive reports whether Terminal is a real terminal.
	Interactive bool
}

// Share never fails; the worst outcome is a notice carrying the URL.
func (s *Sharer) Share(url string) Outcome {
	err := clipboardWriteAll(url)
	if err == nil {
		return Outcome{Method: MethodClipboard, URL: url}
	}
	if s.Terminal != nil && s.Interactive {
		if _, oscErr := osc52.New(url).WriteTo(s.Terminal); oscErr == nil {
			return Outcome{Method: MethodOSC52, URL: url}
		}
	}
	return Outcome{Method: MethodNotice, URL: url, Err: err}
}

// Message is the user-facing line describing the outcome.
func (o Outcome) Message(l *locale.Resolver) string {
	switch o.Method {
	case MethodClipboard, MethodOSC52:
		return l.Resolve("链接已复制：", "Link copied: ") + o.URL
	}
	return fmt.Sprintf("%s%s", l.Resolve("无法访问剪贴板，请手动复制链接：", "Clipboard unavailable, copy the link manually: "), o.URL)
}
