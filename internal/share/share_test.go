package share

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"crypto-persona-backend/internal/locale"
)

const url = "https://persona.example/results/LCEP?time=8&risk=-3&decision=1&role=-6"

func stubClipboard(t *testing.T, err error) *string {
	t.Helper()
	var copied string
	orig := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		if err != nil {
			return err
		}
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = orig })
	return &copied
}

func TestShareUsesClipboard(t *testing.T) {
	copied := stubClipboard(t, nil)
	var term bytes.Buffer

	out := (&Sharer{Terminal: &term, Interactive: true}).Share(url)
	assert.Equal(t, MethodClipboard, out.Method)
	assert.Equal(t, url, *copied)
	assert.Zero(t, term.Len())
	assert.Equal(t, "Link copied: "+url, out.Message(locale.Mounted(locale.English)))
}

func TestShareFallsBackToOSC52(t *testing.T) {
	stubClipboard(t, errors.New("no xclip"))
	var term bytes.Buffer

	out := (&Sharer{Terminal: &term, Interactive: true}).Share(url)
	assert.Equal(t, MethodOSC52, out.Method)
	assert.Contains(t, term.String(), "\x1b]52;c;")
}

func TestShareFallsBackToNotice(t *testing.T) {
	stubClipboard(t, errors.New("no xclip"))
	var term bytes.Buffer

	out := (&Sharer{Terminal: &term}).Share(url)
	assert.Equal(t, MethodNotice, out.Method)
	assert.Error(t, out.Err)
	assert.Zero(t, term.Len())
	assert.Contains(t, out.Message(locale.NewResolver()), url)
	assert.Contains(t, out.Message(locale.NewResolver()), "请手动复制链接")
}
