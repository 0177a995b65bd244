package notify

import (
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "loopgate execution exec-1", normalizeText("  Loopgate   Execution   EXEC-1  "))
}

func TestFingerprint_StableAndDistinct(t *testing.T) {
	a := Fingerprint("exec-1")
	b := Fingerprint("exec-1")
	c := Fingerprint("exec-2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCollectMessageText(t *testing.T) {
	msg := goslack.Message{}
	msg.Text = "hello"
	msg.Attachments = []goslack.Attachment{{Text: "world", Fallback: "fallback"}}
	assert.Equal(t, "hello world fallback", collectMessageText(msg))
}
