package utilities

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersWriteThroughProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("loaded %d questions", 16)
	Warn("cookie %q ignored", "fr")
	Error("boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "loaded 16 questions", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, `cookie "fr" ignored`, entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestSetupLoggingWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := SetupLogging(LogOptions{Dir: dir, Level: "debug"})
	require.NoError(t, err)
	t.Cleanup(func() { SetLogger(nil) })

	l.Info("hello")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestSetupLoggingRejectsLevel(t *testing.T) {
	_, err := SetupLogging(LogOptions{Level: "loud"})
	assert.Error(t, err)
}

func TestEventBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewEventBus()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventProfileImageGenerated, func(data interface{}) {
			if data.(string) == "LCEP" {
				calls.Add(1)
			}
		})
	}
	bus.Subscribe(EventQuizCompleted, func(interface{}) { t.Error("wrong event") })

	bus.Publish(EventProfileImageGenerated, "LCEP")
	bus.Publish("nobody-listens", nil)
	bus.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestEventBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewEventBus()
	var ok atomic.Bool
	bus.Subscribe("e", func(interface{}) { panic("bad handler") })
	bus.Subscribe("e", func(interface{}) { ok.Store(true) })

	bus.Publish("e", nil)
	bus.Wait()
	assert.True(t, ok.Load())
}
