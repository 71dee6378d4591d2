package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/glimpse/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}

	log, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("frame_number", 42).Info("frame delivered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame delivered", entry["message"])
	assert.Equal(t, float64(42), entry["frame_number"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "shout",
		Format: "json",
		Output: "stdout",
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LoggingConfig{
		Level:      "info",
		Format:     "text",
		Output:     filepath.Join(dir, "logs", "glimpse.log"),
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("hello")

	_, err = os.Stat(filepath.Join(dir, "logs"))
	assert.NoError(t, err)
}

func TestLogrusAdapter_FieldChaining(t *testing.T) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	adapter := NewLogrusAdapter(base.WithField("component", "cache"))
	adapter.WithField("frame_number", 7).WithFields(map[string]interface{}{
		"bytes": 1024,
	}).Info("stored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, float64(7), entry["frame_number"])
	assert.Equal(t, float64(1024), entry["bytes"])
}

func TestNullLogger_Discards(t *testing.T) {
	log := NewNullLogger()

	// All methods are no-ops; this just exercises the full surface.
	log.WithField("k", "v").WithFields(map[string]interface{}{"a": 1}).WithError(nil).Info("dropped")
	log.Debug("dropped")
	log.Warnf("dropped %d", 1)
	log.Errorf("dropped %d", 2)
}
