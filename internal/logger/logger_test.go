package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	defer Init(Options{})

	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
	}{
		{name: "default is info", opts: Options{}, wantDebug: false, wantInfo: true},
		{name: "debug", opts: Options{Debug: true}, wantDebug: true, wantInfo: true},
		{name: "quiet", opts: Options{Quiet: true}, wantDebug: false, wantInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.opts.Output = buf
			Init(tt.opts)

			Debug("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			Info("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))

			Error("error line")
			assert.Contains(t, buf.String(), "error line")
		})
	}
}

func TestInitJSON(t *testing.T) {
	defer Init(Options{})

	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})

	With("run", "abc").Info("hello", "count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc", entry["run"])
	assert.Equal(t, float64(2), entry["count"])
}
