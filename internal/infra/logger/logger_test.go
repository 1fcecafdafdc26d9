package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("debug", "production", &buf)
	t.Cleanup(func() { InitWithOutput("info", "development", &bytes.Buffer{}) })

	buf.Reset()
	Component("runner").WithField("entry", "weekly").Info("materialized")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "runner", line["component"])
	assert.Equal(t, "weekly", line["entry"])
	assert.Equal(t, "materialized", line["msg"])
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	InitWithOutput("loud", "development", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
