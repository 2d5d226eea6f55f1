package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesStructuredFields(t *testing.T) {
	log, err := NewLogger(&Config{Level: InfoLevel, Format: "json", AppName: "fleetdesk", Version: "1.2.3"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithRouteID("r-1").LogSideEffectFailure("whatsapp", errors.New("twilio down"), map[string]interface{}{"driver_id": "d-1"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "fleetdesk", entry["app"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "r-1", entry["route_id"])
	assert.Equal(t, "d-1", entry["driver_id"])
	assert.Equal(t, "whatsapp", entry["effect"])
	assert.Equal(t, "twilio down", entry["error"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent := Discard()
	child := parent.WithField("route_id", "r-1")

	assert.Empty(t, parent.fields)
	assert.Equal(t, "r-1", child.fields["route_id"])
}

func TestWithContextPicksKnownKeys(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, OrganizationIDKey, "org-1")

	l := Discard().WithContext(ctx)

	assert.Equal(t, "req-9", l.fields["request_id"])
	assert.Equal(t, "org-1", l.fields["organization_id"])
	_, hasUser := l.fields["user_id"]
	assert.False(t, hasUser)
}

func TestLevelBelowThresholdIsDropped(t *testing.T) {
	log, err := NewLogger(&Config{Level: ErrorLevel, Format: "text"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.Info("quiet")
	assert.Zero(t, buf.Len())

	log.Error("loud")
	assert.Contains(t, buf.String(), "[ERROR] loud")
}
