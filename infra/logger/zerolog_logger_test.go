package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("LOG_LEVEL", "debug")
	l := NewZerologLogger("dispatch")
	assert.NotNil(t, l)
	l.Debugf("offer sent to driver %s", "drv-1")
	l.Debugw("telemetry dropped", map[string]any{"delivery_id": "del-1", "reason": "out_of_order"})
	l.Infof("delivery %s assigned", "del-1")
	l.Warnf("ack timeout for command %s", "cmd-1")
	l.Errorf("broker unreachable")
}

func TestZerologLoggerIgnoresBadLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "shouting")
	l := NewZerologLogger("tracking")
	assert.NotNil(t, l)
	l.Infof("still logs at the default level")
}
