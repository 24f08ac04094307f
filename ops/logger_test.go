package ops

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsMerges(t *testing.T) {
	rec := NewRecorder(log.DebugLevel)
	scoped := NewLoggerWithFields(rec, log.Fields{"worker": 3})

	scoped.Log(log.InfoLevel, log.Fields{"action": "dispatch"}, "handled job")

	events := rec.Events()
	require.Len(t, events, 1)
	require.Equal(t, "handled job", events[0].Message)
	require.Equal(t, 3, events[0].Fields["worker"])
	require.Equal(t, "dispatch", events[0].Fields["action"])
}

func TestWithFieldsCallFieldsOverrideDecoratorFields(t *testing.T) {
	rec := NewRecorder(log.DebugLevel)
	scoped := NewLoggerWithFields(rec, log.Fields{"client": "c1"})

	scoped.Log(log.WarnLevel, log.Fields{"client": "override"}, "conflict")

	events := rec.Events()
	require.Equal(t, "override", events[0].Fields["client"])
}
