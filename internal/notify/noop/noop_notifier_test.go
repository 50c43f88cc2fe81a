package noop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"helix/internal/domain"
	"helix/internal/notify/noop"
	"helix/internal/port"
)

func TestNotifier_Logs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := noop.NewNotifier(zap.New(core))

	var _ port.BatchNotifier = n
	var _ port.ChangeNotifier = n

	b := &domain.BatchResult{ID: "b-1", Succeeded: 2, Failed: 1}
	assert.NoError(t, n.NotifyBatch(context.Background(), b))
	n.DataChanged(context.Background(), b)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "[NOOP NOTIFY] batch summary", entries[0].Message)
		assert.Equal(t, int64(2), entries[0].ContextMap()["succeeded"])
		assert.Equal(t, "[NOOP NOTIFY] data changed", entries[1].Message)
	}
}
