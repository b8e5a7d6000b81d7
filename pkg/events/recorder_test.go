package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
)

func newTestRecorder(retention int) *Recorder {
	return NewRecorder(retention, logging.NewLogger("", logging.LogFuncs{}))
}

func TestRecordEvent(t *testing.T) {
	recorder := newTestRecorder(0)

	event := recorder.RecordEvent("db", EventStarted, map[string]string{"note": "ok"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "db", event.ServiceID)
	assert.Equal(t, EventStarted, event.Type)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "ok", event.Payload["note"])

	second := recorder.RecordEvent("db", EventStopped, nil)
	assert.NotEqual(t, event.ID, second.ID)
}

func TestEventsFor(t *testing.T) {
	recorder := newTestRecorder(0)

	recorder.RecordEvent("db", EventRegistered, nil)
	recorder.RecordEvent("api", EventRegistered, nil)
	recorder.RecordEvent("db", EventStarted, nil)

	all := recorder.Events()
	require.Len(t, all, 3)

	dbEvents := recorder.EventsFor("db")
	require.Len(t, dbEvents, 2)
	assert.Equal(t, EventRegistered, dbEvents[0].Type)
	assert.Equal(t, EventStarted, dbEvents[1].Type)

	assert.Empty(t, recorder.EventsFor("ghost"))
}

func TestRecordHealthRetention(t *testing.T) {
	recorder := newTestRecorder(3)

	for i := 0; i < 5; i++ {
		recorder.RecordHealth(monitoring.HealthRecord{
			ServiceID: "db",
			Timestamp: time.Now(),
			Status:    monitoring.HealthStatusHealthy,
			Details:   fmt.Sprintf("check %d", i),
		})
	}

	history := recorder.HealthHistory("db")
	require.Len(t, history, 3)
	// Oldest records were pruned first.
	assert.Equal(t, "check 2", history[0].Details)
	assert.Equal(t, "check 4", history[2].Details)
}

func TestLatestHealth(t *testing.T) {
	recorder := newTestRecorder(0)

	_, ok := recorder.LatestHealth("db")
	assert.False(t, ok)

	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "db", Status: monitoring.HealthStatusHealthy})
	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "db", Status: monitoring.HealthStatusUnhealthy})

	latest, ok := recorder.LatestHealth("db")
	require.True(t, ok)
	assert.Equal(t, monitoring.HealthStatusUnhealthy, latest.Status)
}

func TestAllHealthChronological(t *testing.T) {
	recorder := newTestRecorder(0)
	base := time.Now()

	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "db", Timestamp: base.Add(2 * time.Second)})
	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "api", Timestamp: base})
	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "db", Timestamp: base.Add(time.Second)})

	all := recorder.AllHealth()
	require.Len(t, all, 3)
	assert.Equal(t, "api", all[0].ServiceID)
	assert.True(t, all[1].Timestamp.Before(all[2].Timestamp))
}

func TestReplaceHealth(t *testing.T) {
	recorder := newTestRecorder(0)
	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "old"})

	recorder.ReplaceHealth([]monitoring.HealthRecord{
		{ServiceID: "db", Status: monitoring.HealthStatusHealthy},
		{ServiceID: "db", Status: monitoring.HealthStatusDegraded},
	})

	assert.Empty(t, recorder.HealthHistory("old"))
	history := recorder.HealthHistory("db")
	require.Len(t, history, 2)
	assert.Equal(t, monitoring.HealthStatusDegraded, history[1].Status)
}

func TestDropService(t *testing.T) {
	recorder := newTestRecorder(0)
	recorder.RecordEvent("db", EventRegistered, nil)
	recorder.RecordHealth(monitoring.HealthRecord{ServiceID: "db"})

	recorder.DropService("db")

	assert.Empty(t, recorder.HealthHistory("db"))
	// Lifecycle events survive deregistration for audit.
	assert.Len(t, recorder.EventsFor("db"), 1)
}
