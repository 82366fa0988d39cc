package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/cutman/internal/scheduler"
)

type stubScheduler struct {
	report   *scheduler.Report
	startErr error
	started  int
	replayed bool
}

func (s *stubScheduler) StartRun(replay bool) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started++
	s.replayed = replay
	return nil
}

func (s *stubScheduler) LatestReport() *scheduler.Report { return s.report }

func (s *stubScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"run_in_progress": false}
}

func TestGetLatestRun(t *testing.T) {
	sched := &stubScheduler{report: &scheduler.Report{Trigger: "manual", Duration: "3s"}}
	h := &Handler{sched: sched}

	rec := httptest.NewRecorder()
	h.GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got scheduler.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "manual", got.Trigger)
}

func TestGetLatestRunEmpty(t *testing.T) {
	h := &Handler{sched: &stubScheduler{}}

	rec := httptest.NewRecorder()
	h.GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerRun(t *testing.T) {
	sched := &stubScheduler{}
	h := &Handler{sched: sched}

	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, sched.started)
	assert.False(t, sched.replayed)
}

func TestTriggerRunReplay(t *testing.T) {
	sched := &stubScheduler{}
	h := &Handler{sched: sched}

	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs?from=latest", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, sched.replayed)
}

func TestTriggerRunConflict(t *testing.T) {
	sched := &stubScheduler{startErr: scheduler.ErrRunInProgress}
	h := &Handler{sched: sched}

	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSplitStatuses(t *testing.T) {
	assert.Equal(t, []string{"upcoming", "cancelled"}, splitStatuses("upcoming, cancelled"))
	assert.Equal(t, []string{"live"}, splitStatuses("live,"))
	assert.Nil(t, splitStatuses(""))
}
