package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/infra/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommandRecorder struct {
	records    []domain.CommandRecord
	lastLimit  int
	lastOffset int
	findErr    error
}

func (s *stubCommandRecorder) Record(context.Context, domain.CommandRecord) error { return nil }

func (s *stubCommandRecorder) FindPage(_ context.Context, limit, offset int) ([]domain.CommandRecord, int, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	if s.findErr != nil {
		return nil, 0, s.findErr
	}
	end := offset + limit
	if end > len(s.records) {
		end = len(s.records)
	}
	if offset > len(s.records) {
		offset = len(s.records)
	}
	return s.records[offset:end], len(s.records), nil
}

func newCommandLogTestServer(t *testing.T, recorder *stubCommandRecorder) *httptest.Server {
	t.Helper()
	router := http.NewServeMux()
	NewCommandLogController(recorder).AddRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func someCommandRecords(n int) []domain.CommandRecord {
	records := make([]domain.CommandRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.CommandRecord{
			ID:       utils.GenerateUUID(),
			Resource: "axis:yaw",
			Command:  "jog",
			Args:     fmt.Sprintf("target=%d", 1000+i),
			OK:       true,
			Duration: 12,
			IssuedAt: utils.Time{Time: time.Now()},
		})
	}
	return records
}

func TestCommandLogController_ListCommands(t *testing.T) {
	recorder := &stubCommandRecorder{records: someCommandRecords(3)}
	server := newCommandLogTestServer(t, recorder)

	resp, err := http.Get(server.URL + "/v1/commands")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data       []domain.CommandRecord `json:"data"`
		Total      int                    `json:"total"`
		Page       int                    `json:"page"`
		Limit      int                    `json:"limit"`
		TotalPages int                    `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data, 3)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 10, body.Limit)
	assert.Equal(t, 1, body.TotalPages)
}

func TestCommandLogController_SecondPage(t *testing.T) {
	recorder := &stubCommandRecorder{records: someCommandRecords(5)}
	server := newCommandLogTestServer(t, recorder)

	resp, err := http.Get(server.URL + "/v1/commands?page=2&limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, recorder.lastLimit)
	assert.Equal(t, 2, recorder.lastOffset)

	var body struct {
		Data       []domain.CommandRecord `json:"data"`
		Total      int                    `json:"total"`
		TotalPages int                    `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 5, body.Total)
	assert.Equal(t, 3, body.TotalPages)
}

func TestCommandLogController_RepositoryFailure(t *testing.T) {
	recorder := &stubCommandRecorder{findErr: fmt.Errorf("database locked")}
	server := newCommandLogTestServer(t, recorder)

	resp, err := http.Get(server.URL + "/v1/commands")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
