package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubAssetService struct {
	actor string
	id    string
	hard  bool
	err   error
}

func (s *stubAssetService) ListAssets(_ context.Context, _ domain.AssetFilter, _, _ int) ([]domain.Asset, error) {
	return []domain.Asset{}, s.err
}

func (s *stubAssetService) GetAssetByID(_ context.Context, id string) (*domain.Asset, error) {
	s.id = id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Asset{ID: 1, Tag: "NB-001"}, nil
}

func (s *stubAssetService) CreateAsset(_ context.Context, actor string, req domain.CreateAssetRequest) (*domain.Asset, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Asset{ID: 1, Tag: req.Tag, Type: req.Type}, nil
}

func (s *stubAssetService) UpdateAsset(_ context.Context, actor, id string, _ domain.UpdateAssetRequest) (*domain.Asset, error) {
	s.actor, s.id = actor, id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Asset{ID: 1}, nil
}

func (s *stubAssetService) DeleteAsset(_ context.Context, actor, id string, hard bool) error {
	s.actor, s.id, s.hard = actor, id, hard
	return s.err
}

type stubAuditService struct {
	kind, id, actor string
	limit           int
	err             error
}

func (s *stubAuditService) ListForEntity(_ context.Context, kind, entityID string, limit int) ([]domain.AuditEvent, error) {
	s.kind, s.id, s.limit = kind, entityID, limit
	if s.err != nil {
		return nil, s.err
	}
	return []domain.AuditEvent{{ID: "e1", Action: domain.ActionCreate}}, nil
}

func (s *stubAuditService) ListAll(_ context.Context, actor string, limit int) ([]domain.AuditEvent, error) {
	s.actor, s.limit = actor, limit
	return []domain.AuditEvent{}, s.err
}

func (s *stubAuditService) Statistics(context.Context) (*domain.AuditStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AuditStats{TotalCount: 3, Actors: []string{"ana"}, Actions: []string{"CREATE"}, CountPerAction: map[string]int64{"CREATE": 3}}, nil
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealthCheck(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")
	require.NoError(t, NewServer(stubPinger{}).HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "/health", "")
	require.NoError(t, NewServer(stubPinger{err: errors.New("down")}).HealthCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateAsset_ActorFromHeader(t *testing.T) {
	svc := &stubAssetService{}
	srv := NewAssetServer(svc)

	c, rec := newContext(http.MethodPost, "/api/assets", `{"tag":"NB-001","type":"Notebook"}`)
	c.Request().Header.Set(ActorHeader, " ana ")
	require.NoError(t, srv.CreateAsset(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana", svc.actor)

	c, _ = newContext(http.MethodPost, "/api/assets", `{"tag":"NB-002","type":"Notebook"}`)
	require.NoError(t, srv.CreateAsset(c))
	assert.Equal(t, domain.SystemActor, svc.actor)
}

func TestCreateAsset_BadBody(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/assets", `{"tag":`)
	require.NoError(t, NewAssetServer(&stubAssetService{}).CreateAsset(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrAssetNotFound, http.StatusNotFound},
		{domain.ErrAssetTagExists, http.StatusConflict},
		{domain.ErrInvalidID, http.StatusBadRequest},
		{domain.ErrInvalidDate, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newContext(http.MethodGet, "/api/assets/1", "")
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, NewAssetServer(&stubAssetService{err: tc.err}).GetAsset(c))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestDeleteAsset_HardFlag(t *testing.T) {
	svc := &stubAssetService{}
	srv := NewAssetServer(svc)

	c, rec := newContext(http.MethodDelete, "/api/assets/5?hard=true", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Request().Header.Set(ActorHeader, "rui")
	require.NoError(t, srv.DeleteAsset(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.hard)
	assert.Equal(t, "5", svc.id)
	assert.Equal(t, "rui", svc.actor)

	c, _ = newContext(http.MethodDelete, "/api/assets/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, srv.DeleteAsset(c))
	assert.False(t, svc.hard)
}

func TestListEntityLogs(t *testing.T) {
	svc := &stubAuditService{}
	srv := NewAuditServer(svc)

	c, rec := newContext(http.MethodGet, "/api/logs/entity/7?kind=asset&limit=5", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, srv.ListEntityLogs(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset", svc.kind)
	assert.Equal(t, "7", svc.id)
	assert.Equal(t, 5, svc.limit)

	var events []domain.AuditEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
}

func TestListEntityLogs_UnknownKind(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/logs/entity/7?kind=printer", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, NewAuditServer(&stubAuditService{err: domain.ErrUnknownEntityKind}).ListEntityLogs(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLogs_ActorAndInvalidLimit(t *testing.T) {
	svc := &stubAuditService{}
	c, rec := newContext(http.MethodGet, "/api/logs?actor=ana&limit=abc", "")
	require.NoError(t, NewAuditServer(svc).ListLogs(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", svc.actor)
	assert.Equal(t, 0, svc.limit)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatistics(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/logs/statistics", "")
	require.NoError(t, NewAuditServer(&stubAuditService{}).Statistics(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_count":3,"distinct_actors":["ana"],"distinct_actions":["CREATE"],"count_per_action":{"CREATE":3}}`, rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/logs/statistics", "")
	require.NoError(t, NewAuditServer(&stubAuditService{err: errors.New("db down")}).Statistics(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
