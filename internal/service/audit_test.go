package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"
	"inventory-audit/internal/metrics"
	"inventory-audit/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phone(status string) *domain.Snapshot {
	return domain.NewSnapshot().
		Set("id", 7).
		Set("tag", "CEL-007").
		Set("status", status)
}

func TestAuditService_RecordCreatePersistsAndPublishes(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	pub := &recordingPublisher{}
	svc := NewAuditService(repo, WithPublisher(pub))
	ctx := context.Background()

	events, err := svc.Record(ctx, audit.Target{Kind: domain.KindPhone, ID: "7", Label: "CEL-007", Actor: "ana"}, nil, phone("Active"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionCreate, events[0].Action)
	assert.Equal(t, "phone CEL-007 cadastrado no sistema", events[0].Description)

	stored, err := svc.ListForEntity(ctx, "phone", "7", 0)
	require.NoError(t, err)
	assert.Equal(t, events, stored)

	svc.Close()
	assert.Equal(t, events, pub.published())
}

func TestAuditService_RecordUpdate(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	svc := NewAuditService(repo)
	ctx := context.Background()
	target := audit.Target{Kind: domain.KindPhone, ID: "7", Label: "CEL-007"}

	events, err := svc.Record(ctx, target, phone("Active"), phone("Inactive"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionFieldChange, domain.ActionUpdateSummary}, actions(events))
	assert.Equal(t, "status alterado de Active para Inactive", events[0].Description)
	assert.Equal(t, domain.SystemActor, events[0].Actor)

	none, err := svc.Record(ctx, target, phone("Inactive"), phone("Inactive"))
	require.NoError(t, err)
	assert.Empty(t, none)

	stored, err := svc.ListForEntity(ctx, "", "7", 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionUpdateSummary, domain.ActionFieldChange}, actions(stored))
}

func TestAuditService_RejectsFieldsOutsideAllowlist(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	svc := NewAuditService(repo)

	bad := phone("Active").Set("password", "x")
	_, err := svc.Record(context.Background(), audit.Target{Kind: domain.KindPhone, ID: "7"}, nil, bad)
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = svc.Record(context.Background(), audit.Target{Kind: "printer", ID: "7"}, nil, phone("Active"))
	assert.ErrorIs(t, err, domain.ErrUnknownEntityKind)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCount)
}

func TestAuditService_UnparsedEntityID(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	m := metrics.NewAuditMetrics(nil)
	svc := NewAuditService(repo, WithMetrics(m))
	ctx := context.Background()

	events, err := svc.Record(ctx, audit.Target{Kind: domain.KindPhone, ID: "abc", Label: "CEL-007"}, nil, phone("Active"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EntityID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IDCoercionMiss.WithLabelValues("phone")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsAppended.WithLabelValues("phone", "CREATE")))

	listed, err := svc.ListForEntity(ctx, "phone", "abc", 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.NotNil(t, listed)

	all, err := svc.ListAll(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAuditService_AppendFailure(t *testing.T) {
	m := metrics.NewAuditMetrics(nil)
	pub := &recordingPublisher{}
	svc := NewAuditService(failingAuditRepo{}, WithMetrics(m), WithPublisher(pub))

	_, err := svc.Record(context.Background(), audit.Target{Kind: domain.KindPhone, ID: "7"}, nil, phone("Active"))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AppendFailures.WithLabelValues("phone")))

	svc.Close()
	assert.Empty(t, pub.published())
}

func TestAuditService_PublishFailureIsNotFatal(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	m := metrics.NewAuditMetrics(nil)
	svc := NewAuditService(repo, WithMetrics(m), WithPublisher(&recordingPublisher{err: errors.New("broker down")}))
	ctx := context.Background()

	events, err := svc.Record(ctx, audit.Target{Kind: domain.KindPhone, ID: "7"}, phone("Active"), phone("Inactive"))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	svc.Close()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishFailures))

	stored, err := svc.ListForEntity(ctx, "phone", "7", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestAuditService_SlowPublisherDoesNotBlockRecord(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	pub := newBlockingPublisher()
	svc := NewAuditService(repo, WithPublisher(pub))
	ctx := context.Background()
	target := audit.Target{Kind: domain.KindPhone, ID: "7", Label: "CEL-007"}

	_, err := svc.Record(ctx, target, nil, phone("Active"))
	require.NoError(t, err)
	<-pub.started

	done := make(chan error, 1)
	go func() {
		_, err := svc.Record(ctx, target, phone("Active"), phone("Inactive"))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Record waited on the publisher")
	}
	assert.Empty(t, pub.published())

	close(pub.release)
	svc.Close()
	assert.Equal(t, []domain.Action{domain.ActionCreate, domain.ActionFieldChange, domain.ActionUpdateSummary}, actions(pub.published()))
}

func TestAuditService_FullPublishQueueDropsBatch(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	m := metrics.NewAuditMetrics(nil)
	pub := newBlockingPublisher()
	svc := NewAuditService(repo, WithMetrics(m), WithPublisher(pub), WithPublishQueue(1))
	ctx := context.Background()
	target := audit.Target{Kind: domain.KindPhone, ID: "7"}

	_, err := svc.Record(ctx, target, nil, phone("Active"))
	require.NoError(t, err)
	<-pub.started

	_, err = svc.Record(ctx, target, phone("Active"), phone("Inactive"))
	require.NoError(t, err)
	_, err = svc.Record(ctx, target, phone("Inactive"), phone("Active"))
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishFailures))

	close(pub.release)
	svc.Close()
	assert.Len(t, pub.published(), 3)

	stored, err := svc.ListForEntity(ctx, "phone", "7", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestAuditService_CloseIsIdempotent(t *testing.T) {
	svc := NewAuditService(repository.NewInMemoryAuditRepository(), WithPublisher(&recordingPublisher{}))
	svc.Close()
	svc.Close()

	_, err := svc.Record(context.Background(), audit.Target{Kind: domain.KindPhone, ID: "7"}, nil, phone("Active"))
	assert.NoError(t, err)

	NewAuditService(repository.NewInMemoryAuditRepository()).Close()
}

func TestAuditService_RecordDeletion(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	svc := NewAuditService(repo)

	ev, err := svc.RecordDeletion(context.Background(), audit.Target{Kind: domain.KindPhone, ID: "7", Label: "CEL-007", Actor: "rui"}, phone("Active"))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, domain.ActionDelete, ev.Action)
	assert.Equal(t, "phone CEL-007 excluído do sistema", ev.Description)
	tag, _ := ev.Before.Get("tag")
	assert.Equal(t, "CEL-007", tag)
	assert.Nil(t, ev.After)
}

func TestAuditService_ListForEntityKinds(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	svc := NewAuditService(repo)
	ctx := context.Background()

	_, err := svc.Record(ctx, audit.Target{Kind: domain.KindPhone, ID: "7"}, nil, phone("Active"))
	require.NoError(t, err)
	_, err = svc.Record(ctx, audit.Target{Kind: domain.KindBranch, ID: "7"}, nil,
		domain.NewSnapshot().Set("id", 7).Set("name", "Matriz"))
	require.NoError(t, err)

	anyKind, err := svc.ListForEntity(ctx, "any", "7", 0)
	require.NoError(t, err)
	assert.Len(t, anyKind, 2)

	branches, err := svc.ListForEntity(ctx, "Branch", "7", 0)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, domain.KindBranch, branches[0].EntityKind)

	_, err = svc.ListForEntity(ctx, "printer", "7", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownEntityKind)

	missing, err := svc.ListForEntity(ctx, "", "999", 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestAuditService_ListLimits(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	svc := NewAuditService(repo, WithListLimits(2, 3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Record(ctx, audit.Target{Kind: domain.KindPhone, ID: "7", Actor: "ana"}, nil, phone("Active"))
		require.NoError(t, err)
	}

	def, err := svc.ListAll(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, def, 2)

	capped, err := svc.ListAll(ctx, "ana", 50)
	require.NoError(t, err)
	assert.Len(t, capped, 3)

	none, err := svc.ListAll(ctx, "rui", 50)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuditService_ReadErrors(t *testing.T) {
	svc := NewAuditService(failingAuditRepo{})
	ctx := context.Background()

	_, err := svc.ListAll(ctx, "", 0)
	assert.ErrorIs(t, err, errStoreDown)
	_, err = svc.ListForEntity(ctx, "", "1", 0)
	assert.ErrorIs(t, err, errStoreDown)
	_, err = svc.Statistics(ctx)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestAuditService_NilIsNoop(t *testing.T) {
	var svc *AuditService
	events, err := svc.Record(context.Background(), audit.Target{Kind: domain.KindPhone, ID: "7"}, nil, phone("Active"))
	assert.NoError(t, err)
	assert.Nil(t, events)
}
