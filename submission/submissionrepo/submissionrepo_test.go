package submissionrepo

import (
	"context"
	"testing"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/review-submit-server/db"
	"github.com/anyproto/review-submit-server/domain"
)

var ctx = context.Background()

func newTestSubmission(id string) *domain.Submission {
	return &domain.Submission{
		Id:           id,
		TrackingCode: "TMP-20260830-ABCDEF",
		OwnerId:      "owner1",
		Payload:      map[string]any{"field": "value"},
		Status:       domain.SubmissionStatusCreated,
	}
}

func TestSubmissionRepo_SubmissionCreate(t *testing.T) {
	fx := newFixture(t)
	sub := newTestSubmission("s1")
	require.NoError(t, fx.SubmissionCreate(ctx, sub))
	assert.False(t, sub.CreatedAt.IsZero())

	got, err := fx.SubmissionGet(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "owner1", got.OwnerId)
	assert.Equal(t, domain.SubmissionStatusCreated, got.Status)
	assert.Equal(t, "value", got.Payload["field"])
}

func TestSubmissionRepo_SubmissionGet(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.SubmissionGet(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionRepo_SubmissionDelete(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.SubmissionCreate(ctx, newTestSubmission("s1")))
	require.NoError(t, fx.SubmissionDelete(ctx, "s1"))
	_, err := fx.SubmissionGet(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	// deleting an already-gone record is a no-op
	require.NoError(t, fx.SubmissionDelete(ctx, "s1"))
}

func TestSubmissionRepo_SubmissionCommit(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.SubmissionCreate(ctx, newTestSubmission("s1")))
	require.NoError(t, fx.SubmissionCommit(ctx, "s1"))
	got, err := fx.SubmissionGet(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusCommitted, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	assert.ErrorIs(t, fx.SubmissionCommit(ctx, "missing"), ErrNotFound)
}

func TestSubmissionRepo_Artifacts(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.SubmissionCreate(ctx, newTestSubmission("s1")))
	artifacts := []domain.DocumentArtifact{
		{DocumentId: "d1", Title: "Doc One", StoredPath: "submissions/s1/documents/doc-one.tar.sz", SizeBytes: 10, UploadedAt: time.Now()},
		{DocumentId: "d2", Title: "Doc Two", StoredPath: "submissions/s1/documents/doc-two.tar.sz", SizeBytes: 20, UploadedAt: time.Now()},
	}
	require.NoError(t, fx.ArtifactsPut(ctx, "s1", artifacts))

	list, err := fx.ArtifactsList(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1/d1", list[0].Id)
	assert.Equal(t, "s1", list[0].SubmissionId)

	// record delete takes the artifacts with it
	require.NoError(t, fx.SubmissionDelete(ctx, "s1"))
	list, err = fx.ArtifactsList(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmissionRepo_Reconcile(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.ReconcileCreate(ctx, domain.ReconcileTask{
		SubmissionId: "s1",
		Keys:         []string{"submissions/s1/documents/a.tar.sz"},
		DeleteRecord: true,
	}))
	var tasks []domain.ReconcileTask
	require.NoError(t, fx.IterateReconcileTasks(ctx, func(task domain.ReconcileTask) error {
		tasks = append(tasks, task)
		return nil
	}))
	require.Len(t, tasks, 1)
	assert.Equal(t, "s1", tasks[0].SubmissionId)
	assert.True(t, tasks[0].DeleteRecord)
	assert.NotZero(t, tasks[0].Timestamp)

	require.NoError(t, fx.ReconcileDelete(ctx, tasks[0].Id))
	tasks = tasks[:0]
	require.NoError(t, fx.IterateReconcileTasks(ctx, func(task domain.ReconcileTask) error {
		tasks = append(tasks, task)
		return nil
	}))
	assert.Empty(t, tasks)
}

func TestSubmissionRepo_IterateOutdatedSubmissionIds(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.SubmissionCreate(ctx, newTestSubmission("fresh")))
	committed := newTestSubmission("committed")
	require.NoError(t, fx.SubmissionCreate(ctx, committed))
	require.NoError(t, fx.SubmissionCommit(ctx, "committed"))

	var ids []string
	require.NoError(t, fx.IterateOutdatedSubmissionIds(ctx, time.Now().Add(time.Hour), func(id string) error {
		ids = append(ids, id)
		return nil
	}))
	assert.Equal(t, []string{"fresh"}, ids)

	ids = ids[:0]
	require.NoError(t, fx.IterateOutdatedSubmissionIds(ctx, time.Now().Add(-time.Hour), func(id string) error {
		ids = append(ids, id)
		return nil
	}))
	assert.Empty(t, ids)
}

func newFixture(t testing.TB) *fixture {
	fx := &fixture{
		SubmissionRepo: New(),
		a:              new(app.App),
	}
	fx.a.Register(&testConfig{
		Mongo: db.Mongo{
			Connect:  "mongodb://localhost:27017",
			Database: "review_submit_unittest",
		},
	}).
		Register(db.New()).
		Register(fx.SubmissionRepo)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		fx.finish(t)
	})
	return fx
}

type fixture struct {
	SubmissionRepo
	a *app.App
}

func (fx *fixture) finish(t testing.TB) {
	repo := fx.SubmissionRepo.(*submissionRepo)
	_ = repo.submissionColl.Drop(ctx)
	_ = repo.artifactColl.Drop(ctx)
	_ = repo.reconcileColl.Drop(ctx)
	require.NoError(t, fx.a.Close(ctx))
}

type testConfig struct {
	Mongo db.Mongo
}

func (t testConfig) Init(a *app.App) (err error) {
	return
}

func (t testConfig) Name() (name string) {
	return "config"
}

func (t testConfig) GetMongo() db.Mongo {
	return t.Mongo
}
