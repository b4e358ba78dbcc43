package submissionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/review-submit-server/db"
	"github.com/anyproto/review-submit-server/domain"
)

const CName = "submission.repo"

var ErrNotFound = errors.New("submission not found")

func New() SubmissionRepo {
	return new(submissionRepo)
}

type SubmissionRepo interface {
	SubmissionCreate(ctx context.Context, sub *domain.Submission) (err error)
	SubmissionGet(ctx context.Context, id string) (sub *domain.Submission, err error)
	SubmissionDelete(ctx context.Context, id string) (err error)
	SubmissionCommit(ctx context.Context, id string) (err error)
	ArtifactsPut(ctx context.Context, submissionId string, artifacts []domain.DocumentArtifact) (err error)
	ArtifactsList(ctx context.Context, submissionId string) (artifacts []domain.DocumentArtifact, err error)
	ReconcileCreate(ctx context.Context, task domain.ReconcileTask) (err error)
	IterateReconcileTasks(ctx context.Context, do func(task domain.ReconcileTask) error) error
	ReconcileDelete(ctx context.Context, id primitive.ObjectID) (err error)
	IterateOutdatedSubmissionIds(ctx context.Context, before time.Time, do func(id string) error) error
	app.ComponentRunnable
}

var (
	submissionIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
			},
		},
	}
	artifactIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "submissionId", Value: 1},
			},
		},
	}
)

type submissionRepo struct {
	db             db.Database
	submissionColl *mongo.Collection
	artifactColl   *mongo.Collection
	reconcileColl  *mongo.Collection
}

func (r *submissionRepo) Name() (name string) {
	return CName
}

func (r *submissionRepo) Init(a *app.App) (err error) {
	r.db = a.MustComponent(db.CName).(db.Database)
	r.submissionColl = r.db.Db().Collection("submissions")
	r.artifactColl = r.db.Db().Collection("artifacts")
	r.reconcileColl = r.db.Db().Collection("reconcile")
	return
}

func (r *submissionRepo) Run(ctx context.Context) (err error) {
	if err = ensureIndexes(ctx, r.submissionColl, submissionIndexes...); err != nil {
		return
	}
	if err = ensureIndexes(ctx, r.artifactColl, artifactIndexes...); err != nil {
		return
	}
	return
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes ...mongo.IndexModel) (err error) {
	existingIndexes, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		return
	}
	if len(existingIndexes) <= 1 {
		_, err = coll.Indexes().CreateMany(ctx, indexes)
	}
	return
}

func (r *submissionRepo) SubmissionCreate(ctx context.Context, sub *domain.Submission) (err error) {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err = r.submissionColl.InsertOne(ctx, sub)
	return
}

func (r *submissionRepo) SubmissionGet(ctx context.Context, id string) (sub *domain.Submission, err error) {
	if err = r.submissionColl.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return
	}
	return
}

// SubmissionDelete removes the record and its artifact metadata. Deleting a
// record that is already gone is not an error.
func (r *submissionRepo) SubmissionDelete(ctx context.Context, id string) (err error) {
	if _, err = r.artifactColl.DeleteMany(ctx, bson.D{{Key: "submissionId", Value: id}}); err != nil {
		return
	}
	_, err = r.submissionColl.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return
}

// SubmissionCommit marks the record committed and touches updatedAt.
func (r *submissionRepo) SubmissionCommit(ctx context.Context, id string) (err error) {
	res, err := r.submissionColl.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: domain.SubmissionStatusCommitted},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	)
	if err != nil {
		return
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return
}

// ArtifactsPut writes every artifact row in one transaction, so the metadata
// sub-collection is never observable half-written.
func (r *submissionRepo) ArtifactsPut(ctx context.Context, submissionId string, artifacts []domain.DocumentArtifact) (err error) {
	if len(artifacts) == 0 {
		return
	}
	docs := make([]any, len(artifacts))
	for i := range artifacts {
		artifacts[i].SubmissionId = submissionId
		artifacts[i].Id = submissionId + "/" + artifacts[i].DocumentId
		docs[i] = artifacts[i]
	}
	return r.db.Tx(ctx, func(ctx mongo.SessionContext) (err error) {
		_, err = r.artifactColl.InsertMany(ctx, docs)
		return
	})
}

func (r *submissionRepo) ArtifactsList(ctx context.Context, submissionId string) (artifacts []domain.DocumentArtifact, err error) {
	cur, err := r.artifactColl.Find(ctx, bson.D{{Key: "submissionId", Value: submissionId}})
	if err != nil {
		return
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	err = cur.All(ctx, &artifacts)
	return
}

func (r *submissionRepo) ReconcileCreate(ctx context.Context, task domain.ReconcileTask) (err error) {
	if task.Id.IsZero() {
		task.Id = primitive.NewObjectID()
	}
	task.Timestamp = time.Now().Unix()
	_, err = r.reconcileColl.InsertOne(ctx, task)
	return
}

func (r *submissionRepo) IterateReconcileTasks(ctx context.Context, do func(task domain.ReconcileTask) error) error {
	cur, err := r.reconcileColl.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer func() {
		_ = cur.Close(context.Background())
	}()
	for cur.Next(ctx) {
		var task domain.ReconcileTask
		if err = cur.Decode(&task); err != nil {
			return err
		}
		if err = do(task); err != nil {
			return err
		}
	}
	return nil
}

func (r *submissionRepo) ReconcileDelete(ctx context.Context, id primitive.ObjectID) (err error) {
	_, err = r.reconcileColl.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return
}

// IterateOutdatedSubmissionIds visits records stuck in Created since before
// the given time. Those are leftovers of commits that died between record
// create and compensation.
func (r *submissionRepo) IterateOutdatedSubmissionIds(ctx context.Context, before time.Time, do func(id string) error) error {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	query := bson.D{
		{Key: "status", Value: domain.SubmissionStatusCreated},
		{Key: "createdAt", Value: bson.D{
			{Key: "$lt", Value: before},
		}},
	}
	cur, err := r.submissionColl.Find(ctx, query, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = cur.Close(context.Background())
	}()
	var doc = struct {
		Id string `bson:"_id"`
	}{}
	for cur.Next(ctx) {
		if err = cur.Decode(&doc); err != nil {
			return err
		}
		if err = do(doc.Id); err != nil {
			return err
		}
	}
	return nil
}

func (r *submissionRepo) Close(ctx context.Context) (err error) {
	return
}
