package submission

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/util/periodicsync"
	"go.uber.org/zap"

	"github.com/anyproto/review-submit-server/archive"
	"github.com/anyproto/review-submit-server/domain"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/idgen"
	"github.com/anyproto/review-submit-server/store"
	"github.com/anyproto/review-submit-server/submission/submissionrepo"
)

const CName = "submission.service"

var log = logger.NewNamed(CName)

const blobKeyPrefix = "submissions"

func New() Service {
	return new(submissionService)
}

type Service interface {
	app.ComponentRunnable
	// Commit runs the whole submission saga: create record, verify it is
	// durably visible, validate file references, upload every document,
	// persist artifact metadata. Any failure past record creation rolls back
	// everything already written and surfaces as a *CommitError.
	Commit(ctx context.Context, ownerId string, payload map[string]any, docs []domain.Document) (submissionId, trackingCode string, err error)
	Status(ctx context.Context, id string) (res domain.SubmissionWithArtifacts, err error)
}

type submissionService struct {
	conf     Config
	repo     submissionrepo.SubmissionRepo
	store    store.Store
	files    filecache.FileCache
	verifier *verifier
	ticker   periodicsync.PeriodicSync
}

func (s *submissionService) Init(a *app.App) (err error) {
	s.conf = a.MustComponent("config").(configGetter).GetSubmission()
	s.repo = a.MustComponent(submissionrepo.CName).(submissionrepo.SubmissionRepo)
	s.store = a.MustComponent(store.CName).(store.Store)
	s.files = a.MustComponent(filecache.CName).(filecache.FileCache)
	s.verifier = &verifier{
		repo:        s.repo,
		maxAttempts: s.conf.verifyAttempts(),
		baseDelay:   s.conf.verifyBaseDelay(),
	}
	s.ticker = periodicsync.NewPeriodicSync(s.conf.sweepIntervalSec(), 0, s.Sweep, log)
	return
}

func (s *submissionService) Name() (name string) {
	return CName
}

func (s *submissionService) Run(ctx context.Context) (err error) {
	s.ticker.Run()
	return
}

func (s *submissionService) Commit(ctx context.Context, ownerId string, payload map[string]any, docs []domain.Document) (submissionId, trackingCode string, err error) {
	id, code := idgen.New()
	sub := &domain.Submission{
		Id:           id,
		TrackingCode: code,
		OwnerId:      ownerId,
		Payload:      payload,
		Status:       domain.SubmissionStatusCreated,
	}
	if err = s.repo.SubmissionCreate(ctx, sub); err != nil {
		// nothing was written, nothing to compensate
		return "", "", errRecordCreate(err)
	}
	log.Debug("submission record created", zap.String("id", id), zap.String("ownerId", ownerId))

	if verr := s.verifier.Verify(ctx, id, ownerId); verr != nil {
		s.compensate(id, nil)
		return "", "", errVerification(verr)
	}

	if missing := s.missingReferences(ctx, docs); len(missing) > 0 {
		s.compensate(id, nil)
		return "", "", errMissingFileReferences(missing)
	}

	// Uploads run strictly sequentially; every blob that lands is appended
	// to uploadedKeys, so compensation targets exactly what was written.
	var (
		uploadedKeys []string
		artifacts    = make([]domain.DocumentArtifact, 0, len(docs))
	)
	for _, doc := range docs {
		if cerr := ctx.Err(); cerr != nil {
			s.compensate(id, uploadedKeys)
			return "", "", errUpload(doc.Id, cerr)
		}
		key, size, uerr := s.uploadOne(ctx, id, doc)
		if uerr != nil {
			log.Warn("document upload failed",
				zap.String("submissionId", id),
				zap.String("documentId", doc.Id),
				zap.String("code", store.ErrorCode(uerr)),
				zap.Error(uerr))
			s.compensate(id, uploadedKeys)
			return "", "", errUpload(doc.Id, uerr)
		}
		uploadedKeys = append(uploadedKeys, key)
		artifacts = append(artifacts, domain.DocumentArtifact{
			DocumentId:       doc.Id,
			Title:            doc.Title,
			Category:         doc.Category,
			StoredPath:       key,
			OriginalFileName: doc.FileName,
			SizeBytes:        size,
			UploadedAt:       time.Now(),
		})
	}

	if cerr := ctx.Err(); cerr != nil {
		s.compensate(id, uploadedKeys)
		return "", "", errMetadataWrite(cerr)
	}
	if merr := s.repo.ArtifactsPut(ctx, id, artifacts); merr != nil {
		s.compensate(id, uploadedKeys)
		return "", "", errMetadataWrite(merr)
	}
	if merr := s.repo.SubmissionCommit(ctx, id); merr != nil {
		s.compensate(id, uploadedKeys)
		return "", "", errMetadataWrite(merr)
	}
	log.Info("submission committed",
		zap.String("id", id),
		zap.String("trackingCode", code),
		zap.Int("documents", len(docs)))
	return id, code, nil
}

func (s *submissionService) Status(ctx context.Context, id string) (res domain.SubmissionWithArtifacts, err error) {
	sub, err := s.repo.SubmissionGet(ctx, id)
	if err != nil {
		return
	}
	res.Submission = *sub
	res.Artifacts, err = s.repo.ArtifactsList(ctx, id)
	return
}

// missingReferences resolves every document id up front so a dead reference
// is caught before the first upload instead of midway through. Every
// unresolvable id is reported, not just the first. Pure read of the cache,
// so calling it twice yields the same answer.
func (s *submissionService) missingReferences(ctx context.Context, docs []domain.Document) (missing []string) {
	for _, doc := range docs {
		if _, err := s.files.Resolve(ctx, doc.Id); err != nil {
			missing = append(missing, doc.Id)
		}
	}
	return
}

func (s *submissionService) uploadOne(ctx context.Context, submissionId string, doc domain.Document) (key string, size int64, err error) {
	data, err := s.files.Resolve(ctx, doc.Id)
	if err != nil {
		return
	}
	name, archived, err := archive.Archive(doc.Title, doc.FileName, data)
	if err != nil {
		return
	}
	key = blobKey(submissionId, name)
	uctx, cancel := context.WithTimeout(ctx, s.conf.uploadTimeout())
	defer cancel()
	if err = s.store.Put(uctx, key, store.NewFile(name, archived)); err != nil {
		return "", 0, err
	}
	return key, int64(len(data)), nil
}

func blobKey(submissionId, archivedName string) string {
	return blobKeyPrefix + "/" + submissionId + "/documents/" + archivedName
}

func blobPrefix(submissionId string) string {
	return blobKeyPrefix + "/" + submissionId + "/"
}

// compensate reverses everything a failed commit attempt already wrote: each
// uploaded blob, then the record. It is best-effort and never reports back to
// the caller; deletes that do not go through are queued as reconcile tasks
// for the sweep. The context is detached from the caller's so a cancelled
// commit still cleans up after itself.
func (s *submissionService) compensate(submissionId string, uploadedKeys []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	var failedKeys []string
	for _, key := range uploadedKeys {
		if err := s.store.DeleteObject(ctx, key); err != nil {
			log.Warn("compensation: blob delete failed", zap.String("key", key), zap.Error(err))
			failedKeys = append(failedKeys, key)
		}
	}
	recordDeleted := true
	if err := s.repo.SubmissionDelete(ctx, submissionId); err != nil {
		log.Warn("compensation: record delete failed", zap.String("submissionId", submissionId), zap.Error(err))
		recordDeleted = false
	}
	if len(failedKeys) == 0 && recordDeleted {
		return
	}
	task := domain.ReconcileTask{
		SubmissionId: submissionId,
		Keys:         failedKeys,
		DeleteRecord: !recordDeleted,
	}
	if err := s.repo.ReconcileCreate(ctx, task); err != nil {
		log.Error("compensation: reconcile task write failed",
			zap.String("submissionId", submissionId),
			zap.Strings("keys", failedKeys),
			zap.Error(err))
	}
}

// Sweep retries queued reconcile tasks and garbage-collects submissions
// stuck in Created longer than the configured age.
func (s *submissionService) Sweep(ctx context.Context) error {
	err := s.repo.IterateReconcileTasks(ctx, func(task domain.ReconcileTask) error {
		if derr := s.store.DeletePath(ctx, blobPrefix(task.SubmissionId)); derr != nil {
			log.Warn("sweep: blob cleanup failed", zap.String("submissionId", task.SubmissionId), zap.Error(derr))
			return nil
		}
		if task.DeleteRecord {
			if derr := s.repo.SubmissionDelete(ctx, task.SubmissionId); derr != nil {
				log.Warn("sweep: record delete failed", zap.String("submissionId", task.SubmissionId), zap.Error(derr))
				return nil
			}
		}
		return s.repo.ReconcileDelete(ctx, task.Id)
	})
	if err != nil {
		return err
	}
	before := time.Now().Add(-s.conf.keepUncommitted())
	return s.repo.IterateOutdatedSubmissionIds(ctx, before, func(id string) error {
		if derr := s.store.DeletePath(ctx, blobPrefix(id)); derr != nil {
			log.Warn("sweep: outdated blob cleanup failed", zap.String("submissionId", id), zap.Error(derr))
			return nil
		}
		if derr := s.repo.SubmissionDelete(ctx, id); derr != nil {
			log.Warn("sweep: outdated record delete failed", zap.String("submissionId", id), zap.Error(derr))
			return nil
		}
		log.Info("sweep: deleted outdated uncommitted submission", zap.String("submissionId", id))
		return nil
	})
}

func (s *submissionService) Close(ctx context.Context) (err error) {
	s.ticker.Close()
	return
}
