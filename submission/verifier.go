package submission

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/review-submit-server/retry"
	"github.com/anyproto/review-submit-server/submission/submissionrepo"
)

var errOwnerMismatch = errors.New("submission owned by another actor")

// verifier confirms a just-created record is durably readable and attributed
// to the expected owner before any irreversible step runs. Replicated
// document stores may serve a stale read right after the write, so a miss is
// retried with linear backoff up to maxAttempts instead of failing the
// commit outright.
type verifier struct {
	repo        submissionrepo.SubmissionRepo
	maxAttempts int
	baseDelay   time.Duration
}

func (v *verifier) Verify(ctx context.Context, id, expectedOwnerId string) error {
	return retry.Do(ctx, v.maxAttempts, retry.Linear(v.baseDelay), func(ctx context.Context) error {
		sub, err := v.repo.SubmissionGet(ctx, id)
		if err != nil {
			return err
		}
		if sub.OwnerId != expectedOwnerId {
			return errOwnerMismatch
		}
		return nil
	})
}
