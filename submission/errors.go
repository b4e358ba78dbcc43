package submission

import (
	"fmt"
	"strings"
)

type ErrorKind uint8

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindRecordCreateFailed
	ErrorKindVerificationFailed
	ErrorKindMissingFileReferences
	ErrorKindUploadFailed
	ErrorKindMetadataWriteFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindRecordCreateFailed:
		return "recordCreateFailed"
	case ErrorKindVerificationFailed:
		return "verificationFailed"
	case ErrorKindMissingFileReferences:
		return "missingFileReferences"
	case ErrorKindUploadFailed:
		return "uploadFailed"
	case ErrorKindMetadataWriteFailed:
		return "metadataWriteFailed"
	}
	return "unknown"
}

// CommitError is the only error Commit returns. Exactly one Kind is set;
// DocumentId and MissingDocumentIds are populated only by the kinds that
// carry them. The Cause is always the original failure, never a compensation
// one.
type CommitError struct {
	Kind               ErrorKind
	DocumentId         string
	MissingDocumentIds []string
	Cause              error
}

func (e *CommitError) Error() string {
	switch e.Kind {
	case ErrorKindRecordCreateFailed:
		return fmt.Sprintf("submission record create failed: %v", e.Cause)
	case ErrorKindVerificationFailed:
		return fmt.Sprintf("submission record verification failed: %v", e.Cause)
	case ErrorKindMissingFileReferences:
		return fmt.Sprintf("missing file references: %s", strings.Join(e.MissingDocumentIds, ", "))
	case ErrorKindUploadFailed:
		return fmt.Sprintf("upload failed for document %s: %v", e.DocumentId, e.Cause)
	case ErrorKindMetadataWriteFailed:
		return fmt.Sprintf("artifact metadata write failed: %v", e.Cause)
	}
	return "commit failed"
}

func (e *CommitError) Unwrap() error {
	return e.Cause
}

func errRecordCreate(cause error) *CommitError {
	return &CommitError{Kind: ErrorKindRecordCreateFailed, Cause: cause}
}

func errVerification(cause error) *CommitError {
	return &CommitError{Kind: ErrorKindVerificationFailed, Cause: cause}
}

func errMissingFileReferences(ids []string) *CommitError {
	return &CommitError{Kind: ErrorKindMissingFileReferences, MissingDocumentIds: ids}
}

func errUpload(documentId string, cause error) *CommitError {
	return &CommitError{Kind: ErrorKindUploadFailed, DocumentId: documentId, Cause: cause}
}

func errMetadataWrite(cause error) *CommitError {
	return &CommitError{Kind: ErrorKindMetadataWriteFailed, Cause: cause}
}
