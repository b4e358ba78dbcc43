package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the caller-supplied description of one attachment. The raw
// bytes are never part of it; they are resolved from the file cache by
// document id.
type Document struct {
	Id       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	FileName string `json:"fileName"`
}

// DocumentArtifact is the persisted metadata of one committed attachment.
// It exists only once the blob at StoredPath does.
type DocumentArtifact struct {
	// {SubmissionId}/{DocumentId}
	Id               string    `json:"id" bson:"_id"`
	DocumentId       string    `json:"documentId" bson:"documentId"`
	SubmissionId     string    `json:"submissionId" bson:"submissionId"`
	Title            string    `json:"title" bson:"title"`
	Category         string    `json:"category" bson:"category"`
	StoredPath       string    `json:"storedPath" bson:"storedPath"`
	OriginalFileName string    `json:"originalFileName" bson:"originalFileName"`
	SizeBytes        int64     `json:"sizeBytes" bson:"sizeBytes"`
	UploadedAt       time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// ReconcileTask records blob or record deletes that compensation could not
// complete, so the periodic sweep can retry them instead of leaking orphans.
type ReconcileTask struct {
	Id           primitive.ObjectID `bson:"_id,omitempty"`
	SubmissionId string             `bson:"submissionId"`
	Keys         []string           `bson:"keys"`
	DeleteRecord bool               `bson:"deleteRecord"`
	Timestamp    int64              `bson:"timestamp"`
}
