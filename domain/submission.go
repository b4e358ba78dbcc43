package domain

import "time"

type SubmissionStatus uint8

const (
	SubmissionStatusCreated SubmissionStatus = iota
	SubmissionStatusCommitted
)

// Submission is the durable record of one review package. Past
// SubmissionStatusCreated its OwnerId is guaranteed to match the actor that
// created it.
type Submission struct {
	Id           string           `json:"id" bson:"_id"`
	TrackingCode string           `json:"trackingCode" bson:"trackingCode"`
	OwnerId      string           `json:"ownerId" bson:"ownerId"`
	Payload      map[string]any   `json:"payload" bson:"payload"`
	Status       SubmissionStatus `json:"status" bson:"status"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt" bson:"updatedAt"`
}

type SubmissionWithArtifacts struct {
	Submission
	Artifacts []DocumentArtifact `json:"artifacts"`
}
