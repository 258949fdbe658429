package tutorial

import "go.mongodb.org/mongo-driver/bson/primitive"

// InsertResult, UpdateResult and DeleteResult mirror what the store reports for a
// write so clients get the same acknowledgement shape regardless of backend.

type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Stats is the aggregate returned by GET /stats.
type Stats struct {
	TotalTutorials int   `json:"totalTutorials"`
	TotalReviews   int64 `json:"totalReviews"`
	TotalLanguages int   `json:"totalLanguages"`
	TotalUsers     int   `json:"totalUsers"`
}

// BookingRequest is the body of POST /book-tutorial.
type BookingRequest struct {
	TutorialID string `json:"tutorialId"`
	UserEmail  string `json:"userEmail"`
}
