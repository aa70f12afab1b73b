package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SystemLog stores structured error logs so they can be queried next to the
// data they concern.
type SystemLog struct {
	BaseDocument `bson:",inline"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Level        string    `bson:"level" json:"level"`
	Message      string    `bson:"message" json:"message"`
	TraceID      string    `bson:"traceId,omitempty" json:"trace_id,omitempty"`
	UserID       *string   `bson:"userId,omitempty" json:"user_id,omitempty"`
	Action       string    `bson:"action,omitempty" json:"action,omitempty"`
	Collection   string    `bson:"collection,omitempty" json:"collection,omitempty"`
	Error        string    `bson:"error,omitempty" json:"error,omitempty"`
	LatencyMs    int       `bson:"latencyMs,omitempty" json:"latency_ms,omitempty"`
	Extra        bson.M    `bson:"extra,omitempty" json:"extra,omitempty"`
}
