package pipeline

import (
	"fmt"
	"strings"
)

// Notification is one storage-write event: a blob landed in a bucket. The
// transform and load stages are driven by lists of these.
type Notification struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Entity derives the source/output entity name from the blob key. Both the
// raw and processed conventions keep the entity as the second path segment:
//
//	ingestion/{entity}/{yyyy}/{mm}/{dd}/{entity}_{ts}.json
//	processed/{entity}/{entity}_{ts}.parquet
//	history/{entity}/{entity}_{ts}.parquet
func (n Notification) Entity() (string, error) {
	segments := strings.Split(strings.Trim(n.Key, "/"), "/")
	if len(segments) < 3 || segments[1] == "" {
		return "", fmt.Errorf("key %q does not follow the {area}/{entity}/... convention", n.Key)
	}
	return segments[1], nil
}
