// Package mongorepos implements the entity repositories on MongoDB.
package mongorepos

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/roster/core"
)

// objectID parses a hex id; ok is false for malformed ids, which can never match a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// sortDoc converts orderings to a mongo sort document, keeping only allowed fields.
// The id is always the last key so pages are stable.
func sortDoc(ordering []core.DBOrdering, allowed map[string]bool) bson.D {
	sort := make(bson.D, 0, len(ordering)+1)
	for _, ord := range ordering {
		if !allowed[ord.Field] {
			continue
		}
		direction := -1
		if ord.Ascending {
			direction = 1
		}
		sort = append(sort, bson.E{Key: ord.Field, Value: direction})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}
