package icp

import (
	"strings"

	"github.com/sells-group/solar-leads/internal/model"
)

// GeneralCommercialLabel is the neutral label callers assign when no bucket
// matches.
const GeneralCommercialLabel = "General Commercial"

// Classify maps a record's business name and type tags to an ICP bucket.
// The exclusion bucket short-circuits before any priority bucket is
// considered; within each tier the first keyword match wins. An empty bucket
// ID with zero adjustment means no match, and the caller labels the record
// General Commercial.
func (t *Table) Classify(record *model.BuildingRecord) (bucketID string, adjustment int) {
	blob := strings.ToLower(record.BusinessName)
	if len(record.BusinessTypes) > 0 {
		blob += " " + strings.ToLower(strings.Join(record.BusinessTypes, " "))
	}
	if strings.TrimSpace(blob) == "" {
		return "", 0
	}

	for _, bucket := range t.buckets {
		for _, kw := range bucket.Keywords {
			if strings.Contains(blob, kw) {
				return bucket.ID, bucket.Adjustment
			}
		}
	}
	return "", 0
}

// Apply classifies the record and stamps the bucket label and pipeline state
// on a copy, returning it together with the score adjustment for the scorer.
func (t *Table) Apply(record model.BuildingRecord) (model.BuildingRecord, int) {
	bucketID, adj := t.Classify(&record)
	if bucketID == "" {
		record.ICPBucket = GeneralCommercialLabel
	} else {
		record.ICPBucket = bucketID
	}
	record.State = model.StateClassified
	return record, adj
}
