package geo

import (
	"strings"

	"github.com/sells-group/solar-leads/internal/model"
)

// DefaultDistanceThreshold is the merge radius in meters for duplicate
// building detection.
const DefaultDistanceThreshold = 20.0

// AreDuplicates decides whether two building records refer to the same
// physical structure. When either record lacks coordinates the decision falls
// back to exact normalized-address comparison. Within the distance threshold,
// matching addresses, a missing address on either side, or a matching street
// line all count as a duplicate.
//
// This is a single pairwise decision, not a clustering step, and it is not
// guaranteed to be transitive near the threshold. Callers needing N-way
// clusters should union pairwise results (see MergeDuplicates).
func AreDuplicates(a, b *model.BuildingRecord, thresholdMeters float64) bool {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		addrA := strings.ToUpper(a.NormalizedAddress)
		addrB := strings.ToUpper(b.NormalizedAddress)
		return addrA != "" && addrA == addrB
	}

	d := Distance(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
	if d > thresholdMeters {
		return false
	}

	addrA := strings.ToUpper(a.NormalizedAddress)
	addrB := strings.ToUpper(b.NormalizedAddress)
	if addrA == addrB || addrA == "" || addrB == "" {
		// Equal, or insufficient evidence to separate near-field records.
		return true
	}

	streetA := strings.ToUpper(a.Components.StreetLine())
	streetB := strings.ToUpper(b.Components.StreetLine())
	return streetA != "" && streetA == streetB
}

// MergeDuplicates collapses a record list into one record per physical
// building by union-find over pairwise AreDuplicates decisions. The first
// record of each cluster survives; its Sources gain the merged records'
// sources and missing coordinates are filled from later cluster members.
func MergeDuplicates(records []model.BuildingRecord, thresholdMeters float64) []model.BuildingRecord {
	n := len(records)
	if n <= 1 {
		return records
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			if rj < ri {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if AreDuplicates(&records[i], &records[j], thresholdMeters) {
				union(i, j)
			}
		}
	}

	merged := make(map[int]*model.BuildingRecord)
	var order []int
	for i := range records {
		root := find(i)
		keep, ok := merged[root]
		if !ok {
			r := records[i]
			r.State = model.StateDedupChecked
			merged[root] = &r
			order = append(order, root)
			continue
		}
		keep.Sources = appendUnique(keep.Sources, records[i].Sources...)
		if !keep.HasCoordinates() && records[i].HasCoordinates() {
			keep.Latitude = records[i].Latitude
			keep.Longitude = records[i].Longitude
		}
	}

	out := make([]model.BuildingRecord, 0, len(order))
	for _, root := range order {
		out = append(out, *merged[root])
	}
	return out
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		seen := false
		for _, d := range dst {
			if d == s {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, s)
		}
	}
	return dst
}
