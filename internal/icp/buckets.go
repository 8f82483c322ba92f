// Package icp classifies business signals into Ideal-Customer-Profile
// buckets that bias lead scoring.
package icp

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Bucket identifiers. The exclusion bucket is always checked first; priority
// buckets are checked in the declared tier order.
const (
	BucketExclude       = "EXCLUDE_DEPRIORITIZE"
	BucketIndustrial    = "TIER_1_INDUSTRIAL"
	BucketLogistics     = "TIER_1_LOGISTICS"
	BucketColdLoad      = "TIER_1_COLD_LOAD"
	BucketAutoEquipment = "TIER_2_AUTO_EQUIPMENT"
	BucketNonprofit     = "TIER_2_NONPROFIT"
)

// Bucket is a static ICP bucket definition. Buckets are immutable at run
// time; new buckets require a new definition, not mutation.
type Bucket struct {
	ID         string   `yaml:"id"`
	Label      string   `yaml:"label"`
	Keywords   []string `yaml:"keywords"`
	Adjustment int      `yaml:"adjustment"`
}

// Table is an ordered, immutable set of bucket definitions constructed once
// at startup. The first entry must be the exclusion bucket.
type Table struct {
	buckets []Bucket
}

// defaultBuckets is the compiled-in bucket configuration. Keyword matching is
// substring containment on the combined lowercase business text, so short
// tokens can match inside unrelated words; that imprecision is accepted
// behavior, not a bug to patch.
var defaultBuckets = []Bucket{
	{
		ID:    BucketExclude,
		Label: "Excluded / Deprioritized",
		Keywords: []string{
			"apartment", "residential", "condominium", "condo",
			"self storage", "parking", "cemetery", "school district",
			"government", "vacant",
		},
		Adjustment: -30,
	},
	{
		ID:    BucketIndustrial,
		Label: "Tier 1: Industrial & Manufacturing",
		Keywords: []string{
			"manufactur", "industrial", "fabricat", "machining", "machine shop",
			"steel", "metal", "plastic", "injection molding", "foundry",
			"mill", "plant", "assembly",
		},
		Adjustment: 25,
	},
	{
		ID:    BucketLogistics,
		Label: "Tier 1: Logistics & Warehousing",
		Keywords: []string{
			"warehouse", "distribution", "logistics", "freight", "shipping",
			"fulfillment", "supply chain", "trucking", "depot",
		},
		Adjustment: 25,
	},
	{
		ID:    BucketColdLoad,
		Label: "Tier 1: Cold Load & Food/Beverage",
		Keywords: []string{
			"cold storage", "refrigerat", "frozen", "food processing",
			"brewery", "dairy", "beverage", "bottling", "meat", "produce",
		},
		Adjustment: 25,
	},
	{
		ID:    BucketAutoEquipment,
		Label: "Tier 2: Auto & Equipment",
		Keywords: []string{
			"auto", "car dealer", "dealership", "equipment", "rental",
			"tractor", "tire", "collision", "body shop",
		},
		Adjustment: 15,
	},
	{
		ID:    BucketNonprofit,
		Label: "Tier 2: Nonprofit & Community",
		Keywords: []string{
			"church", "temple", "synagogue", "mosque", "nonprofit",
			"community center", "ymca", "charity", "ministries",
		},
		Adjustment: 15,
	},
}

// DefaultTable returns the compiled-in bucket table.
func DefaultTable() *Table {
	return &Table{buckets: defaultBuckets}
}

// LoadTable reads bucket definitions from a YAML file. The file fully
// replaces the defaults; the first bucket whose adjustment is negative is
// treated as the exclusion bucket and moved to the front.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "icp: read buckets %s", path)
	}

	var wrapper struct {
		Buckets []Bucket `yaml:"buckets"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "icp: parse buckets")
	}
	if len(wrapper.Buckets) == 0 {
		return nil, eris.New("icp: bucket file defines no buckets")
	}

	buckets := wrapper.Buckets
	for i, b := range buckets {
		if b.Adjustment < 0 && i != 0 {
			buckets[0], buckets[i] = buckets[i], buckets[0]
			break
		}
	}
	return &Table{buckets: buckets}, nil
}

// Lookup returns the bucket definition for an ID.
func (t *Table) Lookup(id string) (Bucket, bool) {
	for _, b := range t.buckets {
		if b.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}

// Buckets returns the definitions in evaluation order.
func (t *Table) Buckets() []Bucket {
	return t.buckets
}

// IsTier1 reports whether the bucket ID belongs to the top priority tier.
func IsTier1(id string) bool {
	switch id {
	case BucketIndustrial, BucketLogistics, BucketColdLoad:
		return true
	}
	return false
}
