// Package arbiter reconciles two independently produced candidate records,
// one per generative backend, into a single authoritative record plus a
// provenance tag. All three call sites (intent classification, query-parameter
// parsing, receipt OCR) share one decision tree; they differ only in the tag
// field name, the fallback producer, and the tie-break applied when both
// candidates are present but disagree.
//
// Arbitration is a pure function of its two inputs: it never mutates them,
// never fails, and always yields the same output for the same inputs.
package arbiter

import (
	"reflect"

	"github.com/bazaarbrain/assistant/internal/model"
)

// Provenance records which candidate(s) contributed to an arbitrated result
// and by what rule.
type Provenance string

const (
	Agree              Provenance = "agree"
	PrimaryOnly        Provenance = "primary_only"
	SecondaryOnly      Provenance = "secondary_only"
	PrimaryPreferred   Provenance = "primary_preferred"
	SecondaryPreferred Provenance = "secondary_preferred"
	Merged             Provenance = "merged"
	Fallback           Provenance = "fallback"
	BothFailed         Provenance = "both_failed"
)

// Field names under which each pipeline stores its provenance tag.
const (
	ClassificationSourceKey = "classification_source"
	ParseSourceKey          = "parsing_source"
	ReceiptSourceKey        = "source"
)

// Classification arbitrates two intent-classification records. When both are
// present but differ, the candidate with the higher confidence rank wins;
// ties favor the primary. When both are absent, fallback supplies the result.
func Classification(primary, secondary model.Record, fallback func() model.Record) model.Record {
	if out, ok := resolveCommon(primary, secondary, ClassificationSourceKey); ok {
		return out
	}
	if primary.Absent() && secondary.Absent() {
		return tagged(fallback(), ClassificationSourceKey, Fallback)
	}

	if confidenceRank(primary) >= confidenceRank(secondary) {
		return tagged(primary, ClassificationSourceKey, PrimaryPreferred)
	}
	return tagged(secondary, ClassificationSourceKey, SecondaryPreferred)
}

// Parse arbitrates two query-parameter records. When both are present but
// differ, the record with more fields wins; ties favor the primary.
func Parse(primary, secondary model.Record, fallback func() model.Record) model.Record {
	if out, ok := resolveCommon(primary, secondary, ParseSourceKey); ok {
		return out
	}
	if primary.Absent() && secondary.Absent() {
		return tagged(fallback(), ParseSourceKey, Fallback)
	}

	if len(primary) >= len(secondary) {
		return tagged(primary, ParseSourceKey, PrimaryPreferred)
	}
	return tagged(secondary, ParseSourceKey, SecondaryPreferred)
}

// Receipt arbitrates two OCR extraction records. When both are present but
// differ, the record with strictly more line items wins outright; an exact
// item-count tie triggers a field-by-field merge. When both are absent there
// is no heuristic floor; the result is an explicit empty error record.
func Receipt(primary, secondary model.Record) model.Record {
	if out, ok := resolveCommon(primary, secondary, ReceiptSourceKey); ok {
		return out
	}
	if primary.Absent() && secondary.Absent() {
		return model.Record{
			"items":          []any{},
			"total":          float64(0),
			ReceiptSourceKey: string(BothFailed),
			"error":          "both vision backends failed to process the image",
		}
	}

	primaryItems := primary.List("items")
	secondaryItems := secondary.List("items")
	if len(primaryItems) > len(secondaryItems) {
		return tagged(primary, ReceiptSourceKey, PrimaryPreferred)
	}
	if len(secondaryItems) > len(primaryItems) {
		return tagged(secondary, ReceiptSourceKey, SecondaryPreferred)
	}

	return mergeReceipts(primary, secondary, primaryItems, secondaryItems)
}

// resolveCommon applies the first two shared rules of the decision tree:
// both-present-and-equal, and exactly-one-usable. It reports false when a
// flavor-specific branch (fallback or tie-break) must decide instead.
//
// Rule 1 requires both records to be non-nil and deep-equal; two present but
// empty records agree. Rule 2 gates on emptiness, so an empty-but-present
// record loses to a populated one just like a nil record would.
func resolveCommon(primary, secondary model.Record, tagKey string) (model.Record, bool) {
	if primary != nil && secondary != nil && primary.Equal(secondary) {
		return tagged(primary, tagKey, Agree), true
	}
	if primary.Absent() && !secondary.Absent() {
		return tagged(secondary, tagKey, SecondaryOnly), true
	}
	if secondary.Absent() && !primary.Absent() {
		return tagged(primary, tagKey, PrimaryOnly), true
	}
	return nil, false
}

// mergeReceipts unions distinguishable line items from both records, takes
// the larger of the two totals (both backends estimate the same receipt; the
// larger estimate is assumed less likely to have truncated content), and
// backfills remaining top-level fields from whichever record carries more of
// them, without overwriting anything the merge already set.
func mergeReceipts(primary, secondary model.Record, primaryItems, secondaryItems []any) model.Record {
	items := make([]any, len(primaryItems))
	copy(items, primaryItems)
	for _, item := range secondaryItems {
		if !containsItem(items, item) {
			items = append(items, item)
		}
	}

	merged := model.Record{
		"items":          items,
		"total":          maxFloat(primary.Float("total"), secondary.Float("total")),
		ReceiptSourceKey: string(Merged),
	}

	donor := secondary
	if len(primary) > len(secondary) {
		donor = primary
	}
	for k, v := range donor {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged
}

func containsItem(items []any, item any) bool {
	for _, existing := range items {
		if reflect.DeepEqual(existing, item) {
			return true
		}
	}
	return false
}

func confidenceRank(r model.Record) int {
	switch r.String("confidence") {
	case "high":
		return 3
	case "medium":
		return 2
	default:
		return 1
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func tagged(r model.Record, key string, p Provenance) model.Record {
	out := r.Clone()
	out[key] = string(p)
	return out
}
