package payment

import "strings"

// ProformaLevel aggregates the payments made against a proforma as a whole: rows
// whose item type and item code are both blank. Without item columns every row
// is proforma level. Rows without a proforma code are ignored.
func ProformaLevel(b Batch) map[string]Aggregate {
	out := make(map[string]Aggregate)

	for _, p := range b.Payments {
		if p.ProformaCode == "" {
			continue
		}

		if b.HasItemColumns && (strings.TrimSpace(p.ItemType) != "" || strings.TrimSpace(p.ItemCode) != "") {
			continue
		}

		out[p.ProformaCode] = out[p.ProformaCode].add(p)
	}

	return out
}

// ItemLevel aggregates payments tagged to a sub-item of a proforma. The item type
// is matched lowercased. ok is false when the sheet has no item columns or no row
// names both an item type and an item code; callers must then skip the item
// report entirely.
func ItemLevel(b Batch) (map[ItemKey]Aggregate, bool) {
	if !b.HasItemColumns {
		return nil, false
	}

	out := make(map[ItemKey]Aggregate)

	for _, p := range b.Payments {
		key := ItemKey{
			ProformaCode: p.ProformaCode,
			ItemType:     NormalizeItemType(p.ItemType),
			ItemCode:     strings.TrimSpace(p.ItemCode),
		}

		if key.ProformaCode == "" || key.ItemType == "" || key.ItemCode == "" {
			continue
		}

		out[key] = out[key].add(p)
	}

	if len(out) == 0 {
		return nil, false
	}

	return out, true
}

func NormalizeItemType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
