package pipeline

import "github.com/ultrai/orchestrator/pkg/config"

// concurrencyLimit returns the fan-out width for a stage. The width is capped
// at the slot count (all primaries at once) and reduced only for attachments,
// which are expensive on the gateway; query length does not affect it.
func concurrencyLimit(attachmentCount, slots int) int {
	limit := config.SlotCount
	switch {
	case attachmentCount >= 4:
		limit = 1
	case attachmentCount >= 1:
		limit = 2
	}
	if slots < limit {
		limit = slots
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
