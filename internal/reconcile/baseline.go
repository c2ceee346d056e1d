package reconcile

import (
	"encoding/json"

	"registration-sync-go/internal/models"
)

// decodeSnapshot normalizes the two historical on-disk encodings of a
// payment's baseline snapshot: a JSON object, or a JSON string containing
// that object. Anything else fails closed to nil, which downstream treats
// as "no known change" rather than "zero players paid for" -- a malformed
// legacy payment must not flag the whole roster as due.
func decodeSnapshot(raw json.RawMessage) *models.BaselineSnapshot {
	if len(raw) == 0 {
		return nil
	}

	var snapshot models.BaselineSnapshot
	if err := json.Unmarshal(raw, &snapshot); err == nil && snapshot.SubmittedForms != nil {
		return &snapshot
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(text), &snapshot); err != nil || snapshot.SubmittedForms == nil {
		return nil
	}
	return &snapshot
}

// baselineFor returns the paid-for player count for one sport. When the
// snapshot has no usable entry for the sport the baseline defaults to the
// current count, so unknown history yields a zero delta. Non-positive stored
// counts are treated as absent; legacy writers emitted 0 for unset sports.
func baselineFor(snapshot *models.BaselineSnapshot, sport string, current int) int {
	if snapshot == nil {
		return current
	}
	entry, ok := snapshot.SubmittedForms[sport]
	if !ok || entry.Players <= 0 {
		return current
	}
	return entry.Players
}
