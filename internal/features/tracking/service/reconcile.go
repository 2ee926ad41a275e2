package service

import "whereis/internal/features/tracking/domain"

// Reconcile returns the events of fresh whose fingerprints are not in
// persisted, in their original order. A fingerprint repeated inside fresh is
// kept once. Neither input is modified.
func Reconcile(persisted map[string]struct{}, fresh []domain.Event) []domain.Event {
	seen := make(map[string]struct{}, len(fresh))
	out := make([]domain.Event, 0, len(fresh))

	for _, ev := range fresh {
		if _, ok := persisted[ev.Fingerprint]; ok {
			continue
		}
		if _, ok := seen[ev.Fingerprint]; ok {
			continue
		}
		seen[ev.Fingerprint] = struct{}{}
		out = append(out, ev)
	}

	return out
}
