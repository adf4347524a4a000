package service

import "bundlehub/internal/model"

// RemainingCapacity reports how many more content items a bundle may take
// under the given tier. unlimited is true when the tier has no cap, in which
// case the count is meaningless. Never returns a negative remainder.
func RemainingCapacity(tier model.TierInfo, currentCount int) (remaining int, unlimited bool) {
	if tier.MaxContentItemsPerBundle == nil {
		return 0, true
	}

	remaining = *tier.MaxContentItemsPerBundle - currentCount
	if remaining < 0 {
		remaining = 0
	}

	return remaining, false
}

// DownloadAllowance reports the per-period download cap, unlimited when nil.
func DownloadAllowance(tier model.TierInfo) (limit int, unlimited bool) {
	if tier.MaxDownloadsPerPeriod == nil {
		return 0, true
	}
	return *tier.MaxDownloadsPerPeriod, false
}
