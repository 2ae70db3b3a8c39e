package dto

import (
	"github.com/scosmb/license-console/internal/domain/key"
)

type DashboardSummaryResponse struct {
	TotalKeys      int64                `json:"totalKeys"`
	StatusCounts   map[key.Status]int64 `json:"statusCounts"`
	TotalDownloads int64                `json:"totalDownloads"`
	ExpiringSoon   ExpiringSoonSummary  `json:"expiringSoon"`
}

type ExpiringSoonSummary struct {
	Count      int64 `json:"count"`
	PeriodDays int   `json:"periodDays"`
}
