package repository

import (
	"os"
	"sort"
	"strconv"

	"homequote/internal/domain/entities"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func tableNameOrEnv(name, envKey, def string) string {
	if name != "" {
		return name
	}
	return getenvDefault(envKey, def)
}

func statusIn(s entities.ServiceRequestStatus, set []entities.ServiceRequestStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func sortRequestsNewestFirst(rs []entities.ServiceRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func sortQuotesCheapestFirst(qs []entities.Quote) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].ProposedValue != qs[j].ProposedValue {
			return qs[i].ProposedValue < qs[j].ProposedValue
		}
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
}

func sortQuotesNewestFirst(qs []entities.Quote) {
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.After(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
}

func floatToString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
