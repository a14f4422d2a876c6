package domain

import (
	"testing"
	"time"
)

func TestHostDocumentIDSameDay(t *testing.T) {
	morning := time.Date(2024, 5, 1, 0, 5, 0, 0, time.UTC)
	evening := time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC)
	if HostDocumentID("10084", morning) != HostDocumentID("10084", evening) {
		t.Fatalf("same day should share document id")
	}
	if got := HostDocumentID("10084", morning); got != "10084_2024-05-01" {
		t.Fatalf("unexpected id %s", got)
	}
}

func TestHostDocumentIDUsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	local := time.Date(2024, 5, 2, 3, 0, 0, 0, loc)
	if got := HostDocumentID("1", local); got != "1_2024-05-01" {
		t.Fatalf("expected utc day, got %s", got)
	}
}

func TestHostDocumentIDNextDay(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if HostDocumentID("1", day1) == HostDocumentID("1", day1.Add(24*time.Hour)) {
		t.Fatalf("new day should start a new document")
	}
}
