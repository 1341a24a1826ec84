package tui

import (
	"fmt"
	"time"
)

// periodChoices lists the reporting windows the period key cycles through.
func periodChoices(now time.Time) []string {
	now = now.UTC()
	quarter := (int(now.Month())-1)/3 + 1
	return []string{
		"all",
		now.Format("2006-01"),
		fmt.Sprintf("%d-Q%d", now.Year(), quarter),
		now.Format("2006"),
	}
}

func periodLabel(id string) string {
	if id == "" || id == "all" {
		return "all time"
	}
	return id
}
