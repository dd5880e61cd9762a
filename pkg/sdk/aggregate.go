package sdk

import (
	"sort"
	"time"
)

// DayCount is one bucket of the uploads-over-time series. Day is a UTC
// calendar day in YYYY-MM-DD form.
type DayCount struct {
	Day   string
	Count int
}

// Summary is the derived dashboard view over whatever is currently
// resident in the upload list store — not necessarily the complete
// remote collection.
type Summary struct {
	TotalUploads     int
	TotalRows        int
	Clinics          int
	StatusCounts     map[string]int
	UploadsPerClinic map[string]int
	UploadsPerDay    []DayCount
}

// Summarize derives counts and groupings over the given records. It is
// pure: it never fetches additional pages, and recomputing it whenever
// the source sequence changes is the caller's responsibility.
func Summarize(items []UploadRecord) Summary {
	summary := Summary{
		TotalUploads:     len(items),
		StatusCounts:     make(map[string]int),
		UploadsPerClinic: make(map[string]int),
	}

	days := make(map[string]int)
	for _, item := range items {
		summary.TotalRows += item.RowCount
		summary.StatusCounts[item.Status]++
		summary.UploadsPerClinic[item.ClinicID]++
		days[item.UploadedAt.UTC().Format(time.DateOnly)]++
	}
	summary.Clinics = len(summary.UploadsPerClinic)

	summary.UploadsPerDay = make([]DayCount, 0, len(days))
	for day, count := range days {
		summary.UploadsPerDay = append(summary.UploadsPerDay, DayCount{Day: day, Count: count})
	}
	sort.Slice(summary.UploadsPerDay, func(i, j int) bool {
		return summary.UploadsPerDay[i].Day < summary.UploadsPerDay[j].Day
	})
	return summary
}
