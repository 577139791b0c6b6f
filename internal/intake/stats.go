package intake

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
)

// Stats summarises a firm's intakes for the analytics page.
type Stats struct {
	Total          int            `json:"total"`
	Urgent         int            `json:"urgent"`
	Reviewed       int            `json:"reviewed"`
	ResponseRate   int            `json:"response_rate"`
	ByPracticeArea map[string]int `json:"by_practice_area"`
	ByUrgency      map[string]int `json:"by_urgency"`
	ByDay          []DayCount     `json:"by_day"`
}

type DayCount struct {
	Date    string `json:"date"`
	Intakes int    `json:"intakes"`
}

// Stats counts the firm's intakes created at or after since; a zero since
// counts all of them.
//
// Urgent means ai_urgency high or status urgent. Reviewed means reviewed or
// archived, and ResponseRate is reviewed over total as a rounded percent.
func (s *Service) Stats(ctx context.Context, firmID string, since time.Time) (*Stats, error) {
	intakes, err := s.intakes.Filter(ctx, repository.Where{"firm_id": firmID}, "-created_date")
	if err != nil {
		return nil, fmt.Errorf("load intakes: %w", err)
	}

	st := &Stats{
		ByPracticeArea: map[string]int{},
		ByUrgency:      map[string]int{},
	}
	days := map[string]int{}

	for _, in := range intakes {
		if in.CreatedDate.Before(since) {
			continue
		}
		st.Total++
		if in.AIUrgency == models.UrgencyHigh || in.Status == models.StatusUrgent {
			st.Urgent++
		}
		if in.Status == models.StatusReviewed || in.Status == models.StatusArchived {
			st.Reviewed++
		}

		area := in.AIPracticeArea
		if area == "" {
			area = in.PracticeArea
		}
		if area == "" {
			area = "Unknown"
		}
		st.ByPracticeArea[area]++

		if in.AIUrgency != "" {
			st.ByUrgency[in.AIUrgency]++
		}
		days[in.CreatedDate.UTC().Format(followUpLayout)]++
	}

	if st.Total > 0 {
		st.ResponseRate = int(math.Round(float64(st.Reviewed) / float64(st.Total) * 100))
	}

	st.ByDay = make([]DayCount, 0, len(days))
	for d, n := range days {
		st.ByDay = append(st.ByDay, DayCount{Date: d, Intakes: n})
	}
	sort.Slice(st.ByDay, func(i, j int) bool { return st.ByDay[i].Date < st.ByDay[j].Date })

	return st, nil
}
