package models

// AgeBreakdown is the summed headcount per age group
type AgeBreakdown struct {
	Children int `json:"children_count"`
	Adults   int `json:"adults_count"`
	Seniors  int `json:"seniors_count"`
	Students int `json:"students_count"`
}

// DailySummary aggregates the visits of a single day
type DailySummary struct {
	TotalVisitors        int          `json:"total_visitors"`
	IndividualVisitCount int          `json:"individual_visits"`
	GroupVisitCount      int          `json:"group_visits"`
	AgeBreakdown         AgeBreakdown `json:"age_breakdown"`
}

// ChartDataPoint is one bucket (day, week or month) of a chart series
type ChartDataPoint struct {
	Label    string `json:"name"`
	Children int    `json:"children"`
	Adults   int    `json:"adults"`
	Seniors  int    `json:"seniors"`
	Students int    `json:"students"`
}

// VisitChangeEvent is published whenever a visit is created, updated or deleted
type VisitChangeEvent struct {
	Action  string `json:"action"`
	VisitID int64  `json:"visit_id"`
	Date    string `json:"date"`
	At      string `json:"at"`
	// Source identifies the writer that produced the event
	Source string `json:"source,omitempty"`
}

const (
	VisitActionCreated = "created"
	VisitActionUpdated = "updated"
	VisitActionDeleted = "deleted"
)
