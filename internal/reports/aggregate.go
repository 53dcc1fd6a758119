package reports

import "museum-visits/internal/models"

// Summarize folds visits into a DailySummary. The fold is a plain sum, so
// the result does not depend on the order of visits.
func Summarize(visits []models.Visit) models.DailySummary {
	var summary models.DailySummary
	for _, v := range visits {
		summary.TotalVisitors += v.Total()
		switch v.VisitType {
		case models.VisitTypeIndividual:
			summary.IndividualVisitCount++
		case models.VisitTypeGroup:
			summary.GroupVisitCount++
		}
		summary.AgeBreakdown.Children += v.ChildrenCount
		summary.AgeBreakdown.Adults += v.AdultsCount
		summary.AgeBreakdown.Seniors += v.SeniorsCount
		summary.AgeBreakdown.Students += v.StudentsCount
	}
	return summary
}

// ToPoint folds visits into a single labelled chart point
func ToPoint(label string, visits []models.Visit) models.ChartDataPoint {
	point := models.ChartDataPoint{Label: label}
	for _, v := range visits {
		point.Children += v.ChildrenCount
		point.Adults += v.AdultsCount
		point.Seniors += v.SeniorsCount
		point.Students += v.StudentsCount
	}
	return point
}

// Series folds one snapshot of visits into a point per bucket, preserving
// bucket order.
func Series(buckets []Bucket, visits []models.Visit) []models.ChartDataPoint {
	points := make([]models.ChartDataPoint, 0, len(buckets))
	for _, b := range buckets {
		var inBucket []models.Visit
		for _, v := range visits {
			if b.Contains(v.Date) {
				inBucket = append(inBucket, v)
			}
		}
		points = append(points, ToPoint(b.Label, inBucket))
	}
	return points
}
