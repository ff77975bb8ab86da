package model

import "time"

// Review is embedded in its doctor. The reviewer's name and photo are a
// snapshot taken when the review was written.
type Review struct {
	ID         string    `json:"_id" bson:"_id"`
	UserID     string    `json:"userId" bson:"userId"`
	UserName   string    `json:"userName" bson:"userName"`
	UserPhoto  string    `json:"userPhoto,omitempty" bson:"userPhoto,omitempty"`
	Rating     int       `json:"rating" bson:"rating"`
	ReviewText string    `json:"reviewText" bson:"reviewText"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

func (d *Doctor) HasReviewFrom(patientID string) bool {
	for _, r := range d.Reviews {
		if r.UserID == patientID {
			return true
		}
	}
	return false
}

// AddReview appends r and recomputes the aggregate rating.
func (d *Doctor) AddReview(r Review) {
	d.Reviews = append(d.Reviews, r)
	d.RecomputeRating()
}

// RecomputeRating sets averageRating to the mean of all ratings and
// totalRating to the review count.
func (d *Doctor) RecomputeRating() {
	d.TotalRating = len(d.Reviews)
	if d.TotalRating == 0 {
		d.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range d.Reviews {
		sum += r.Rating
	}
	d.AverageRating = float64(sum) / float64(d.TotalRating)
}

type ReviewSummary struct {
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"averageRating"`
	TotalRating   int      `json:"totalRating"`
}

func (d *Doctor) ReviewSummary() *ReviewSummary {
	reviews := d.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return &ReviewSummary{
		Reviews:       reviews,
		AverageRating: d.AverageRating,
		TotalRating:   d.TotalRating,
	}
}
