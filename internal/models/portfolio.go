package models

import "time"

// Portfolio is a published piece of work. PortfolioAuthor mirrors the owner's
// username and is rewritten when the owner renames.
type Portfolio struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	PortfolioText   string     `gorm:"type:text;not null" json:"portfolio_text"`
	PortfolioImage  string     `json:"portfolio_image"`
	PortfolioLink   string     `json:"portfolio_link"`
	PortfolioAuthor string     `gorm:"size:30;not null;index" json:"portfolio_author"`
	Ratings         []Rating   `gorm:"foreignKey:PortfolioID" json:"ratings"`
	Feedbacks       []Feedback `gorm:"foreignKey:PortfolioID" json:"feedbacks"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RatingAverage returns the mean rating, or false when there are none.
func (p *Portfolio) RatingAverage() (float64, bool) {
	if len(p.Ratings) == 0 {
		return 0, false
	}
	total := 0
	for _, r := range p.Ratings {
		total += r.RatingNumber
	}
	return float64(total) / float64(len(p.Ratings)), true
}

// Rating is one user's score for a portfolio. A user holds at most one rating per portfolio.
type Rating struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PortfolioID  uint      `gorm:"not null;uniqueIndex:idx_rating_author" json:"portfolio_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_rating_author;index" json:"user_id"`
	RatingNumber int       `gorm:"not null" json:"rating_number"`
	RatingAuthor string    `gorm:"size:30;not null" json:"rating_author"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Feedback is a free-text comment on a portfolio.
type Feedback struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PortfolioID    uint      `gorm:"not null;index" json:"portfolio_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	FeedbackText   string    `gorm:"type:text;not null" json:"feedback_text"`
	FeedbackAuthor string    `gorm:"size:30;not null" json:"feedback_author"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
