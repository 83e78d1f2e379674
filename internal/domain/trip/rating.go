package trip

import (
	"math"
	"strings"
	"time"
)

// Side identifies which participant of a trip performed an action.
type Side string

const (
	SideRider  Side = "rider"
	SideDriver Side = "driver"
)

func (side Side) String() string {
	return string(side)
}

// Other returns the opposite side.
func (side Side) Other() Side {
	if side == SideRider {
		return SideDriver
	}
	return SideRider
}

// MaxCommentLength caps a rating comment.
const MaxCommentLength = 250

// Rating is a single per-trip, per-side rating record. Each side rates the
// counterparty at most once; the record is immutable after submission.
type Rating struct {
	Stars   int
	Comment *string
	RatedAt time.Time
}

// NewRating validates stars and the comment length, then builds the record.
func NewRating(stars int, comment string) (*Rating, error) {
	if stars < 1 || stars > 5 {
		return nil, ErrStarsOutOfRange
	}
	rating := &Rating{Stars: stars, RatedAt: time.Now().UTC()}
	if c := strings.TrimSpace(comment); c != "" {
		if len([]rune(c)) > MaxCommentLength {
			return nil, ErrCommentTooLong
		}
		rating.Comment = &c
	}
	return rating, nil
}

// RateBy records a rating on the rater's side of the trip. The trip must be
// completed, the rater must be a participant, and each side writes once.
func (t *Trip) RateBy(raterID string, rating *Rating) (Side, error) {
	side, ok := t.ParticipantSide(raterID)
	if !ok {
		return "", ErrUnauthorized
	}
	if t.Status != StatusCompleted {
		return "", ErrNotCompleted
	}

	switch side {
	case SideRider:
		if t.ByRider != nil {
			return "", ErrAlreadyRated
		}
		t.ByRider = rating
	case SideDriver:
		if t.ByDriver != nil {
			return "", ErrAlreadyRated
		}
		t.ByDriver = rating
	}
	t.touch()
	return side, nil
}

// RatingBy returns the rating left by the given side, or nil.
func (t *Trip) RatingBy(side Side) *Rating {
	if side == SideRider {
		return t.ByRider
	}
	return t.ByDriver
}

// NextAverage recomputes a running rating aggregate after one more vote,
// rounded to one decimal place. With avg 4.0 over 3 votes, a 5-star vote
// moves the aggregate to 4.3 over 4.
func NextAverage(oldAvg float64, oldCount int, stars int) (float64, int) {
	count := oldCount + 1
	avg := (oldAvg*float64(oldCount) + float64(stars)) / float64(count)
	return math.Round(avg*10) / 10, count
}
