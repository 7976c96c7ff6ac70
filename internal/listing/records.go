package listing

import (
	"math"
	"sort"
	"time"
)

// Base carries the fields every backend row has. Rows are decoded once and
// never patched afterwards; a refetch replaces them.
type Base struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	HighlightRank *int      `json:"highlight_rank"`
	HotScore      *float64  `json:"hot_score"`
}

func (b Base) PostID() string { return b.ID }

// SortKey returns the values feeds are ordered by. Missing rank and score
// sort after every present value.
func (b Base) SortKey() SortKey {
	key := SortKey{
		HighlightRank: math.MaxInt,
		HotScore:      math.Inf(-1),
		CreatedAt:     b.CreatedAt,
	}
	if b.HighlightRank != nil {
		key.HighlightRank = *b.HighlightRank
	}
	if b.HotScore != nil {
		key.HotScore = *b.HotScore
	}
	return key
}

// Record is a raw row of any kind.
type Record interface {
	PostID() string
	SortKey() SortKey
}

// SortKey is the composite feed ordering: highlight rank ascending, hot
// score descending, creation time descending.
type SortKey struct {
	HighlightRank int
	HotScore      float64
	CreatedAt     time.Time
}

// Before reports whether k sorts ahead of other.
func (k SortKey) Before(other SortKey) bool {
	if k.HighlightRank != other.HighlightRank {
		return k.HighlightRank < other.HighlightRank
	}
	if k.HotScore != other.HotScore {
		return k.HotScore > other.HotScore
	}
	return k.CreatedAt.After(other.CreatedAt)
}

// SortRecords orders records in feed order. Equal keys keep their input
// order.
func SortRecords[R Record](records []R) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey().Before(records[j].SortKey())
	})
}

type RentRecord struct {
	Base
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Location      string     `json:"location"`
	Bedrooms      *int       `json:"bedrooms"`
	Category      string     `json:"category"`
	AvailableFrom *time.Time `json:"available_from"`
	IsAvailable   *bool      `json:"is_available"`
}

type SecondhandRecord struct {
	Base
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Condition   string  `json:"condition"`
	Quantity    *int    `json:"quantity"`
	SoldCount   *int    `json:"sold_count"`
}

type RideRecord struct {
	Base
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	Seats         int       `json:"seats"`
	SeatsTaken    *int      `json:"seats_taken"`
	PricePerSeat  float64   `json:"price_per_seat"`
	Category      string    `json:"category"`
	Note          string    `json:"note"`
}

type TeamRecord struct {
	Base
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Deadline      *time.Time `json:"deadline"`
	MembersNeeded int        `json:"members_needed"`
	MembersJoined *int       `json:"members_joined"`
}

type ForumRecord struct {
	Base
	Title        string `json:"title"`
	Body         string `json:"body"`
	Category     string `json:"category"`
	CommentCount int    `json:"comment_count"`
}
