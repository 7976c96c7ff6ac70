package listing

import (
	"time"

	"github.com/pders01/corkboard/internal/reaction"
)

// Common holds the normalized fields shared by every view model. The
// embedded reaction state is the snapshot taken at normalization time.
type Common struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"authorId"`
	CreatedAt    time.Time `json:"createdAt"`
	RelativeTime string    `json:"relativeTime"`
	Category     Category  `json:"category"`
	reaction.State
}

func (c Common) PostID() string            { return c.ID }
func (c Common) Reaction() reaction.State { return c.State }

type RentItem struct {
	Common
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	PriceLabel    string     `json:"priceLabel"`
	Location      string     `json:"location"`
	Bedrooms      *int       `json:"bedrooms,omitempty"`
	AvailableFrom *time.Time `json:"availableFrom,omitempty"`
	IsAvailable   bool       `json:"isAvailable"`
}

func (i RentItem) WithReaction(st reaction.State) RentItem {
	i.State = st
	return i
}

func (i RentItem) Card() Card {
	c := i.baseCard(KindRent, i.Title)
	c.Subtitle = i.Location
	c.Body = i.Description
	c.Price = i.PriceLabel
	if !i.IsAvailable {
		c.Flags = append(c.Flags, "RENTED")
	}
	return c
}

type SecondhandItem struct {
	Common
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	PriceLabel  string  `json:"priceLabel"`
	Condition   string  `json:"condition"`
	Quantity    int     `json:"quantity"`
	SoldCount   int     `json:"soldCount"`
	Remaining   int     `json:"remaining"`
	IsSold      bool    `json:"isSold"`
}

func (i SecondhandItem) WithReaction(st reaction.State) SecondhandItem {
	i.State = st
	return i
}

func (i SecondhandItem) Card() Card {
	c := i.baseCard(KindSecondhand, i.Title)
	c.Subtitle = i.Condition
	c.Body = i.Description
	c.Price = i.PriceLabel
	if i.IsSold {
		c.Flags = append(c.Flags, "SOLD")
	}
	return c
}

type RideItem struct {
	Common
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	DepartureLabel string    `json:"departureLabel"`
	Seats          int       `json:"seats"`
	SeatsTaken     int       `json:"seatsTaken"`
	SeatsLeft      int       `json:"seatsLeft"`
	PricePerSeat   float64   `json:"pricePerSeat"`
	PriceLabel     string    `json:"priceLabel"`
	Note           string    `json:"note"`
	IsFull         bool      `json:"isFull"`
	IsExpired      bool      `json:"isExpired"`
}

func (i RideItem) WithReaction(st reaction.State) RideItem {
	i.State = st
	return i
}

func (i RideItem) Card() Card {
	c := i.baseCard(KindRide, i.Origin+" → "+i.Destination)
	c.Subtitle = "departs " + i.DepartureLabel
	c.Body = i.Note
	c.Price = i.PriceLabel
	if i.IsFull {
		c.Flags = append(c.Flags, "FULL")
	}
	if i.IsExpired {
		c.Flags = append(c.Flags, "DEPARTED")
	}
	return c
}

type TeamItem struct {
	Common
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	DeadlineLabel string     `json:"deadlineLabel,omitempty"`
	MembersNeeded int        `json:"membersNeeded"`
	MembersJoined int        `json:"membersJoined"`
	IsClosed      bool       `json:"isClosed"`
}

func (i TeamItem) WithReaction(st reaction.State) TeamItem {
	i.State = st
	return i
}

func (i TeamItem) Card() Card {
	c := i.baseCard(KindTeam, i.Title)
	if i.DeadlineLabel != "" {
		c.Subtitle = "deadline " + i.DeadlineLabel
	}
	c.Body = i.Description
	if i.IsClosed {
		c.Flags = append(c.Flags, "CLOSED")
	}
	return c
}

type ForumItem struct {
	Common
	Title        string `json:"title"`
	Body         string `json:"body"`
	CommentCount int    `json:"commentCount"`
}

func (i ForumItem) WithReaction(st reaction.State) ForumItem {
	i.State = st
	return i
}

func (i ForumItem) Card() Card {
	c := i.baseCard(KindForum, i.Title)
	c.Body = i.Body
	c.Markdown = true
	return c
}

// Card is the kind-independent summary the presentation layer renders.
type Card struct {
	ID        string
	Kind      Kind
	Title     string
	Subtitle  string
	Body      string
	Markdown  bool
	Price     string
	Category  string
	Age       string
	Flags     []string
	LikeCount int
	IsLiked   bool
}

func (c Common) baseCard(kind Kind, title string) Card {
	return Card{
		ID:        c.ID,
		Kind:      kind,
		Title:     title,
		Category:  c.Category.Label,
		Age:       c.RelativeTime,
		LikeCount: c.LikeCount,
		IsLiked:   c.IsLiked,
	}
}
