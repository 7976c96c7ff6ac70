// Package listing holds the raw backend records, the normalized view models
// and the pure transform between them.
package listing

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pders01/corkboard/internal/reaction"
)

// Normalizer turns raw records into view models. It does no I/O and never
// mutates its input.
type Normalizer struct {
	catalog *Catalog
	now     func() time.Time
}

func NewNormalizer(catalog *Catalog) *Normalizer {
	return &Normalizer{catalog: catalog, now: time.Now}
}

// WithClock returns a copy that computes relative times against now.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

func (n *Normalizer) Rent(r RentRecord, st reaction.State) RentItem {
	item := RentItem{
		Common:        n.common(KindRent, r.Base, r.Category, st),
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.Price,
		PriceLabel:    FormatPrice(r.Price) + "/mo",
		Location:      r.Location,
		Bedrooms:      r.Bedrooms,
		AvailableFrom: r.AvailableFrom,
		IsAvailable:   true,
	}
	if r.IsAvailable != nil {
		item.IsAvailable = *r.IsAvailable
	}
	return item
}

func (n *Normalizer) Secondhand(r SecondhandRecord, st reaction.State) SecondhandItem {
	quantity := valueOr(r.Quantity, 1)
	sold := valueOr(r.SoldCount, 0)

	return SecondhandItem{
		Common:      n.common(KindSecondhand, r.Base, r.Category, st),
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		PriceLabel:  FormatPrice(r.Price),
		Condition:   r.Condition,
		Quantity:    quantity,
		SoldCount:   sold,
		Remaining:   max(quantity-sold, 0),
		IsSold:      sold >= quantity,
	}
}

func (n *Normalizer) Ride(r RideRecord, st reaction.State) RideItem {
	taken := valueOr(r.SeatsTaken, 0)

	return RideItem{
		Common:         n.common(KindRide, r.Base, r.Category, st),
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		DepartureLabel: n.relative(r.DepartureTime),
		Seats:          r.Seats,
		SeatsTaken:     taken,
		SeatsLeft:      max(r.Seats-taken, 0),
		PricePerSeat:   r.PricePerSeat,
		PriceLabel:     FormatPrice(r.PricePerSeat) + "/seat",
		Note:           r.Note,
		IsFull:         r.Seats > 0 && taken >= r.Seats,
		IsExpired:      !r.DepartureTime.IsZero() && r.DepartureTime.Before(n.now()),
	}
}

func (n *Normalizer) Team(r TeamRecord, st reaction.State) TeamItem {
	joined := valueOr(r.MembersJoined, 0)
	item := TeamItem{
		Common:        n.common(KindTeam, r.Base, r.Category, st),
		Title:         r.Title,
		Description:   r.Description,
		Deadline:      r.Deadline,
		MembersNeeded: r.MembersNeeded,
		MembersJoined: joined,
		IsClosed:      r.MembersNeeded > 0 && joined >= r.MembersNeeded,
	}
	if r.Deadline != nil {
		item.DeadlineLabel = n.relative(*r.Deadline)
		if r.Deadline.Before(n.now()) {
			item.IsClosed = true
		}
	}
	return item
}

func (n *Normalizer) Forum(r ForumRecord, st reaction.State) ForumItem {
	return ForumItem{
		Common:       n.common(KindForum, r.Base, r.Category, st),
		Title:        r.Title,
		Body:         r.Body,
		CommentCount: r.CommentCount,
	}
}

func (n *Normalizer) common(kind Kind, b Base, category string, st reaction.State) Common {
	if st.LikeCount < 0 {
		st.LikeCount = 0
	}
	return Common{
		ID:           b.ID,
		AuthorID:     b.AuthorID,
		CreatedAt:    b.CreatedAt,
		RelativeTime: n.relative(b.CreatedAt),
		Category:     n.catalog.Resolve(kind, category),
		State:        st,
	}
}

func (n *Normalizer) relative(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, n.now(), "ago", "from now")
}

// FormatPrice renders an amount in dollars with thousands separators. Cents
// are shown with two digits, or dropped when there are none.
func FormatPrice(amount float64) string {
	if amount == math.Trunc(amount) {
		return "$" + humanize.Comma(int64(amount))
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
