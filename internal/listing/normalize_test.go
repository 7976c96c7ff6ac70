package listing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/corkboard/internal/reaction"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	catalog, err := NewCatalog()
	require.NoError(t, err)
	return NewNormalizer(catalog).WithClock(func() time.Time { return fixedNow })
}

func intPtr(v int) *int { return &v }

func TestSecondhandSoldFlag(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name     string
		quantity *int
		sold     *int
		want     bool
	}{
		{"exhausted", intPtr(3), intPtr(3), true},
		{"one left", intPtr(3), intPtr(2), false},
		{"defaults", nil, nil, false},
		{"default quantity sold once", nil, intPtr(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := n.Secondhand(SecondhandRecord{
				Base:      Base{ID: "s1"},
				Quantity:  tt.quantity,
				SoldCount: tt.sold,
			}, reaction.State{})
			assert.Equal(t, tt.want, item.IsSold)
		})
	}
}

func TestSecondhandDefaultsFilledIn(t *testing.T) {
	item := testNormalizer(t).Secondhand(SecondhandRecord{Base: Base{ID: "s1"}}, reaction.State{})
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 0, item.SoldCount)
	assert.Equal(t, 1, item.Remaining)
}

func TestUnknownCategoryIsOther(t *testing.T) {
	n := testNormalizer(t)

	item := n.Secondhand(SecondhandRecord{Base: Base{ID: "s1"}, Category: "vintage"}, reaction.State{})
	assert.Equal(t, OtherCategory, item.Category)

	item = n.Secondhand(SecondhandRecord{Base: Base{ID: "s2"}, Category: " Books "}, reaction.State{})
	assert.Equal(t, Category{Slug: "books", Label: "Books"}, item.Category)
}

func TestPriceLabels(t *testing.T) {
	n := testNormalizer(t)

	rent := n.Rent(RentRecord{Base: Base{ID: "r"}, Price: 1200}, reaction.State{})
	assert.Equal(t, "$1,200/mo", rent.PriceLabel)

	ride := n.Ride(RideRecord{Base: Base{ID: "d"}, PricePerSeat: 12.5}, reaction.State{})
	assert.Equal(t, "$12.50/seat", ride.PriceLabel)

	goods := n.Secondhand(SecondhandRecord{Base: Base{ID: "g"}, Price: 40}, reaction.State{})
	assert.Equal(t, "$40", goods.PriceLabel)

	assert.Empty(t, n.Team(TeamRecord{Base: Base{ID: "t"}}, reaction.State{}).Card().Price)
	assert.Empty(t, n.Forum(ForumRecord{Base: Base{ID: "f"}}, reaction.State{}).Card().Price)
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{
		0:       "$0",
		40:      "$40",
		12.5:    "$12.50",
		1234.05: "$1,234.05",
		2500:    "$2,500",
	}
	for amount, want := range tests {
		assert.Equal(t, want, FormatPrice(amount), "FormatPrice(%v)", amount)
	}
}

func TestRelativeTime(t *testing.T) {
	n := testNormalizer(t)
	item := n.Forum(ForumRecord{Base: Base{ID: "f", CreatedAt: fixedNow.Add(-3 * time.Hour)}}, reaction.State{})
	assert.Equal(t, "3 hours ago", item.RelativeTime)
}

func TestMissingReactionDefaultsToZero(t *testing.T) {
	states := map[string]reaction.State{}
	item := testNormalizer(t).Forum(ForumRecord{Base: Base{ID: "absent"}}, states["absent"])
	assert.Equal(t, 0, item.LikeCount)
	assert.False(t, item.IsLiked)
}

func TestReactionCopied(t *testing.T) {
	item := testNormalizer(t).Rent(RentRecord{Base: Base{ID: "r"}}, reaction.State{LikeCount: 7, IsLiked: true})
	assert.Equal(t, reaction.State{LikeCount: 7, IsLiked: true}, item.Reaction())

	updated := item.WithReaction(reaction.State{LikeCount: 8})
	assert.Equal(t, 8, updated.LikeCount)
	assert.Equal(t, 7, item.LikeCount, "original is left untouched")
}

func TestRideFlags(t *testing.T) {
	n := testNormalizer(t)

	full := n.Ride(RideRecord{Base: Base{ID: "a"}, Seats: 3, SeatsTaken: intPtr(3), DepartureTime: fixedNow.Add(time.Hour)}, reaction.State{})
	assert.True(t, full.IsFull)
	assert.False(t, full.IsExpired)
	assert.Equal(t, 0, full.SeatsLeft)

	past := n.Ride(RideRecord{Base: Base{ID: "b"}, Seats: 3, DepartureTime: fixedNow.Add(-time.Hour)}, reaction.State{})
	assert.False(t, past.IsFull)
	assert.True(t, past.IsExpired)
	assert.Contains(t, past.Card().Flags, "DEPARTED")
}

func TestTeamClosed(t *testing.T) {
	n := testNormalizer(t)
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	assert.True(t, n.Team(TeamRecord{Base: Base{ID: "a"}, Deadline: &past}, reaction.State{}).IsClosed)
	assert.False(t, n.Team(TeamRecord{Base: Base{ID: "b"}, Deadline: &future, MembersNeeded: 4, MembersJoined: intPtr(2)}, reaction.State{}).IsClosed)
	assert.True(t, n.Team(TeamRecord{Base: Base{ID: "c"}, MembersNeeded: 2, MembersJoined: intPtr(2)}, reaction.State{}).IsClosed)
}

func TestRentAvailabilityDefault(t *testing.T) {
	n := testNormalizer(t)
	assert.True(t, n.Rent(RentRecord{Base: Base{ID: "a"}}, reaction.State{}).IsAvailable)

	no := false
	item := n.Rent(RentRecord{Base: Base{ID: "b"}, IsAvailable: &no}, reaction.State{})
	assert.False(t, item.IsAvailable)
	assert.Contains(t, item.Card().Flags, "RENTED")
}

func TestDecodeBackendFieldNames(t *testing.T) {
	row := []byte(`{
		"id": "s9",
		"author_id": "u1",
		"created_at": "2025-03-10T11:00:00Z",
		"highlight_rank": 1,
		"hot_score": 4.5,
		"title": "Desk lamp",
		"price": 15,
		"category": "furniture",
		"quantity": 2,
		"sold_count": 1
	}`)

	var rec SecondhandRecord
	require.NoError(t, json.Unmarshal(row, &rec))
	assert.Equal(t, "u1", rec.AuthorID)
	require.NotNil(t, rec.HighlightRank)
	assert.Equal(t, 1, *rec.HighlightRank)

	item := testNormalizer(t).Secondhand(rec, reaction.State{})
	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"authorId":"u1"`)
	assert.Contains(t, string(out), `"soldCount":1`)
	assert.Contains(t, string(out), `"likeCount":0`)
}

func TestSortRecords(t *testing.T) {
	rank := func(v int) *int { return &v }
	hot := func(v float64) *float64 { return &v }

	records := []ForumRecord{
		{Base: Base{ID: "A", HighlightRank: rank(1), HotScore: hot(5)}},
		{Base: Base{ID: "B", HighlightRank: rank(1), HotScore: hot(9)}},
		{Base: Base{ID: "C", HighlightRank: rank(2), HotScore: hot(100)}},
	}
	SortRecords(records)
	assert.Equal(t, []string{"B", "A", "C"}, ids(records))

	older := fixedNow.Add(-time.Hour)
	records = []ForumRecord{
		{Base: Base{ID: "old", HighlightRank: rank(1), HotScore: hot(1), CreatedAt: older}},
		{Base: Base{ID: "unranked", CreatedAt: fixedNow}},
		{Base: Base{ID: "new", HighlightRank: rank(1), HotScore: hot(1), CreatedAt: fixedNow}},
	}
	SortRecords(records)
	assert.Equal(t, []string{"new", "old", "unranked"}, ids(records))
}

func ids(records []ForumRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
