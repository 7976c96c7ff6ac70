package feed

import (
	"context"
	"time"

	"github.com/pders01/corkboard/internal/listing"
)

type (
	RentService       = Service[listing.RentRecord, listing.RentItem]
	SecondhandService = Service[listing.SecondhandRecord, listing.SecondhandItem]
	RideService       = Service[listing.RideRecord, listing.RideItem]
	TeamService       = Service[listing.TeamRecord, listing.TeamItem]
	ForumService      = Service[listing.ForumRecord, listing.ForumItem]
)

func RentKind(n *listing.Normalizer) Kind[listing.RentRecord, listing.RentItem] {
	return Kind[listing.RentRecord, listing.RentItem]{Kind: listing.KindRent, Normalize: n.Rent}
}

func SecondhandKind(n *listing.Normalizer) Kind[listing.SecondhandRecord, listing.SecondhandItem] {
	return Kind[listing.SecondhandRecord, listing.SecondhandItem]{Kind: listing.KindSecondhand, Normalize: n.Secondhand}
}

func RideKind(n *listing.Normalizer) Kind[listing.RideRecord, listing.RideItem] {
	return Kind[listing.RideRecord, listing.RideItem]{Kind: listing.KindRide, Normalize: n.Ride}
}

func TeamKind(n *listing.Normalizer) Kind[listing.TeamRecord, listing.TeamItem] {
	return Kind[listing.TeamRecord, listing.TeamItem]{Kind: listing.KindTeam, Normalize: n.Team}
}

func ForumKind(n *listing.Normalizer) Kind[listing.ForumRecord, listing.ForumItem] {
	return Kind[listing.ForumRecord, listing.ForumItem]{Kind: listing.KindForum, Normalize: n.Forum}
}

// Feed is the kind-independent view of a Service used by the CLI and the
// terminal UI.
type Feed interface {
	Kind() listing.Kind
	Collection() string
	Fetch(ctx context.Context) error
	Cancel()
	Cards() CardState
	FetchCard(ctx context.Context, postID string) (listing.Card, error)
	ToggleLike(ctx context.Context, postID string, currentlyLiked bool) (bool, error)
	Pending(postID string) bool
	Subscribe() (<-chan struct{}, func())
}

// CardState is a State with every item rendered as a card.
type CardState struct {
	Kind      listing.Kind
	Cards     []listing.Card
	Loading   bool
	Err       string
	Phase     Phase
	UpdatedAt time.Time
}

func (s *Service[R, V]) Cards() CardState {
	st := s.State()
	cards := make([]listing.Card, len(st.Items))
	for i, item := range st.Items {
		cards[i] = item.Card()
	}
	return CardState{
		Kind:      s.kind.Kind,
		Cards:     cards,
		Loading:   st.Loading,
		Err:       st.Err,
		Phase:     st.Phase,
		UpdatedAt: st.UpdatedAt,
	}
}

func (s *Service[R, V]) FetchCard(ctx context.Context, postID string) (listing.Card, error) {
	item, err := s.FetchSingle(ctx, postID)
	if err != nil {
		return listing.Card{}, err
	}
	return item.Card(), nil
}
