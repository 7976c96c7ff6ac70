package listing

import (
	"fmt"
	"strings"
)

// Kind names one content category of the board.
type Kind string

const (
	KindRent       Kind = "rent"
	KindSecondhand Kind = "secondhand"
	KindRide       Kind = "ride"
	KindTeam       Kind = "team"
	KindForum      Kind = "forum"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindRent, KindSecondhand, KindRide, KindTeam, KindForum}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (want one of %s)", s, kindList())
}

// DefaultCollection is the backend view a kind's feed reads from.
func (k Kind) DefaultCollection() string {
	return string(k) + "_posts_feed"
}

// Title is the human label used for tabs and headers.
func (k Kind) Title() string {
	switch k {
	case KindRent:
		return "Housing"
	case KindSecondhand:
		return "Secondhand"
	case KindRide:
		return "Rides"
	case KindTeam:
		return "Teams"
	case KindForum:
		return "Forum"
	default:
		return string(k)
	}
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
