package reaction

// State is the social snapshot shown on a card: how many users like a post
// and whether the acting user is one of them.
type State struct {
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}

// Toggled returns s with the like flag set to liked. The count moves by one
// in the matching direction and never drops below zero. Setting the flag it
// already has is a no-op.
func (s State) Toggled(liked bool) State {
	if s.IsLiked == liked {
		return s
	}
	s.IsLiked = liked
	if liked {
		s.LikeCount++
	} else {
		s.LikeCount--
	}
	return s.clamped()
}

// Flip applies a user toggle to s. currentlyLiked is what the user saw when
// acting and wins over the flag stored in s.
func Flip(s State, currentlyLiked bool) State {
	s.IsLiked = currentlyLiked
	return s.clamped().Toggled(!currentlyLiked)
}

// Compensate undoes an optimistic edit. If current still equals the value
// written optimistically it is replaced by previous; anything else means a
// newer write landed in between and current is kept.
func Compensate(current, optimistic, previous State) State {
	if current == optimistic {
		return previous
	}
	return current
}

func (s State) clamped() State {
	if s.LikeCount < 0 {
		s.LikeCount = 0
	}
	return s
}
