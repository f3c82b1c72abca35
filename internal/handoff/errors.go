package handoff

import "github.com/planet-nine-app/linkitylink/internal/domain"

var (
	ErrNotFound              = &domain.Error{Kind: domain.KindNotFound, Message: "handoff not found or expired"}
	ErrIncorrectSequence     = &domain.Error{Kind: domain.KindValidation, Message: "incorrect sequence"}
	ErrSequenceAlreadySolved = &domain.Error{Kind: domain.KindState, Message: "sequence already completed"}
	ErrSequenceNotSolved     = &domain.Error{Kind: domain.KindState, Message: "sequence must be verified before associating app credentials"}
	ErrNotAuthorized         = &domain.Error{Kind: domain.KindAuthorization, Message: "app key does not match the bound app"}
	ErrAlreadyBound          = &domain.Error{Kind: domain.KindConflict, Message: "handoff is already bound to a different app"}
	ErrTooManyAttempts       = &domain.Error{Kind: domain.KindTooManyAttempts, Message: "too many incorrect sequence attempts"}
)
