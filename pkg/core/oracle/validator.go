package oracle

import (
	"context"
	"fmt"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

// CastSource provides cast lists.
type CastSource interface {
	CastList(ctx context.Context, mediaID int64, category types.Category) (types.CastList, error)
}

// Validator checks single player moves: is this actor credited in this media work?
// Every call is a fresh upstream lookup.
type Validator struct {
	src CastSource
}

func NewValidator(src CastSource) *Validator {
	return &Validator{src: src}
}

// IsMember reports whether actorID appears in the cast of the media work.
// Series are checked against the cast of all seasons.
func (v *Validator) IsMember(ctx context.Context, actorID, mediaID int64, category types.Category) (bool, error) {
	if actorID <= 0 || mediaID <= 0 {
		return false, errs.InvalidInput("actor and media ids must be positive")
	}
	if !category.Valid() {
		return false, errs.InvalidInput(fmt.Sprintf("unknown media type %q", category))
	}

	cl, err := v.src.CastList(ctx, mediaID, category)
	if err != nil {
		return false, fmt.Errorf("validate actor %d in %s %d: %w", actorID, category, mediaID, err)
	}
	return cl.Contains(actorID), nil
}
