// Package backup exports everything a sheikh owns.
package backup

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

// Snapshot holds a sheikh's students and loo7.
type Snapshot struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Students   []student.Student `json:"students"`
	Loo7s      []loo7.Loo7       `json:"loo7s"`
}

func Take(ctx context.Context, students student.Service, loo7s loo7.Service, ownerID string) (Snapshot, error) {
	ss, err := students.QueryAll(ctx, ownerID)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying students")
	}
	ls, err := loo7s.Query(ctx, ownerID, loo7.QueryFilter{})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying loo7")
	}
	if ls == nil {
		ls = []loo7.Loo7{}
	}
	return Snapshot{ExportedAt: core.NowFunc().UTC(), Students: ss, Loo7s: ls}, nil
}
