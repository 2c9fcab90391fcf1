package store

import (
	"context"

	"github.com/matthewjablack/dynamicdashboard/internal/dashboard"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// UserGateway scopes the store to one user so a dashboard.Store can save through it
// in-process.
func (s *Store) UserGateway(userID string) dashboard.Gateway {
	return userGateway{s: s, user: userID}
}

type userGateway struct {
	s    *Store
	user string
}

func (g userGateway) List(ctx context.Context) ([]model.Dashboard, error) {
	return g.s.ListDashboards(ctx, g.user)
}

func (g userGateway) Create(ctx context.Context, d model.Dashboard) (model.Dashboard, error) {
	return g.s.CreateDashboard(ctx, g.user, d)
}

func (g userGateway) Update(ctx context.Context, id int64, d model.Dashboard) error {
	return g.s.UpdateDashboard(ctx, g.user, id, d)
}
