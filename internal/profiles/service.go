// Package profiles resolves public profile data joined onto friend requests.
package profiles

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
)

const profilesTable = "profiles"

// Profile is the subset of profile data the engine needs.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	AvatarURL   *string   `json:"avatarUrl,omitempty"`
}

// Service batch-fetches profiles through the data gateway.
type Service struct {
	gw   gateway.Gateway
	logg *logger.Logger
}

func NewService(gw gateway.Gateway, logg *logger.Logger) (*Service, error) {
	if gw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway required")
	}
	return &Service{gw: gw, logg: logg}, nil
}

// FetchMany resolves the given ids in one query. Ids missing from the result
// are simply absent from the map; callers render those entries without a
// profile rather than failing the whole view.
func (s *Service) FetchMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Profile, error) {
	result := make(map[uuid.UUID]*Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}

	rows, err := s.gw.Select(ctx, profilesTable,
		[]string{"id", "display_name", "avatar_url"},
		gateway.In("id", values...),
		gateway.Options{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch profiles")
	}

	for _, row := range rows {
		profile := profileFromRow(row)
		if profile == nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithTable(ctx, profilesTable), "skipping malformed profile row")
			}
			continue
		}
		result[profile.ID] = profile
	}
	return result, nil
}

func profileFromRow(row gateway.Row) *Profile {
	id := gateway.UUID(row, "id")
	if id == uuid.Nil {
		return nil
	}
	profile := &Profile{
		ID:          id,
		DisplayName: gateway.String(row, "display_name"),
	}
	if gateway.Has(row, "avatar_url") {
		url := gateway.String(row, "avatar_url")
		if url != "" {
			profile.AvatarURL = &url
		}
	}
	return profile
}
