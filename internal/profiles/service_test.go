package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
)

type fakeGateway struct {
	selectFn func(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error)
}

func (f *fakeGateway) Select(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error) {
	if f.selectFn != nil {
		return f.selectFn(ctx, table, columns, filter, opts)
	}
	return nil, nil
}

func (f *fakeGateway) Insert(context.Context, string, gateway.Row) (gateway.Row, error) {
	return nil, nil
}

func (f *fakeGateway) Update(context.Context, string, gateway.Row, gateway.Filter) ([]gateway.Row, error) {
	return nil, nil
}

func (f *fakeGateway) Delete(context.Context, string, gateway.Filter) error {
	return nil
}

func (f *fakeGateway) Subscribe(string, gateway.Filter, gateway.Handler) (gateway.Handle, error) {
	return nil, nil
}

func TestFetchManyResolvesProfiles(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	gw := &fakeGateway{
		selectFn: func(_ context.Context, table string, _ []string, _ gateway.Filter, _ gateway.Options) ([]gateway.Row, error) {
			if table != "profiles" {
				t.Fatalf("unexpected table %q", table)
			}
			return []gateway.Row{
				{"id": alice.String(), "display_name": "Alice", "avatar_url": "https://cdn/a.png"},
				{"id": bob.String(), "display_name": "Bob"},
			}, nil
		},
	}
	svc, err := NewService(gw, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.FetchMany(context.Background(), []uuid.UUID{alice, bob})
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(got))
	}
	if got[alice].DisplayName != "Alice" || got[alice].AvatarURL == nil {
		t.Fatalf("alice profile mismatch: %+v", got[alice])
	}
	if got[bob].AvatarURL != nil {
		t.Fatal("bob should have no avatar")
	}
}

func TestFetchManySkipsMalformedRows(t *testing.T) {
	known := uuid.New()
	gw := &fakeGateway{
		selectFn: func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
			return []gateway.Row{
				{"id": "not-a-uuid", "display_name": "Ghost"},
				{"id": known.String(), "display_name": "Known"},
			}, nil
		},
	}
	svc, _ := NewService(gw, nil)

	got, err := svc.FetchMany(context.Background(), []uuid.UUID{known})
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the malformed row to be dropped, got %d entries", len(got))
	}
}

func TestFetchManyGatewayError(t *testing.T) {
	gw := &fakeGateway{
		selectFn: func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "connection reset")
		},
	}
	svc, _ := NewService(gw, nil)

	if _, err := svc.FetchMany(context.Background(), []uuid.UUID{uuid.New()}); err == nil {
		t.Fatal("expected gateway error to surface")
	}
}

func TestFetchManyEmptyInput(t *testing.T) {
	svc, _ := NewService(&fakeGateway{
		selectFn: func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
			t.Fatal("no query expected for empty input")
			return nil, nil
		},
	}, nil)

	got, err := svc.FetchMany(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v / %v", got, err)
	}
}
