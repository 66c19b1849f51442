package quota

import (
	"context"
	"testing"

	"github.com/aslanbek/filevault/internal/auth"
	"github.com/google/uuid"
)

type fixedUsage struct {
	used int64
}

func (f fixedUsage) UsageBytes(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return f.used, nil
}

type fixedUsers struct {
	limit int64
}

func (f fixedUsers) FindUserByID(ctx context.Context, id uuid.UUID) (auth.User, error) {
	return auth.User{ID: id, Plan: "free", StorageLimit: f.limit}, nil
}

func TestWouldExceedBoundary(t *testing.T) {
	ownerID := uuid.New()

	cases := []struct {
		name     string
		used     int64
		limit    int64
		incoming int64
		want     bool
	}{
		{"well under", 0, 100, 50, false},
		{"exactly at limit", 40, 100, 60, false},
		{"one byte over", 40, 100, 61, true},
		{"already full", 100, 100, 1, true},
		{"zero incoming at limit", 100, 100, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := NewAccountant(fixedUsage{used: tc.used}, fixedUsers{limit: tc.limit})
			got, err := acc.WouldExceed(context.Background(), ownerID, tc.incoming)
			if err != nil {
				t.Fatalf("WouldExceed returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("WouldExceed(used=%d, limit=%d, incoming=%d) = %v, want %v",
					tc.used, tc.limit, tc.incoming, got, tc.want)
			}
		})
	}
}

func TestUsageAndLimitPassThrough(t *testing.T) {
	acc := NewAccountant(fixedUsage{used: 1234}, fixedUsers{limit: 5 << 30})
	ownerID := uuid.New()

	used, err := acc.Usage(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("Usage returned error: %v", err)
	}
	if used != 1234 {
		t.Fatalf("expected usage 1234, got %d", used)
	}

	limit, err := acc.Limit(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("Limit returned error: %v", err)
	}
	if limit != 5<<30 {
		t.Fatalf("expected 5 GiB limit, got %d", limit)
	}
}
