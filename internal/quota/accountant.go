package quota

import (
	"context"
	"fmt"

	"github.com/aslanbek/filevault/internal/auth"
	"github.com/google/uuid"
)

// usageSource reports how many bytes an owner has stored.
type usageSource interface {
	UsageBytes(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// userSource resolves an owner to their plan limit.
type userSource interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (auth.User, error)
}

// Accountant computes used-vs-allowed storage per user on demand.
type Accountant struct {
	files usageSource
	users userSource
}

// NewAccountant builds an accountant over the file catalog and user store.
func NewAccountant(files usageSource, users userSource) *Accountant {
	return &Accountant{files: files, users: users}
}

// Usage returns the total bytes stored by the owner.
func (a *Accountant) Usage(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	used, err := a.files.UsageBytes(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return used, nil
}

// Limit returns the owner's plan storage limit.
func (a *Accountant) Limit(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	user, err := a.users.FindUserByID(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("resolve owner: %w", err)
	}
	return user.StorageLimit, nil
}

// WouldExceed reports whether adding incomingBytes would pass the limit.
// The check is advisory: it is not atomic with the subsequent write.
func (a *Accountant) WouldExceed(ctx context.Context, ownerID uuid.UUID, incomingBytes int64) (bool, error) {
	used, err := a.Usage(ctx, ownerID)
	if err != nil {
		return false, err
	}
	limit, err := a.Limit(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return used+incomingBytes > limit, nil
}
