package repository

import (
	"context"
	"time"

	"telejam/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*entity.User, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
}
