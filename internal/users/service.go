package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/audit"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

// Service covers member self-service profiles plus the admin roster,
// including account locks that take members out of benefit distribution.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error)
	List(ctx context.Context, page pagination.Params) (pagination.Page[models.User], error)
	Update(ctx context.Context, input AdminUpdateInput) (*models.User, error)
	Lock(ctx context.Context, input LockInput) (*models.User, error)
	Unlock(ctx context.Context, userID, adminUserID uuid.UUID) (*models.User, error)
}

type service struct {
	repo  Repository
	audit audit.Recorder
	now   func() time.Time
}

// UpdateProfileInput carries the fields a member may change on their own
// account.
type UpdateProfileInput struct {
	UserID   uuid.UUID
	Nickname *string
}

// AdminUpdateInput carries an administrative edit of another member.
type AdminUpdateInput struct {
	UserID      uuid.UUID
	Nickname    *string
	MemberLevel *enums.MemberLevel
	AdminUserID uuid.UUID
}

// LockInput freezes a member account with an operator-facing reason.
type LockInput struct {
	UserID      uuid.UUID
	Reason      string
	AdminUserID uuid.UUID
}

// NewService wires the users service with persistence and the audit trail.
func NewService(repo Repository, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:  repo,
		audit: recorder,
		now:   time.Now,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.load(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.load(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			user.Nickname = nil
		} else {
			user.Nickname = &nickname
		}
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (pagination.Page[models.User], error) {
	var empty pagination.Page[models.User]
	params := page.Normalize()
	users, total, err := s.repo.List(ctx, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return pagination.NewPage(users, total, params), nil
}

// Update applies an administrative edit. Member level changes take effect on
// the next distribution sweep; already granted benefits are untouched.
func (s *service) Update(ctx context.Context, input AdminUpdateInput) (*models.User, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.MemberLevel != nil && !input.MemberLevel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid member level %q", *input.MemberLevel))
	}

	user, err := s.load(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			user.Nickname = nil
		} else {
			user.Nickname = &nickname
		}
	}
	if input.MemberLevel != nil {
		user.MemberLevel = *input.MemberLevel
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "user.update",
		AdminUserID: input.AdminUserID.String(),
		UserID:      user.ID.String(),
		Detail: map[string]any{
			"member_level": user.MemberLevel,
		},
	})
	return user, nil
}

// Lock freezes the account. Locked members keep their balance and history
// but drop out of the monthly distribution sweep. Locking an already locked
// account just refreshes the reason and timestamp.
func (s *service) Lock(ctx context.Context, input LockInput) (*models.User, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lock reason required")
	}

	at := s.now().UTC()
	applied, err := s.repo.SetLock(ctx, input.UserID, true, &at, &reason)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "user.lock",
		AdminUserID: input.AdminUserID.String(),
		UserID:      input.UserID.String(),
		Detail: map[string]any{
			"reason": reason,
		},
	})
	return s.load(ctx, input.UserID)
}

// Unlock clears the lock triplet and returns the member to distribution.
func (s *service) Unlock(ctx context.Context, userID, adminUserID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	applied, err := s.repo.SetLock(ctx, userID, false, nil, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlock user")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "user.unlock",
		AdminUserID: adminUserID.String(),
		UserID:      userID.String(),
	})
	return s.load(ctx, userID)
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
