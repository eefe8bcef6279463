package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/loyalty-backend/api/responses"
	"github.com/angelmondragon/loyalty-backend/api/validators"
	"github.com/angelmondragon/loyalty-backend/internal/orders"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

const maxLockReasonLen = 500

type updateUserPayload struct {
	Nickname    *string `json:"nickname,omitempty" validate:"omitempty,max=100"`
	MemberLevel *string `json:"member_level,omitempty" validate:"omitempty,max=50"`
}

type lockUserPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "userId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

// AdminListUsers pages the full member roster, newest first.
func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(result, func(u models.User) userResponse {
			return toUserResponse(u)
		}))
	}
}

// AdminUpdateUser edits another member's nickname or tier.
func AdminUpdateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateUserPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := users.AdminUpdateInput{
			UserID:      userID,
			Nickname:    payload.Nickname,
			AdminUserID: adminID,
		}
		if payload.MemberLevel != nil {
			level := enums.MemberLevel(strings.TrimSpace(*payload.MemberLevel))
			input.MemberLevel = &level
		}

		user, err := svc.Update(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(*user))
	}
}

// AdminLockUser freezes a member account with a mandatory reason.
func AdminLockUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload lockUserPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Lock(ctx, users.LockInput{
			UserID:      userID,
			Reason:      validators.SanitizeString(payload.Reason, maxLockReasonLen),
			AdminUserID: adminID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(*user))
	}
}

// AdminUnlockUser returns a locked member to normal standing.
func AdminUnlockUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Unlock(ctx, userID, adminID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(*user))
	}
}

// AdminListOrders pages orders across every member with the same filters as
// the member-facing listing.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.ListAllInput{From: from, To: to, Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			input.Status = &status
		}

		result, err := svc.ListAll(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(result, func(o models.Order) orderResponse {
			return toOrderResponse(&o)
		}))
	}
}
