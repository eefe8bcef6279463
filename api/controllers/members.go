package controllers

import (
	"net/http"

	"github.com/angelmondragon/loyalty-backend/api/responses"
	"github.com/angelmondragon/loyalty-backend/api/validators"
	"github.com/angelmondragon/loyalty-backend/internal/users"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

type updateProfilePayload struct {
	Nickname *string `json:"nickname,omitempty" validate:"omitempty,max=100"`
}

// MemberProfile returns the caller's own profile.
func MemberProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Profile(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(*user))
	}
}

// MemberUpdateProfile applies the caller's profile edits.
func MemberUpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProfilePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(ctx, users.UpdateProfileInput{
			UserID:   userID,
			Nickname: payload.Nickname,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toUserResponse(*user))
	}
}
