package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/loyalty-backend/api/responses"
	"github.com/angelmondragon/loyalty-backend/api/validators"
	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/internal/points"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

const maxAdjustReasonLen = 500

type adjustPointsPayload struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
}

type createBenefitPayload struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        string  `json:"type" validate:"required"`
	MemberLevel string  `json:"member_level" validate:"required"`
	Value       *string `json:"value,omitempty" validate:"omitempty,max=500"`
}

type distributePayload struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	BenefitID *string `json:"benefit_id,omitempty" validate:"omitempty,uuid"`
	Period    string  `json:"period" validate:"required"`
}

// AdminAdjustPoints applies a manual balance correction attributed to the
// calling administrator.
func AdminAdjustPoints(svc points.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		adminID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustPointsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		tx, err := svc.Adjust(ctx, points.AdjustInput{
			UserID:      userID,
			Delta:       payload.Delta,
			Reason:      validators.SanitizeString(payload.Reason, maxAdjustReasonLen),
			AdminUserID: adminID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toTransactionResponse(*tx))
	}
}

// AdminCreateBenefit registers a new benefit for a membership tier.
func AdminCreateBenefit(svc benefits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "benefits service unavailable"))
			return
		}

		var payload createBenefitPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		benefit, err := svc.CreateBenefit(ctx, benefits.CreateBenefitInput{
			Name:        validators.SanitizeString(payload.Name, 200),
			Description: payload.Description,
			Type:        enums.BenefitType(strings.TrimSpace(payload.Type)),
			MemberLevel: enums.MemberLevel(strings.TrimSpace(payload.MemberLevel)),
			Value:       payload.Value,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBenefitResponse(*benefit))
	}
}

// AdminListBenefits pages every configured benefit.
func AdminListBenefits(svc benefits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "benefits service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListBenefits(ctx, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(result, func(b models.Benefit) benefitResponse {
			return toBenefitResponse(b)
		}))
	}
}

// AdminDistributeBenefits grants benefits for a period. With a benefit id it
// grants that single benefit; without one it runs the full monthly
// distribution for the user's tier.
func AdminDistributeBenefits(svc benefits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "benefits service unavailable"))
			return
		}

		var payload distributePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		period := strings.TrimSpace(payload.Period)

		if payload.BenefitID != nil {
			benefitID, err := uuid.Parse(*payload.BenefitID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid benefit id"))
				return
			}
			dist, err := svc.Distribute(ctx, userID, benefitID, period)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
				"items": []distributionResponse{toDistributionResponse(*dist)},
			})
			return
		}

		grant, err := svc.DistributeMonthly(ctx, userID, period)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]distributionResponse, 0, len(grant.Distributions))
		for _, d := range grant.Distributions {
			out = append(out, toDistributionResponse(d))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"items":   out,
			"skipped": grant.Skipped,
		})
	}
}
