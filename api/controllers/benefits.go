package controllers

import (
	"net/http"

	"github.com/angelmondragon/loyalty-backend/api/responses"
	"github.com/angelmondragon/loyalty-backend/api/validators"
	"github.com/angelmondragon/loyalty-backend/internal/benefits"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

// BenefitsForUser lists the active benefits for the caller's membership tier.
func BenefitsForUser(svc benefits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "benefits service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]benefitResponse, 0, len(items))
		for _, item := range items {
			out = append(out, toBenefitResponse(item))
		}
		responses.WriteSuccess(w, map[string]any{"items": out})
	}
}

// MyBenefits pages the caller's distribution records, newest first.
func MyBenefits(svc benefits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "benefits service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.UserDistributions(ctx, userID, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(result, func(d models.BenefitDistribution) distributionResponse {
			return toDistributionResponse(d)
		}))
	}
}
