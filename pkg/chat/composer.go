package chat

import (
	"net/http"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/sage/pkg/models"
)

const (
	msgSuccess         = "success"
	msgCloseMatch      = "no exact match, returning closest available plans"
	msgNoMatch         = "no matching plans found"
	msgCountryNotFound = "country not recognized"
)

// Compose maps a resolved country, a match result, and the extracted chat text
// onto the response envelope. Close matches keep status 200 with success=false
// so the widget can render them as suggestions rather than a hard failure.
func Compose(country *models.Country, match models.MatchResult, chatText string) models.ChatResponse {
	if country == nil {
		return models.ChatResponse{
			Status:   http.StatusNotFound,
			Success:  false,
			Message:  msgCountryNotFound,
			ChatText: chatText,
			Data:     []models.PlanView{},
		}
	}

	switch match.Outcome() {
	case models.MatchOutcomeExact:
		return models.ChatResponse{
			Status:   http.StatusOK,
			Success:  true,
			Message:  msgSuccess,
			ChatText: chatText,
			Data:     toPlanViews(country, match.Plans()),
		}
	case models.MatchOutcomeClose:
		return models.ChatResponse{
			Status:   http.StatusOK,
			Success:  false,
			Message:  msgCloseMatch,
			ChatText: chatText,
			Data:     toPlanViews(country, match.Plans()),
		}
	default:
		return models.ChatResponse{
			Status:   http.StatusNotFound,
			Success:  false,
			Message:  msgNoMatch,
			ChatText: chatText,
			Data:     []models.PlanView{},
		}
	}
}

// toPlanViews projects catalog rows into the client shape, replacing the raw
// country code with the canonically resolved country name.
func toPlanViews(country *models.Country, plans []models.Plan) []models.PlanView {
	views := ectolinq.Map(plans, func(plan models.Plan) models.PlanView {
		name := plan.CountryCode
		if country.Name != "" {
			name = country.Name
		}
		return models.PlanView{
			Country:        name,
			DataAmount:     plan.DataAmount,
			DataUnit:       plan.DataUnit,
			DurationInDays: plan.DurationInDays,
			Price:          plan.Price,
			PlanOption:     plan.PlanOption,
		}
	})
	if views == nil {
		views = []models.PlanView{}
	}
	return views
}
