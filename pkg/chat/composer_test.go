package chat

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func japanPlans() []models.Plan {
	return []models.Plan{
		{ID: "jp-1", CountryCode: "JP", DataAmount: 5, DataUnit: "GB", DurationInDays: 10, Price: 19.99},
		{ID: "jp-2", CountryCode: "JP", DataAmount: 10, DataUnit: "GB", DurationInDays: 10, Price: 29.99, PlanOption: strPtr("unlimited calls")},
	}
}

func TestCompose_Exact(t *testing.T) {
	country := &models.Country{Code: "JP", Name: "Japan"}

	resp := Compose(country, models.ExactMatch(japanPlans()), "Here you go!")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.Success)
	assert.Equal(t, msgSuccess, resp.Message)
	assert.Equal(t, "Here you go!", resp.ChatText)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Japan", resp.Data[0].Country)
	assert.Equal(t, 5.0, resp.Data[0].DataAmount)
	assert.Equal(t, "GB", resp.Data[0].DataUnit)
	assert.Equal(t, 10, resp.Data[0].DurationInDays)
	assert.Equal(t, 19.99, resp.Data[0].Price)
	assert.Nil(t, resp.Data[0].PlanOption)
	require.NotNil(t, resp.Data[1].PlanOption)
	assert.Equal(t, "unlimited calls", *resp.Data[1].PlanOption)
}

func TestCompose_CloseMatch(t *testing.T) {
	country := &models.Country{Code: "JP", Name: "Japan"}

	resp := Compose(country, models.CloseMatch(japanPlans()[:1]), "Closest I found.")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, msgCloseMatch, resp.Message)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Japan", resp.Data[0].Country)
}

func TestCompose_NoMatch(t *testing.T) {
	country := &models.Country{Code: "JP", Name: "Japan"}

	resp := Compose(country, models.NoMatch(), "Nothing there.")

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, msgNoMatch, resp.Message)
	require.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestCompose_CountryNotFound(t *testing.T) {
	resp := Compose(nil, models.NoMatch(), "Never heard of it.")

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.Success)
	assert.Equal(t, msgCountryNotFound, resp.Message)
	assert.Equal(t, "Never heard of it.", resp.ChatText)
	require.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestCompose_ExactWithNoRowsKeepsDataNonNil(t *testing.T) {
	country := &models.Country{Code: "JP", Name: "Japan"}

	resp := Compose(country, models.ExactMatch(nil), "ok")

	require.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestCompose_FallsBackToCodeWithoutCanonicalName(t *testing.T) {
	country := &models.Country{Code: "JP"}

	resp := Compose(country, models.ExactMatch(japanPlans()[:1]), "ok")

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "JP", resp.Data[0].Country)
}
