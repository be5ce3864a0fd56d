package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

func TestDashboardRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/dashboard/overview",
		"/api/dashboard/charts/user-growth",
		"/api/dashboard/charts/user-distribution",
		"/api/dashboard/charts/activity",
		"/api/dashboard/recent-activities",
		"/api/dashboard/system-info",
	} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestDashboardOverview(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, adminToken, _ := userFixtures(t, env)

	rec := env.do(t, http.MethodGet, "/api/dashboard/overview", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envData := decodeEnvelope(t, rec)

	userStats, ok := dataField(t, envData, "user_stats").(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), userStats["total"])
	assert.Equal(t, float64(3), userStats["active"])
	assert.Equal(t, float64(1), userStats["admin"])
	assert.Equal(t, float64(3), userStats["recent"])

	assert.NotNil(t, dataField(t, envData, "system_stats"))
	assert.NotNil(t, dataField(t, envData, "performance"))
}

func TestDashboardUserGrowth(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, adminToken, _ := userFixtures(t, env)

	rec := env.do(t, http.MethodGet, "/api/dashboard/charts/user-growth", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envData := decodeEnvelope(t, rec)

	chart, ok := dataField(t, envData, "chart_data").([]interface{})
	require.True(t, ok)
	assert.Len(t, chart, 30)

	// All three fixtures registered today, the window's last day
	last := chart[len(chart)-1].(map[string]interface{})
	assert.Equal(t, float64(3), last["count"])
	assert.Equal(t, float64(3), dataField(t, envData, "total_growth"))
}

func TestDashboardUserDistribution(t *testing.T) {
	env := newTestEnv(t)
	_, _, regular, adminToken, _ := userFixtures(t, env)

	regular.Status = models.StatusInactive
	require.NoError(t, env.users.Update(context.Background(), regular))

	rec := env.do(t, http.MethodGet, "/api/dashboard/charts/user-distribution", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envData := decodeEnvelope(t, rec)

	roles, ok := dataField(t, envData, "role_distribution").([]interface{})
	require.True(t, ok)
	assert.Len(t, roles, 3)

	statuses, ok := dataField(t, envData, "status_distribution").([]interface{})
	require.True(t, ok)
	counts := map[string]float64{}
	for _, s := range statuses {
		slice := s.(map[string]interface{})
		counts[slice["name"].(string)] = slice["value"].(float64)
	}
	assert.Equal(t, float64(2), counts["active"])
	assert.Equal(t, float64(1), counts["inactive"])
}

func TestDashboardActivityChart(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, adminToken, _ := userFixtures(t, env)

	rec := env.do(t, http.MethodGet, "/api/dashboard/charts/activity", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	activity, ok := dataField(t, decodeEnvelope(t, rec), "activity_data").([]interface{})
	require.True(t, ok)
	require.Len(t, activity, 7)

	for _, day := range activity {
		entry := day.(map[string]interface{})
		assert.NotEmpty(t, entry["date"])
		assert.GreaterOrEqual(t, entry["visits"].(float64), float64(100))
		assert.GreaterOrEqual(t, entry["operations"].(float64), float64(50))
		assert.GreaterOrEqual(t, entry["api_calls"].(float64), float64(200))
	}
}

func TestDashboardSystemInfo(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, adminToken, _ := userFixtures(t, env)

	rec := env.do(t, http.MethodGet, "/api/dashboard/system-info", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envData := decodeEnvelope(t, rec)

	sysInfo, ok := dataField(t, envData, "system_info").(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, sysInfo["platform"])
	assert.NotEmpty(t, sysInfo["go_version"])
	assert.GreaterOrEqual(t, sysInfo["cpu_count"].(float64), float64(1))

	appInfo, ok := dataField(t, envData, "app_info").(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, Version, appInfo["version"])
}

func TestDashboardRecentActivities(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, adminToken, _ := userFixtures(t, env)

	rec := env.do(t, http.MethodGet, "/api/dashboard/recent-activities", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	activities, ok := dataField(t, decodeEnvelope(t, rec), "activities").([]interface{})
	require.True(t, ok)
	require.Len(t, activities, 3)

	newest := activities[0].(map[string]interface{})
	assert.Equal(t, "user_register", newest["type"])
	assert.Equal(t, "testuser", newest["user"])
}
