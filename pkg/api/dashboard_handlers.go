package api

import (
	"math/rand"
	"net/http"
	"runtime"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/middleware"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

// DashboardHandlers serves the dashboard reporting endpoints. User
// counts are real, derived from the user store; visit and system load
// figures are simulated placeholders until a real telemetry source is
// wired in.
type DashboardHandlers struct {
	users store.UserStore
	log   logrus.FieldLogger
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(users store.UserStore, log logrus.FieldLogger) *DashboardHandlers {
	return &DashboardHandlers{users: users, log: log}
}

// RegisterRoutes registers dashboard routes, all behind the
// authenticated gate
func (h *DashboardHandlers) RegisterRoutes(router *mux.Router, gates *middleware.AuthMiddleware) {
	router.Handle("/api/dashboard/overview", gates.RequireAuth(http.HandlerFunc(h.overview))).Methods("GET")
	router.Handle("/api/dashboard/charts/user-growth", gates.RequireAuth(http.HandlerFunc(h.userGrowth))).Methods("GET")
	router.Handle("/api/dashboard/charts/user-distribution", gates.RequireAuth(http.HandlerFunc(h.userDistribution))).Methods("GET")
	router.Handle("/api/dashboard/charts/activity", gates.RequireAuth(http.HandlerFunc(h.activityChart))).Methods("GET")
	router.Handle("/api/dashboard/recent-activities", gates.RequireAuth(http.HandlerFunc(h.recentActivities))).Methods("GET")
	router.Handle("/api/dashboard/system-info", gates.RequireAuth(http.HandlerFunc(h.systemInfo))).Methods("GET")
}

// overview handles GET /api/dashboard/overview
func (h *DashboardHandlers) overview(w http.ResponseWriter, r *http.Request) {
	weekAgo := timeNow().AddDate(0, 0, -7)
	stats, err := h.users.Stats(r.Context(), weekAgo)
	if err != nil {
		h.log.WithError(err).Error("overview stats query failed")
		httputil.WriteInternalError(w, "failed to get overview data")
		return
	}

	httputil.WriteSuccess(w, "overview retrieved", map[string]interface{}{
		"user_stats": stats,
		"system_stats": map[string]interface{}{
			"total_visits":  10000 + rand.Intn(40000),
			"today_visits":  100 + rand.Intn(900),
			"total_orders":  1000 + rand.Intn(4000),
			"total_revenue": float64(10000000+rand.Intn(40000000)) / 100,
		},
		"performance": map[string]interface{}{
			"cpu_usage":    20 + rand.Float64()*60,
			"memory_usage": 30 + rand.Float64()*40,
			"disk_usage":   40 + rand.Float64()*50,
		},
	})
}

// userGrowth handles GET /api/dashboard/charts/user-growth: daily signup
// counts over the last 30 days
func (h *DashboardHandlers) userGrowth(w http.ResponseWriter, r *http.Request) {
	daily, err := h.users.DailySignups(r.Context(), 30)
	if err != nil {
		h.log.WithError(err).Error("signup trend query failed")
		httputil.WriteInternalError(w, "failed to get user growth data")
		return
	}

	total := 0
	for _, day := range daily {
		total += day.Count
	}

	httputil.WriteSuccess(w, "user growth retrieved", map[string]interface{}{
		"chart_data":   daily,
		"total_growth": total,
	})
}

type distributionSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// userDistribution handles GET /api/dashboard/charts/user-distribution:
// user counts grouped by role and by status
func (h *DashboardHandlers) userDistribution(w http.ResponseWriter, r *http.Request) {
	byRole, err := h.users.CountByRole(r.Context())
	if err != nil {
		h.log.WithError(err).Error("role distribution query failed")
		httputil.WriteInternalError(w, "failed to get user distribution data")
		return
	}
	byStatus, err := h.users.CountByStatus(r.Context())
	if err != nil {
		h.log.WithError(err).Error("status distribution query failed")
		httputil.WriteInternalError(w, "failed to get user distribution data")
		return
	}

	roleData := make([]distributionSlice, 0, len(byRole))
	for role, count := range byRole {
		roleData = append(roleData, distributionSlice{Name: string(role), Value: count})
	}
	statusData := make([]distributionSlice, 0, len(byStatus))
	for status, count := range byStatus {
		statusData = append(statusData, distributionSlice{Name: string(status), Value: count})
	}

	httputil.WriteSuccess(w, "user distribution retrieved", map[string]interface{}{
		"role_distribution":   roleData,
		"status_distribution": statusData,
	})
}

// activityChart handles GET /api/dashboard/charts/activity: simulated
// traffic figures for the trailing week
func (h *DashboardHandlers) activityChart(w http.ResponseWriter, r *http.Request) {
	today := timeNow().UTC()
	activity := make([]map[string]interface{}, 0, 7)
	for i := 6; i >= 0; i-- {
		activity = append(activity, map[string]interface{}{
			"date":       today.AddDate(0, 0, -i).Format("2006-01-02"),
			"visits":     100 + rand.Intn(900),
			"operations": 50 + rand.Intn(450),
			"api_calls":  200 + rand.Intn(1800),
		})
	}

	httputil.WriteSuccess(w, "activity data retrieved", map[string]interface{}{
		"activity_data": activity,
	})
}

// recentActivities handles GET /api/dashboard/recent-activities: the
// latest registrations presented as an activity feed
func (h *DashboardHandlers) recentActivities(w http.ResponseWriter, r *http.Request) {
	users, _, err := h.users.List(r.Context(), store.ListFilter{Page: 1, PerPage: 10})
	if err != nil {
		h.log.WithError(err).Error("recent activity query failed")
		httputil.WriteInternalError(w, "failed to get recent activities")
		return
	}

	activities := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		activities = append(activities, map[string]interface{}{
			"id":          u.ID,
			"type":        "user_register",
			"description": "user " + u.Username + " registered an account",
			"user":        u.Username,
			"timestamp":   u.CreatedAt.Format("2006-01-02 15:04:05"),
			"status":      "success",
		})
	}

	httputil.WriteSuccess(w, "recent activities retrieved", map[string]interface{}{
		"activities": activities,
	})
}

// systemInfo handles GET /api/dashboard/system-info: host and
// application facts for the admin console footer
func (h *DashboardHandlers) systemInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, "system info retrieved", map[string]interface{}{
		"system_info": map[string]interface{}{
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			"go_version": runtime.Version(),
			"cpu_count":  runtime.NumCPU(),
		},
		"app_info": map[string]interface{}{
			"name":    "React Management System Backend",
			"version": Version,
		},
	})
}
