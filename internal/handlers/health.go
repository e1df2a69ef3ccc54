package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/postboard/internal/monitoring"
)

// Health reports readiness by running every registered dependency probe.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeHealthReport(c, manager.Evaluate(requestContext(c)))
	}
}

// Live reports that the process is serving requests.
func Live(c *gin.Context) {
	writeHealthReport(c, monitoring.HealthReport{
		Success: true,
		Status:  monitoring.StatusUp,
		Checks:  []monitoring.ProbeResult{},
	})
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	status := http.StatusOK
	if !report.Success {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}
