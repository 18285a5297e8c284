package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	router.GET("/api/status", handleStatus(db))
	router.GET("/api/participants", handleParticipantList(db))
	router.GET("/api/participants/:id", handleParticipantDetail(db))
	router.GET("/api/submissions", handleSubmissions(db))
	router.GET("/api/completion", handleCompletion(db))
	router.GET("/api/events", handleSSE(db))
}

func handleStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := GetProgramStatus(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func handleParticipantList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := ParticipantList(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": rows})
	}
}

func handleParticipantDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
			return
		}
		detail, err := GetParticipantDetail(db, uint(id))
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func handleSubmissions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters SubmissionFilters
		if raw := c.Query("participant_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant_id"})
				return
			}
			filters.ParticipantID = uint(id)
		}
		filters.Type = c.Query("type")

		result, err := SubmissionList(db, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleCompletion(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cells, err := CompletionSummary(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"completion": cells})
	}
}
