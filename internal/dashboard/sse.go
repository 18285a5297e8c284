package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulseward/pulseward/internal/models"
	"gorm.io/gorm"
)

// submissionEvent holds data for a new-submission SSE event.
type submissionEvent struct {
	ID            string `json:"id"`
	ParticipantID uint   `json:"participant_id"`
	Type          string `json:"type"`
	Total         int64  `json:"total"`
}

// handleSSE creates an SSE handler that polls for freshly saved submissions
// so the operator view updates without refresh.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		// Send connected event.
		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Only alert on submissions saved after the stream opened.
		lastSeen := time.Now()

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var fresh []models.Submission
				db.Where("created_at > ?", lastSeen).Order("created_at ASC").Find(&fresh)
				if len(fresh) == 0 {
					continue
				}
				lastSeen = fresh[len(fresh)-1].CreatedAt

				var total int64
				db.Model(&models.Submission{}).Count(&total)

				latest := fresh[len(fresh)-1]
				writeSSE(c.Writer, "submission", submissionEvent{
					ID:            latest.ID,
					ParticipantID: latest.ParticipantID,
					Type:          latest.Type,
					Total:         total,
				})
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
