package controllers

import (
	"errors"
	"net/http"

	"setup-workflow-api/services"

	"github.com/gin-gonic/gin"
)

func actorFromContext(c *gin.Context) services.Actor {
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")

	actor := services.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	if id, ok := userID.(int); ok {
		actor.UserID = id
	}
	if role, ok := roleName.(string); ok {
		actor.Role = role
	}
	return actor
}

// respondServiceError maps the workflow error taxonomy onto HTTP status
// codes: 404 for missing records, 400 for bad input, 409 for state-machine
// conflicts, 403 for role violations, 500 otherwise.
func respondServiceError(c *gin.Context, err error) {
	if ve, ok := services.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": ve.Error(),
			"errors":  ve.Fields,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrRequiresComments),
		errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrInvalidSlot):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrDuplicateMeeting),
		errors.Is(err, services.ErrAlreadyConfirmed):
		status = http.StatusConflict
	case errors.Is(err, services.ErrForbiddenRole):
		status = http.StatusForbidden
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Unexpected error, please try again"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

// docsEnvelope wraps list responses in the {success, data: {docs}} shape.
func docsEnvelope(docs interface{}, total int) gin.H {
	return gin.H{
		"success": true,
		"data": gin.H{
			"docs":  docs,
			"total": total,
		},
	}
}
