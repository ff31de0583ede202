package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/requestdata"
)

// currentUserID reads the authenticated user set by the auth middleware.
// A zero return means the handler already wrote the error response.
func currentUserID(c *gin.Context) uuid.UUID {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return uuid.Nil
	}
	return rd.UserID
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func errInvalidQuery(name string) error {
	return fmt.Errorf("invalid %s query parameter", name)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
