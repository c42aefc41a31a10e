package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toohak-quiz-service/internal/domain"
)

func (h *Handler) startSession(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		AutoStartNum int `json:"autoStartNum"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sessionID, err := h.service.StartSession(c.Request.Context(), token(c), quizID, req.AutoStartNum)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

func (h *Handler) listSessions(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	list, err := h.service.ListSessions(c.Request.Context(), token(c), quizID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) sessionStatus(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	status, err := h.service.GetSessionStatus(c.Request.Context(), token(c), quizID, sessionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) updateSessionState(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := h.service.UpdateSessionState(c.Request.Context(), token(c), quizID, sessionID, domain.Command(req.Action))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) finalResults(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	results, err := h.service.GetFinalResults(c.Request.Context(), token(c), quizID, sessionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) exportCSV(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	url, err := h.service.ExportCSV(c.Request.Context(), token(c), quizID, sessionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
