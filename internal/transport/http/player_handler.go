package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) joinSession(c *gin.Context) {
	var req struct {
		SessionID int    `json:"sessionId"`
		Name      string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	playerID, err := h.service.JoinSession(c.Request.Context(), req.SessionID, req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playerId": playerID})
}

func (h *Handler) playerStatus(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	status, err := h.service.GetPlayerStatus(c.Request.Context(), playerID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) playerQuestion(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(c, "questionposition")
	if !ok {
		return
	}
	question, err := h.service.GetPlayerQuestion(c.Request.Context(), playerID, position)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) submitAnswer(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(c, "questionposition")
	if !ok {
		return
	}
	var req struct {
		AnswerIDs []int `json:"answerIds"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.SubmitAnswer(c.Request.Context(), playerID, position, req.AnswerIDs); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) questionResults(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(c, "questionposition")
	if !ok {
		return
	}
	results, err := h.service.GetQuestionResults(c.Request.Context(), playerID, position)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) playerResults(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	results, err := h.service.GetPlayerResults(c.Request.Context(), playerID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) listMessages(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), playerID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) sendMessage(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	var req struct {
		Message struct {
			MessageBody string `json:"messageBody"`
		} `json:"message"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.SendMessage(c.Request.Context(), playerID, req.Message.MessageBody); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
