package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"toohak-quiz-service/internal/app"
	"toohak-quiz-service/internal/domain"
)

// Handler binds the application service to the JSON API. All admin routes
// authenticate through the token header; player routes are keyed by the
// player ID alone.
type Handler struct {
	service *app.Service
}

// respondErr maps the error taxonomy to HTTP statuses: structurally invalid
// tokens are 401, unknown-but-well-formed tokens are 403, and every other
// rejection is 400.
func respondErr(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrTokenStructure):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotLoggedIn):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func token(c *gin.Context) string {
	return c.GetHeader("token")
}

// ----- auth -----

func (h *Handler) register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		NameFirst string `json:"nameFirst"`
		NameLast  string `json:"nameLast"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tok, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.NameFirst, req.NameLast)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tok, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), token(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ----- user -----

func (h *Handler) userDetails(c *gin.Context) {
	details, err := h.service.Details(c.Request.Context(), token(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": details})
}

func (h *Handler) updateUserDetails(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		NameFirst string `json:"nameFirst"`
		NameLast  string `json:"nameLast"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateDetails(c.Request.Context(), token(c), req.Email, req.NameFirst, req.NameLast); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) updateUserPassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdatePassword(c.Request.Context(), token(c), req.OldPassword, req.NewPassword); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ----- quiz -----

func (h *Handler) createQuiz(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	quizID, err := h.service.CreateQuiz(c.Request.Context(), token(c), req.Name, req.Description)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizId": quizID})
}

func (h *Handler) listQuizzes(c *gin.Context) {
	quizzes, err := h.service.ListQuizzes(c.Request.Context(), token(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (h *Handler) listTrash(c *gin.Context) {
	quizzes, err := h.service.ListTrash(c.Request.Context(), token(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// emptyTrash takes the target IDs as a JSON array in the quizIds query
// parameter, e.g. ?quizIds=[1,2,3].
func (h *Handler) emptyTrash(c *gin.Context) {
	var quizIDs []int
	if err := json.Unmarshal([]byte(c.Query("quizIds")), &quizIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quizIds"})
		return
	}
	if err := h.service.EmptyTrash(c.Request.Context(), token(c), quizIDs); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) quizInfo(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	info, err := h.service.GetQuizInfo(c.Request.Context(), token(c), quizID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) removeQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	if err := h.service.RemoveQuiz(c.Request.Context(), token(c), quizID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) updateQuizName(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateQuizName(c.Request.Context(), token(c), quizID, req.Name); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) updateQuizDescription(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateQuizDescription(c.Request.Context(), token(c), quizID, req.Description); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) updateQuizThumbnail(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		ImgURL string `json:"imgUrl"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateQuizThumbnail(c.Request.Context(), token(c), quizID, req.ImgURL); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) restoreQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	if err := h.service.RestoreQuiz(c.Request.Context(), token(c), quizID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) transferQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		UserEmail string `json:"userEmail"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.TransferQuiz(c.Request.Context(), token(c), quizID, req.UserEmail); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ----- question -----

func (h *Handler) createQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	var req struct {
		QuestionBody app.QuestionInput `json:"questionBody"`
	}
	if !bindJSON(c, &req) {
		return
	}
	questionID, err := h.service.CreateQuestion(c.Request.Context(), token(c), quizID, req.QuestionBody)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questionId": questionID})
}

func (h *Handler) updateQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "questionid")
	if !ok {
		return
	}
	var req struct {
		QuestionBody app.QuestionInput `json:"questionBody"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateQuestion(c.Request.Context(), token(c), quizID, questionID, req.QuestionBody); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "questionid")
	if !ok {
		return
	}
	if err := h.service.DeleteQuestion(c.Request.Context(), token(c), quizID, questionID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) moveQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "questionid")
	if !ok {
		return
	}
	var req struct {
		NewPosition int `json:"newPosition"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.MoveQuestion(c.Request.Context(), token(c), quizID, questionID, req.NewPosition); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) duplicateQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quizid")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "questionid")
	if !ok {
		return
	}
	newID, err := h.service.DuplicateQuestion(c.Request.Context(), token(c), quizID, questionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"newQuestionId": newID})
}

// ----- clear -----

func (h *Handler) clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
