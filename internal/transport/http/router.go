package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"toohak-quiz-service/internal/app"
)

// NewRouter builds the versioned API surface. Generated CSV exports and
// question thumbnails are served as static files next to the JSON routes.
func NewRouter(service *app.Service, csvDir, imageDir string) *gin.Engine {
	h := &Handler{service: service}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.Static("/csv_files", csvDir)
	r.Static("/images", imageDir)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/admin/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/logout", h.logout)
		}

		user := v1.Group("/admin/user")
		{
			user.GET("/details", h.userDetails)
			user.PUT("/details", h.updateUserDetails)
			user.PUT("/password", h.updateUserPassword)
		}

		quiz := v1.Group("/admin/quiz")
		{
			quiz.POST("", h.createQuiz)
			quiz.GET("/list", h.listQuizzes)
			quiz.GET("/trash", h.listTrash)
			quiz.DELETE("/trash/empty", h.emptyTrash)
			quiz.GET("/:quizid", h.quizInfo)
			quiz.DELETE("/:quizid", h.removeQuiz)
			quiz.PUT("/:quizid/name", h.updateQuizName)
			quiz.PUT("/:quizid/description", h.updateQuizDescription)
			quiz.PUT("/:quizid/thumbnail", h.updateQuizThumbnail)
			quiz.POST("/:quizid/restore", h.restoreQuiz)
			quiz.POST("/:quizid/transfer", h.transferQuiz)

			quiz.POST("/:quizid/question", h.createQuestion)
			quiz.PUT("/:quizid/question/:questionid", h.updateQuestion)
			quiz.DELETE("/:quizid/question/:questionid", h.deleteQuestion)
			quiz.PUT("/:quizid/question/:questionid/move", h.moveQuestion)
			quiz.POST("/:quizid/question/:questionid/duplicate", h.duplicateQuestion)

			quiz.POST("/:quizid/session/start", h.startSession)
			quiz.GET("/:quizid/sessions", h.listSessions)
			quiz.GET("/:quizid/session/:sessionid", h.sessionStatus)
			quiz.PUT("/:quizid/session/:sessionid", h.updateSessionState)
			quiz.GET("/:quizid/session/:sessionid/results", h.finalResults)
			quiz.GET("/:quizid/session/:sessionid/results/csv", h.exportCSV)
		}

		player := v1.Group("/player")
		{
			player.POST("/join", h.joinSession)
			player.GET("/:playerid", h.playerStatus)
			player.GET("/:playerid/question/:questionposition", h.playerQuestion)
			player.PUT("/:playerid/question/:questionposition/answer", h.submitAnswer)
			player.GET("/:playerid/question/:questionposition/results", h.questionResults)
			player.GET("/:playerid/results", h.playerResults)
			player.GET("/:playerid/chat", h.listMessages)
			player.POST("/:playerid/chat", h.sendMessage)
		}

		v1.DELETE("/clear", h.clear)
	}

	return r
}
