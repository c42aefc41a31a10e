package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"toohak-quiz-service/internal/app"
	"toohak-quiz-service/internal/domain"
	"toohak-quiz-service/internal/infra/postgres"
	pgmigrations "toohak-quiz-service/internal/infra/postgres/migrations"
	redisstore "toohak-quiz-service/internal/infra/redis"
)

type imageStub struct{}

func (imageStub) Fetch(url string) ([]byte, string, error) {
	return []byte{0xFF, 0xD8}, "jpg", nil
}

// TestQuizLifecycleOnPostgres drives a whole session through the Postgres
// snapshot store: register, build a quiz, run a session to FINAL_RESULTS and
// check the leaderboard.
func TestQuizLifecycleOnPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	service := app.NewService(postgres.NewStore(pool), app.Options{
		Countdown: 10 * time.Millisecond,
		CSVDir:    t.TempDir(),
		ImageDir:  t.TempDir(),
		Images:    imageStub{},
	})

	token, err := service.Register(ctx, "hayden@unsw.edu.au", "pass1234word", "Hayden", "Smith")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quizID, err := service.CreateQuiz(ctx, token, "Countries of the World", "quiz about geography")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := service.CreateQuestion(ctx, token, quizID, app.QuestionInput{
		Question: "What is the capital of France?",
		Duration: 1,
		Points:   5,
		Answers: []app.AnswerInput{
			{Answer: "Paris", Correct: true},
			{Answer: "London", Correct: false},
		},
		ThumbnailURL: "http://example.com/img.jpg",
	}); err != nil {
		t.Fatalf("create question: %v", err)
	}

	sessionID, err := service.StartSession(ctx, token, quizID, 3)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	playerID, err := service.JoinSession(ctx, sessionID, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.UpdateSessionState(ctx, token, quizID, sessionID, domain.CommandNextQuestion); err != nil {
		t.Fatalf("next question: %v", err)
	}
	waitForState(t, ctx, service, token, quizID, sessionID, domain.StateQuestionOpen)

	view, err := service.GetPlayerQuestion(ctx, playerID, 1)
	if err != nil {
		t.Fatalf("player question: %v", err)
	}
	correct := view.Answers[0].AnswerID // Paris keeps first position
	if err := service.SubmitAnswer(ctx, playerID, 1, []int{correct}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := service.UpdateSessionState(ctx, token, quizID, sessionID, domain.CommandGoToAnswer); err != nil {
		t.Fatalf("go to answer: %v", err)
	}
	if err := service.UpdateSessionState(ctx, token, quizID, sessionID, domain.CommandGoToFinalResults); err != nil {
		t.Fatalf("go to final results: %v", err)
	}

	results, err := service.GetFinalResults(ctx, token, quizID, sessionID)
	if err != nil {
		t.Fatalf("final results: %v", err)
	}
	if len(results.UsersRankedByScore) != 1 {
		t.Fatalf("expected one ranked user, got %+v", results.UsersRankedByScore)
	}
	if got := results.UsersRankedByScore[0]; got.Name != "Alice" || got.Score != 5 {
		t.Fatalf("expected Alice with 5 points, got %+v", got)
	}
}

// TestSnapshotSurvivesRestartOnRedis checks that a second service instance
// over the same Redis store sees state written by the first.
func TestSnapshotSurvivesRestartOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := redisstore.NewStore(client, "", 0)

	first := app.NewService(store, app.Options{Images: imageStub{}})
	token, err := first.Register(ctx, "hayden@unsw.edu.au", "pass1234word", "Hayden", "Smith")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quizID, err := first.CreateQuiz(ctx, token, "Persistent Quiz", "")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	second := app.NewService(store, app.Options{Images: imageStub{}})
	info, err := second.GetQuizInfo(ctx, token, quizID)
	if err != nil {
		t.Fatalf("quiz info after restart: %v", err)
	}
	if info.Name != "Persistent Quiz" {
		t.Fatalf("expected quiz to survive restart, got %+v", info)
	}
}

func waitForState(t *testing.T, ctx context.Context, service *app.Service, token string, quizID, sessionID int, want domain.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := service.GetSessionStatus(ctx, token, quizID, sessionID)
		if err != nil {
			t.Fatalf("session status: %v", err)
		}
		if status.State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never reached %s", want)
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
