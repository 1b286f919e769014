package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-research-be/internal/constant"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.RunRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Run Repository", func(t *testing.T) {
		count, err := uow.RunRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Run count: %d", count)
	})

	t.Run("Check Document Embedding Repository", func(t *testing.T) {
		// Count implies the vector table exists
		count, err := uow.DocumentEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentEmbedding count: %d", count)
	})

	t.Run("Check Transactional Run Setup", func(t *testing.T) {
		ctx := context.Background()

		runId := uuid.New()
		run := &entity.Run{
			Id:          runId,
			Query:       "integration test query " + uuid.New().String(),
			Status:      constant.RunStatusCreated,
			CurrentStep: constant.StepDecompose,
			Generation:  1,
		}
		err := uow.RunRepository().Create(ctx, run)
		assert.NoError(t, err)

		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		steps := make([]*entity.Step, 0, 4)
		for i := constant.StepDecompose; i <= constant.StepFinalize; i++ {
			steps = append(steps, &entity.Step{
				Id:     uuid.New(),
				RunId:  runId,
				Index:  i,
				Status: constant.StepStatusPending,
			})
		}
		err = uow.StepRepository().CreateBulk(ctx, steps)
		assert.NoError(t, err)

		first, err := uow.RunEventRepository().Append(ctx, runId, constant.EventRunCreated, map[string]interface{}{"query": run.Query})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), first.Seq)

		second, err := uow.RunEventRepository().Append(ctx, runId, constant.EventStepStarted, map[string]interface{}{"step": constant.StepDecompose})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), second.Seq)

		events, err := uow.RunEventRepository().ReadSince(ctx, runId, 0)
		assert.NoError(t, err)
		assert.Len(t, events, 2)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully created Run with Steps and Events in Transaction")
	})
}
