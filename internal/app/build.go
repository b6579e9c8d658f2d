package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vishukulkarni/tutorflow/internal/agent"
	"github.com/vishukulkarni/tutorflow/internal/classify"
	"github.com/vishukulkarni/tutorflow/internal/config"
	"github.com/vishukulkarni/tutorflow/internal/httpapi"
	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/memory"
	"github.com/vishukulkarni/tutorflow/internal/observability"
	"github.com/vishukulkarni/tutorflow/internal/quiz"
	"github.com/vishukulkarni/tutorflow/internal/search"
	"github.com/vishukulkarni/tutorflow/internal/tutor"
)

// BuildResult holds the assembled service and its shared components.
type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Router  *tutor.Router
	Engine  *quiz.Engine
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build wires the whole service: memory store, completion providers per
// agent role, question pool, quiz engine, classifiers, tutor runner and
// the HTTP API.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	tracer := observability.NewTracer(cfg.Debug)

	store, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	providerFor := func(model string) (llm.Provider, error) {
		return llm.NewProvider(ctx, cfg.ProviderFor(model))
	}

	tutorProvider, err := providerFor(cfg.Models.Tutor)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tutor provider init failed: %w", err)
	}
	quizProvider, err := providerFor(cfg.Models.Quizmaster)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("quizmaster provider init failed: %w", err)
	}
	subjectProvider, err := providerFor(cfg.Models.SubjectClassifier)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("subject classifier provider init failed: %w", err)
	}
	intentProvider, err := providerFor(cfg.Models.IntentClassifier)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("intent classifier provider init failed: %w", err)
	}

	searcher := search.NewClient(cfg.CSEAPIKey, cfg.CSEID)

	// The question pool is fetched once at startup; a failed fetch
	// degrades to an empty pool rather than blocking boot.
	pool, err := quiz.NewSource(cfg.QuestionDataURL).Load(ctx)
	if err != nil {
		log.Printf("question pool load failed, starting with empty pool: %v", err)
		pool = nil
	} else {
		log.Printf("loaded %d static questions", len(pool))
	}
	metrics.QuestionPoolSize.Set(float64(len(pool)))

	engine := quiz.NewEngine(pool, quiz.NewSelector(quizProvider, searcher), metrics, tracer)
	engine.SetCompletionHook(func(owner string, final quiz.State) {
		attemptCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := store.RecordQuizAttempt(attemptCtx, owner, memory.QuizAttempt{
			Topic:      final.Topic,
			Difficulty: final.Difficulty,
			Score:      final.Score,
			Total:      final.TotalQuestions,
			TakenAt:    time.Now().UTC(),
		})
		if err != nil {
			log.Printf("record quiz attempt for %s failed: %v", owner, err)
		}
	})

	runner := agent.NewRunner(tutorProvider, tracer,
		&agent.StartQuizTool{Engine: engine},
		&agent.AnswerQuestionTool{Engine: engine},
		&agent.WebSearchTool{Provider: tutorProvider, Searcher: searcher},
	)

	router := tutor.NewRouter(
		runner,
		classify.NewIntentClassifier(intentProvider, metrics, tracer),
		classify.NewSubjectClassifier(subjectProvider, metrics, tracer),
		store,
		engine,
		metrics,
		tracer,
	)

	api := httpapi.New(cfg, router, engine, metrics)

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Router:  router,
		Engine:  engine,
		Metrics: metrics,
		Cleanup: store.Close,
	}, nil
}
