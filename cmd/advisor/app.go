package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"welfare-advisor/handler"
	"welfare-advisor/internal/config"
	"welfare-advisor/internal/integrations/backend"
	"welfare-advisor/internal/integrations/paramstore"
	"welfare-advisor/internal/mapview"
	"welfare-advisor/internal/recommend"
	"welfare-advisor/internal/repository"
	"welfare-advisor/internal/session"
	"welfare-advisor/internal/telemetry"
	"welfare-advisor/internal/usecase"
)

type app struct {
	chat     *usecase.TurnController
	board    *mapview.Board
	handler  *handler.Handler
	shutdown telemetry.Shutdown
}

func newApp(ctx context.Context, envFile string, out io.Writer) (*app, error) {
	// ---- Configuration (read only here) ----
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	shutdown, err := telemetry.Init(ctx, cfg.Otel)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// ---- AWS SDK config, only when a component needs it ----
	var (
		dynamoAPI *awsdynamodb.Client
		ssmAPI    *awsssm.Client
	)
	if cfg.NeedsAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		dynamoAPI = awsdynamodb.NewFromConfig(awsCfg)
		ssmAPI = awsssm.NewFromConfig(awsCfg)
	}

	// ---- Session ----
	store, err := newSessionStore(cfg.Session, dynamoAPI)
	if err != nil {
		return nil, err
	}
	sess, err := session.Load(ctx, store)
	if err != nil {
		return nil, err
	}

	// ---- Clients ----
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api, err := backend.NewClient(backend.WithBaseURL(cfg.APIBaseURL), backend.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	var keys mapview.KeyProvider
	switch {
	case cfg.Map.AppKey != "":
		keys = mapview.StaticKey(cfg.Map.AppKey)
	case cfg.Map.UsesParamStore():
		ssmClient, err := paramstore.New(ssmAPI)
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		mapKey, err := paramstore.NewMapKey(ssmClient, cfg.Map.ParamPrefix)
		if err != nil {
			return nil, err
		}
		keys = mapKey
	default:
		slog.Info("no map app key configured; map view disabled")
	}
	var loader mapview.SDKLoader
	if keys != nil {
		l, err := mapview.NewLoader(keys, mapview.ScriptLoader(httpClient, cfg.Map.SDKURL, out))
		if err != nil {
			return nil, err
		}
		loader = l
	}
	board := mapview.NewBoard(loader)

	// ---- Use cases and handler ----
	chat, err := usecase.NewTurnController(api, sess, &recommend.IndexStore{}, board,
		usecase.WithGreeting(cfg.GreetingText()),
		usecase.WithTurnTimeout(cfg.TurnTimeout),
	)
	if err != nil {
		return nil, err
	}
	accounts, err := usecase.NewAccountService(api, sess)
	if err != nil {
		return nil, err
	}
	h, err := handler.NewHandler(chat, accounts, board, out)
	if err != nil {
		return nil, err
	}

	return &app{chat: chat, board: board, handler: h, shutdown: shutdown}, nil
}

func newSessionStore(cfg config.SessionConfig, dynamoAPI *awsdynamodb.Client) (session.Store, error) {
	if cfg.Backend == config.SessionBackendMemory {
		return session.NewMemoryStore("", nil), nil
	}
	dir := cfg.Dir
	if dir == "" {
		dir = session.DefaultDir()
	}
	fileStore, err := session.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	if cfg.Backend != config.SessionBackendDynamoDB {
		return fileStore, nil
	}
	owner := cfg.Owner
	if owner == "" {
		if owner, err = fileStore.OwnerID(); err != nil {
			return nil, err
		}
	}
	store, err := repository.New(dynamoAPI, cfg.Table, owner)
	if err != nil {
		return nil, fmt.Errorf("create session table client: %w", err)
	}
	return store, nil
}

func (a *app) close(ctx context.Context) error {
	a.chat.Close()
	a.board.Close()
	return a.shutdown(ctx)
}
