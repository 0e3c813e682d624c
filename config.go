package main

import (
	"log"

	"GoTrackerAI/app/configs"
	"GoTrackerAI/app/dispatch"
	"GoTrackerAI/app/interactions"
	"GoTrackerAI/app/models"
	"GoTrackerAI/app/sessions"
	"GoTrackerAI/app/storage"
	"GoTrackerAI/app/trackers"
	"GoTrackerAI/app/utils"
	"GoTrackerAI/app/webhook"
)

func getDB(cfg *configs.Config) storage.Interface {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		log.Fatalf("🚨 Critical error opening database: %v", err)
	}
	return store
}

func getLogger() *utils.AuditLogger {
	logger, err := utils.NewAuditLogger("tracker", utils.ColorCyan, 500)
	if err != nil {
		log.Fatalf("🚨 Critical error opening audit log: %v", err)
	}
	return logger
}

func getModel(cfg *configs.Config) models.Interface {
	return models.NewChatClient(cfg.LLM.BaseURL, cfg.LLM.Model)
}

func getTracker(cfg *configs.Config, store storage.Interface) trackers.Interface {
	router := trackers.NewRouter()
	router.Register(trackers.PlatformAzureDevOps, trackers.NewAzureDevOpsClient(
		cfg.AzureDevOps.BaseURL,
		cfg.AzureDevOps.Organization,
		cfg.AzureDevOps.Project,
		cfg.AzureDevOps.PAT,
		cfg.AzureDevOps.IterationPath,
	))
	router.Register(trackers.PlatformJira, trackers.NewJiraClient(store))
	return router
}

func buildWebhookServer(cfg *configs.Config, store storage.Interface,
	pool *dispatch.Pool, logger *utils.AuditLogger) *webhook.Server {
	model := getModel(cfg)
	state := interactions.NewStateMachine(store, cfg.Keywords.Approval)
	orchestrator := interactions.NewOrchestrator(store, model, getTracker(cfg, store), state, logger)
	chat := sessions.NewChat(sessions.NewStore(cfg.Sessions.Window), model)
	return webhook.NewServer(orchestrator, chat, pool, store, cfg.Keywords.Rejection, logger)
}
