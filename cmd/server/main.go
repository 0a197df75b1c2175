package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"

	"pvc/config"
	"pvc/database"
	"pvc/pkg/notify"
	"pvc/pkg/reminder"
	"pvc/router"

	// Reference data
	refsCtrlImp "pvc/pkg/refs/controllerImp"
	refsRepoImp "pvc/pkg/refs/repositoryImp"
	refsSvcImp "pvc/pkg/refs/serviceImp"

	// Users
	userCtrlImp "pvc/pkg/user/controllerImp"
	userRepoImp "pvc/pkg/user/repositoryImp"
	userSvcImp "pvc/pkg/user/serviceImp"

	// Tasks
	compRepoImp "pvc/pkg/competency/repositoryImp"
	compSvcImp "pvc/pkg/competency/serviceImp"
	taskCtrlImp "pvc/pkg/task/controllerImp"
	taskRepoImp "pvc/pkg/task/repositoryImp"
	taskSvcImp "pvc/pkg/task/serviceImp"

	// Stats
	statsCtrlImp "pvc/pkg/stats/controllerImp"
	statsRepoImp "pvc/pkg/stats/repositoryImp"
	statsSvcImp "pvc/pkg/stats/serviceImp"

	// Import
	importCtrlImp "pvc/pkg/importer/controllerImp"
	importSvcImp "pvc/pkg/importer/serviceImp"
	"pvc/pkg/importer/source"

	// Health
	healthCtrlImp "pvc/pkg/health/controllerImp"
)

func main() {
	// 1) Config
	cfg := config.Load()
	loc := cfg.Location()

	// 2) DB (sqlite) + automigrate
	db := database.OpenSQLite(cfg.DBPath)

	// 3) Repos
	refsRepo := refsRepoImp.New(db)
	userRepo := userRepoImp.New(db)
	taskRepo := taskRepoImp.New(db)

	// 4) Notifications: Telegram when a token is set, log otherwise
	var out notify.Sender
	if cfg.BotToken != "" {
		out = notify.NewTelegram(cfg.TelegramAPIURL, cfg.BotToken, userRepo)
	} else {
		log.Printf("[notify] BOT_TOKEN not set, messages go to the log")
		out = notify.NewLog()
	}

	// 5) Services
	refsSvc := refsSvcImp.NewRefsService(refsRepo)
	userSvc := userSvcImp.NewUserService(userRepo, refsRepo, out)
	resolver := compSvcImp.NewResolver(compRepoImp.New(db))
	taskSvc := taskSvcImp.NewTaskService(taskRepo, refsRepo, resolver, userRepo, out, loc)
	statsSvc := statsSvcImp.NewStatsService(statsRepoImp.New(db), loc)
	importSvc := importSvcImp.NewImportService(taskSvc, refsSvc)

	// 6) Echo + router
	e := echo.New()
	e.HideBanner = true
	router.New(
		e,
		cfg,
		userRepo,
		taskCtrlImp.New(taskSvc),
		refsCtrlImp.New(refsSvc),
		userCtrlImp.New(userSvc),
		statsCtrlImp.New(statsSvc, loc),
		importCtrlImp.New(importSvc, source.NewSheets()),
		healthCtrlImp.NewHealthCtrl(db),
	)

	// 7) Reminders
	var rem *reminder.Reminder
	if cfg.EnableCron {
		rem = reminder.New(statsSvc, taskSvc, userRepo, refsSvc, out, loc,
			reminder.WithWindow(func(t time.Time) bool { return cfg.InNotifyWindow(t, loc) }))
		if err := rem.Start(); err != nil {
			log.Fatalf("[cron] %v", err)
		}
	}

	// 8) Start, stop on SIGINT/SIGTERM
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rem != nil {
		rem.Stop()
	}
}
