package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/induspec/plant-maintenance/internal/auth"
	"github.com/induspec/plant-maintenance/internal/config"
	"github.com/induspec/plant-maintenance/internal/db"
	"github.com/induspec/plant-maintenance/internal/handlers"
	"github.com/induspec/plant-maintenance/internal/localstore"
	"github.com/induspec/plant-maintenance/internal/middleware"
	"github.com/induspec/plant-maintenance/internal/notify"
	"github.com/induspec/plant-maintenance/internal/outbox"
	"github.com/induspec/plant-maintenance/internal/registry"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create data directory")
	}
	cache, err := localstore.Open(filepath.Join(cfg.DataDir, "snapshot.json"))
	if err != nil {
		log.WithError(err).Fatal("Failed to open local snapshot store")
	}

	// The store stays usable even when MongoDB is down: every call on a
	// storeless MongoStore reports ErrStoreUnavailable and the outbox
	// keeps retrying in the background.
	store := &db.MongoStore{}
	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Warn("MongoDB unreachable, starting from local snapshot")
	} else {
		store = db.NewMongoStore(client, cfg.MongoDB)
	}

	reg := registry.New(nil)
	loadState(reg, store, cache)

	var publisher *notify.Publisher
	if cfg.MQTTBroker != "" {
		publisher, err = notify.Connect(cfg.MQTTBroker, "plant-maintenance-api", cfg.MQTTPrefix)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, notifications disabled")
		} else {
			defer publisher.Close()
		}
	}

	syncer := outbox.New(store, reg, outbox.Options{
		Delay:      cfg.SyncDelay,
		MaxBackoff: cfg.SyncMaxBackoff,
		OnStatus: func(status outbox.Status) {
			log.WithField("status", status).Info("Store sync status changed")
			publisher.SyncStatus(status)
		},
		OnLocalChange: func() {
			if err := cache.SetJSON("snapshot", reg.Export()); err != nil {
				log.WithError(err).Error("Failed to persist local snapshot")
			}
		},
	})
	reg.SetSink(syncer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncer.Run(ctx)

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise auth service")
	}
	users := &db.MongoUserCollection{}
	if store.Database != nil {
		users.Collection = store.Database.Collection("users")
	}

	authMW := middleware.NewAuthMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, users)
	equipmentHandler := handlers.NewEquipmentHandler(reg)
	orderHandler := handlers.NewWorkOrderHandler(reg, publisher)
	planHandler := handlers.NewPlanHandler(reg)
	inventoryHandler := handlers.NewInventoryHandler(reg, publisher)
	reportHandler := handlers.NewReportHandler(reg)
	settingsHandler := handlers.NewSettingsHandler(reg)
	typeHandler := handlers.NewTypeHandler(reg)
	syncHandler := handlers.NewSyncHandler(syncer)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("/api/auth/profile/update", authHandler.UpdateProfile)
	mux.HandleFunc("/api/auth/password", authHandler.ChangePassword)

	protect := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(h)
	}

	mux.Handle("/api/equipment", protect("view_equipment", equipmentHandler.List))
	mux.Handle("/api/equipment/create", protect("manage_equipment", equipmentHandler.Create))
	mux.Handle("/api/equipment/update", protect("manage_equipment", equipmentHandler.Update))
	mux.Handle("/api/equipment/delete", protect("manage_equipment", equipmentHandler.Delete))
	mux.Handle("/api/equipment/tasks/add", protect("save_work_order", equipmentHandler.AddTask))
	mux.Handle("/api/equipment/tasks/delete", protect("save_work_order", equipmentHandler.DeleteTask))
	mux.Handle("/api/equipment/tasks/reschedule", protect("save_work_order", equipmentHandler.Reschedule))
	mux.Handle("/api/equipment/types", protect("view_equipment", typeHandler.List))
	mux.Handle("/api/equipment/types/save", protect("manage_equipment", typeHandler.Upsert))

	mux.Handle("/api/workorders", protect("view_orders", orderHandler.List))
	mux.Handle("/api/workorders/save", protect("save_work_order", orderHandler.Save))
	mux.Handle("/api/workorders/delete", protect("delete_work_order", orderHandler.Delete))
	mux.Handle("/api/workorders/request", protect("create_request", orderHandler.CreateRequest))
	mux.Handle("/api/workorders/close", protect("close_work_order", orderHandler.Close))
	mux.Handle("/api/workorders/purchase", protect("save_work_order", orderHandler.AttachPurchase))
	mux.Handle("/api/workorders/next", protect("view_orders", orderHandler.NextNumber))

	mux.Handle("/api/plans", protect("manage_plans", planHandler.List))
	mux.Handle("/api/plans/save", protect("manage_plans", planHandler.Upsert))
	mux.Handle("/api/plans/expand", protect("manage_plans", planHandler.Expand))

	mux.Handle("/api/inventory", protect("view_inventory", inventoryHandler.List))
	mux.Handle("/api/inventory/save", protect("manage_inventory", inventoryHandler.Upsert))
	mux.Handle("/api/inventory/adjust", protect("adjust_stock", inventoryHandler.Adjust))

	mux.Handle("/api/reports/range", protect("view_metrics", reportHandler.Range))
	mux.Handle("/api/reports/year", protect("view_metrics", reportHandler.Year))

	mux.Handle("/api/settings", protectSettings(authMW, settingsHandler))
	mux.Handle("/api/sync/status", protect("view_orders", syncHandler.Status))
	mux.Handle("/api/sync/flush", protect("save_work_order", syncHandler.Flush))

	rateLimiter := middleware.NewRateLimitMiddleware()
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: authMW.Authenticate(rateLimiter.RateLimit(300, 60)(mux)),
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := syncer.Flush(shutdownCtx); err != nil {
		log.WithError(err).Warn("Final sync flush failed, local snapshot holds the latest state")
	}
	syncer.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

// protectSettings routes GET to viewers and PUT to planners/admins.
func protectSettings(authMW *middleware.AuthMiddleware, h *handlers.SettingsHandler) http.Handler {
	get := authMW.RequirePermission("view_equipment")(http.HandlerFunc(h.Get))
	update := authMW.RequirePermission("manage_settings")(http.HandlerFunc(h.Update))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			get.ServeHTTP(w, r)
			return
		}
		update.ServeHTTP(w, r)
	})
}

// loadState primes the registry from MongoDB, falling back to the local
// snapshot when the store is unreachable.
func loadState(reg *registry.Registry, store *db.MongoStore, cache *localstore.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var snap registry.Snapshot
	if err := loadSnapshot(ctx, store, &snap); err != nil {
		log.WithError(err).Warn("Loading from store failed, trying local snapshot")
		ok, err := cache.GetJSON("snapshot", &snap)
		if err != nil {
			log.WithError(err).Fatal("Local snapshot is unreadable")
		}
		if !ok {
			log.Warn("No local snapshot either, starting empty")
		}
	}
	reg.Load(snap)
	log.WithFields(log.Fields{
		"equipment":   len(snap.Equipment),
		"work_orders": len(snap.WorkOrders),
	}).Info("State loaded")
}

func loadSnapshot(ctx context.Context, store *db.MongoStore, snap *registry.Snapshot) error {
	if err := store.LoadAll(ctx, db.CollEquipment, &snap.Equipment); err != nil {
		return err
	}
	if err := store.LoadAll(ctx, db.CollWorkOrders, &snap.WorkOrders); err != nil {
		return err
	}
	if err := store.LoadAll(ctx, db.CollInventory, &snap.Inventory); err != nil {
		return err
	}
	if err := store.LoadAll(ctx, db.CollPlans, &snap.Plans); err != nil {
		return err
	}
	if err := store.LoadAll(ctx, db.CollEquipmentTypes, &snap.EquipmentTypes); err != nil {
		return err
	}
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	snap.Settings = settings
	return nil
}
