package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "BIBLIO-backend/docs"
	"BIBLIO-backend/internal/catalog/books"
	"BIBLIO-backend/internal/catalog/taxonomy"
	"BIBLIO-backend/internal/circulation/loans"
	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/disposals"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/config"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/storage"
	"BIBLIO-backend/internal/platform/validate"
	"BIBLIO-backend/internal/reports"
	"BIBLIO-backend/internal/users"
)

// @title       BIBLIO API
// @version     1.0
// @BasePath    /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 設定読み込み
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s", mode)

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	if err := validate.Register(); err != nil {
		log.Fatalf("[ERROR] validator: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)
	r.MaxMultipartMemory = cfg.Storage.MaxBytes

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx := context.Background()

	// 画像の保存先
	var files storage.Storage
	switch cfg.Storage.Driver {
	case "minio":
		m, err := storage.NewMinio(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		files = m
	default:
		d, err := storage.NewDisk(cfg.Storage.Dir, cfg.Storage.PublicURL)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		r.Static(cfg.Storage.PublicURL, d.Root())
		files = d
	}
	log.Printf("[INFO] storage: %s", cfg.Storage.Driver)

	// トークン失効リスト
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.Redis.Host != "" {
		rr, err := auth.NewRedisRevoker(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		defer rr.Close()
		revoker = rr
		log.Printf("[INFO] token revocation: redis %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(pctx); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	// /api/v1
	authSvc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, revoker)
	routes := auth.NewRoutes(r.Group("/api/v1"), authSvc)
	policy := loans.Policy{
		LoanDays:   cfg.Library.LoanDays,
		FinePerDay: cfg.Library.FinePerDay,
		LostFee:    cfg.Library.LostFee,
	}

	auth.RegisterRoutes(routes, authSvc)
	books.RegisterRoutes(routes, books.NewService(conn, files, cfg.Storage.MaxBytes))
	taxonomy.RegisterRoutes(routes, taxonomy.NewService(conn, files, cfg.Storage.MaxBytes))
	inventory.RegisterRoutes(routes, inventory.NewService(conn, cfg.Library.LowStockThreshold))
	disposals.RegisterRoutes(routes, disposals.NewService(conn))
	reservations.RegisterRoutes(routes, reservations.NewService(conn, cfg.Library.ReservationHoldDays))
	loans.RegisterRoutes(routes, loans.NewService(conn, policy))
	users.RegisterRoutes(routes, users.NewService(conn, files, cfg.Storage.MaxBytes))
	reports.RegisterRoutes(routes, reports.NewService(conn, cfg.Library.FinePerDay))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// TLS設定
	certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
	keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)

	go func() {
		if cfg.Certificate.Cert == "" && mode == "dev" {
			// 証明書なしの開発起動
			log.Printf("[WARN] no certificate configured, listening on http://%s", cfg.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal(err)
			}
			return
		}
		log.Printf("[INFO] listening on https://%s", cfg.Addr)
		if err := srv.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Fatal(err)
	}
}
