package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nabil-hasan/bizbook/libs/config"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/libs/httpx"
	"github.com/nabil-hasan/bizbook/libs/kafkax"
	otelx "github.com/nabil-hasan/bizbook/libs/otel"
	"github.com/nabil-hasan/bizbook/libs/runtime"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/audit"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/handlers"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/outbox"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/sessions"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "api-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	users := storage.NewUserRepository(pool)
	companies := storage.NewCompanyRepository(pool)
	staff := storage.NewStaffRepository(pool)
	catalog := storage.NewCatalogRepository(pool)
	products := storage.NewProductRepository(pool)
	appointments := storage.NewAppointmentRepository(pool)
	sales := storage.NewSaleRepository(pool)
	refreshRepo := sessions.NewRefreshRepository(pool)
	auditRepo := audit.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	jwtSecret := config.String("JWT_SECRET", "dev-secret")
	accessTTL := durationMinutes("ACCESS_TOKEN_TTL_MINUTES", 60)
	refreshTTL := durationMinutes("REFRESH_TOKEN_TTL_MINUTES", 30*24*60)

	authHandler := handlers.NewAuthHandler(pool, users, companies, refreshRepo, auditRepo, outboxRepo, logger, jwtSecret, accessTTL, refreshTTL)
	apptHandler := handlers.NewAppointmentHandler(appointments, sales, outboxRepo, logger)
	saleHandler := handlers.NewSaleHandler(sales, appointments, outboxRepo, logger)
	companyHandler := handlers.NewCompanyHandler(companies, users, logger)
	staffHandler := handlers.NewStaffHandler(staff, users, logger)
	catalogHandler := handlers.NewCatalogHandler(catalog, logger)
	productHandler := handlers.NewProductHandler(products, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	auth := identity.Require(jwtSecret, handlers.WriteError)
	protect := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/v1/auth/me", protect(authHandler.Me))

	mux.Handle("GET /api/v1/appointments", protect(apptHandler.List))
	mux.Handle("POST /api/v1/appointments", protect(apptHandler.Create))
	mux.Handle("GET /api/v1/appointments/stats/overview", protect(apptHandler.StatsOverview))
	mux.Handle("GET /api/v1/appointments/range/{start}/{end}", protect(apptHandler.Range))
	mux.Handle("GET /api/v1/appointments/user/{userId}", protect(apptHandler.ByUser))
	mux.Handle("GET /api/v1/appointments/today/list", protect(apptHandler.TodayList))
	mux.Handle("GET /api/v1/appointments/upcoming/list", protect(apptHandler.UpcomingList))
	mux.Handle("GET /api/v1/appointments/{id}", protect(apptHandler.Get))
	mux.Handle("PUT /api/v1/appointments/{id}", protect(apptHandler.Update))
	mux.Handle("DELETE /api/v1/appointments/{id}", protect(apptHandler.Delete))
	mux.Handle("PATCH /api/v1/appointments/{id}/status", protect(apptHandler.PatchStatus))
	mux.Handle("PATCH /api/v1/appointments/{id}/payment", protect(apptHandler.Payment))

	mux.Handle("GET /api/v1/sales", protect(saleHandler.List))
	mux.Handle("POST /api/v1/sales", protect(saleHandler.Create))
	mux.Handle("GET /api/v1/sales/{id}", protect(saleHandler.Get))

	mux.Handle("GET /api/v1/companies", protect(companyHandler.List))
	mux.Handle("POST /api/v1/companies", protect(companyHandler.Create))
	mux.Handle("GET /api/v1/companies/{id}", protect(companyHandler.Get))
	mux.Handle("PUT /api/v1/companies/{id}", protect(companyHandler.Update))
	mux.Handle("DELETE /api/v1/companies/{id}", protect(companyHandler.Delete))
	mux.Handle("GET /api/v1/companies/{id}/customers", protect(companyHandler.Customers))
	mux.Handle("GET /api/v1/companies/{id}/staff", protect(staffHandler.ListByCompany))
	mux.Handle("POST /api/v1/companies/{id}/staff", protect(staffHandler.Create))

	mux.Handle("GET /api/v1/staff/{id}", protect(staffHandler.Get))
	mux.Handle("PUT /api/v1/staff/{id}", protect(staffHandler.Update))
	mux.Handle("DELETE /api/v1/staff/{id}", protect(staffHandler.Delete))

	mux.Handle("GET /api/v1/categories", protect(catalogHandler.ListCategories))
	mux.Handle("POST /api/v1/categories", protect(catalogHandler.CreateCategory))
	mux.Handle("GET /api/v1/categories/{id}", protect(catalogHandler.GetCategory))
	mux.Handle("PUT /api/v1/categories/{id}", protect(catalogHandler.UpdateCategory))
	mux.Handle("DELETE /api/v1/categories/{id}", protect(catalogHandler.DeleteCategory))

	mux.Handle("GET /api/v1/services", protect(catalogHandler.ListServices))
	mux.Handle("POST /api/v1/services", protect(catalogHandler.CreateService))
	mux.Handle("GET /api/v1/services/{id}", protect(catalogHandler.GetService))
	mux.Handle("PUT /api/v1/services/{id}", protect(catalogHandler.UpdateService))
	mux.Handle("DELETE /api/v1/services/{id}", protect(catalogHandler.DeleteService))

	mux.Handle("GET /api/v1/spaces", protect(catalogHandler.ListSpaces))
	mux.Handle("POST /api/v1/spaces", protect(catalogHandler.CreateSpace))
	mux.Handle("PUT /api/v1/spaces/{id}", protect(catalogHandler.UpdateSpace))
	mux.Handle("DELETE /api/v1/spaces/{id}", protect(catalogHandler.DeleteSpace))

	mux.Handle("GET /api/v1/products", protect(productHandler.List))
	mux.Handle("POST /api/v1/products", protect(productHandler.Create))
	mux.Handle("GET /api/v1/products/{id}", protect(productHandler.Get))
	mux.Handle("PUT /api/v1/products/{id}", protect(productHandler.Update))
	mux.Handle("DELETE /api/v1/products/{id}", protect(productHandler.Delete))
	mux.Handle("POST /api/v1/products/{id}/variants", protect(productHandler.CreateVariant))
	mux.Handle("PUT /api/v1/variants/{id}", protect(productHandler.UpdateVariant))
	mux.Handle("DELETE /api/v1/variants/{id}", protect(productHandler.DeleteVariant))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "api")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func durationMinutes(key string, fallback int) time.Duration {
	mins := config.Int(key, fallback)
	if mins < 1 {
		mins = fallback
	}
	return time.Duration(mins) * time.Minute
}
