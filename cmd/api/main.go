package main

import (
	"io"
	"log"
	"os"

	"github.com/gympoint/gympoint-backend/internal/config"
	"github.com/gympoint/gympoint-backend/internal/logging"
	"github.com/gympoint/gympoint-backend/internal/media"
	miniorepo "github.com/gympoint/gympoint-backend/internal/repository/minio"
	"github.com/gympoint/gympoint-backend/internal/repository/postgres"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/transport/gateway"
	transport "github.com/gympoint/gympoint-backend/internal/transport/http"
	"github.com/gympoint/gympoint-backend/internal/transport/mail"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}
	storage := miniorepo.NewStorage(minioClient)

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	resetRepo := postgres.NewPasswordResetRepo(db)
	attendanceRepo := postgres.NewAttendanceRepo(db)
	replayRepo := postgres.NewQRReplayRepo(db)
	classRepo := postgres.NewClassRepo(db)
	bookingRepo := postgres.NewBookingRepo(db)
	planRepo := postgres.NewMembershipPlanRepo(db)
	membershipRepo := postgres.NewMembershipRepo(db)
	paymentRepo := postgres.NewPaymentRepo(db)
	supplierRepo := postgres.NewSupplierRepo(db)
	inventoryRepo := postgres.NewInventoryRepo(db)
	logbookRepo := postgres.NewLogbookRepo(db)

	tokens, err := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.QRTokenTTL)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	mailer := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, true)
	authService := service.NewAuthService(userRepo, sessionRepo, resetRepo, tokens, mailer, cfg.GoogleAudience, cfg.PasswordResetTTL, cfg.PasswordResetOTPLength)

	attendanceService, err := service.NewAttendanceService(attendanceRepo, replayRepo, tokens, cfg.GymTimezone)
	if err != nil {
		log.Fatalf("attendance service: %v", err)
	}
	classService, err := service.NewClassService(classRepo, bookingRepo, userRepo, cfg.GymTimezone)
	if err != nil {
		log.Fatalf("class service: %v", err)
	}

	var paymentGateway service.PaymentGateway
	if cfg.PaymentGatewayBaseURL != "" {
		paymentGateway = gateway.NewClient(cfg.PaymentGatewayBaseURL, cfg.PaymentGatewaySecretKey, cfg.PaymentReturnURL)
	}
	membershipService := service.NewMembershipService(planRepo, membershipRepo, paymentRepo, userRepo, paymentGateway, "USD")

	inventoryService := service.NewInventoryService(inventoryRepo, supplierRepo)

	processor := media.NewImageProcessor(cfg.ProgressPhotoMaxDim)
	logbookService, err := service.NewLogbookService(
		logbookRepo, storage, processor,
		cfg.MinIOBucketProgress, cfg.MinIOPublicURL, cfg.GymTimezone,
		cfg.ProgressPhotoMaxBytes, cfg.ProgressPhotoMaxDim,
	)
	if err != nil {
		log.Fatalf("logbook service: %v", err)
	}

	reportService, err := service.NewReportService(attendanceRepo, membershipRepo, paymentRepo, userRepo, inventoryRepo, classRepo, cfg.GymTimezone)
	if err != nil {
		log.Fatalf("report service: %v", err)
	}

	e := transport.NewRouter(cfg.AllowOrigins)
	cookies := transport.CookieSettings{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	transport.RegisterPages(e, "")
	transport.RegisterSwagger(e)
	transport.RegisterAuth(e, authService, tokens, cookies)
	transport.RegisterUsers(e, tokens, authService)
	transport.RegisterAttendance(e, tokens, attendanceService)
	transport.RegisterClasses(e, tokens, classService)
	transport.RegisterMemberships(e, tokens, membershipService)
	transport.RegisterInventory(e, tokens, inventoryService)
	transport.RegisterLogbook(e, tokens, logbookService)
	transport.RegisterReports(e, tokens, reportService)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
