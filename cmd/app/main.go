package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/turnosalud/ts-queue/config"
	displayapp_board "github.com/turnosalud/ts-queue/internal/module/displayapp/board"
	staffapp_clinic "github.com/turnosalud/ts-queue/internal/module/staffapp/clinic"
	staffapp_patient "github.com/turnosalud/ts-queue/internal/module/staffapp/patient"
	staffapp_ticket "github.com/turnosalud/ts-queue/internal/module/staffapp/ticket"
	"github.com/turnosalud/ts-queue/internal/pkg/jwt"
	internalMiddleware "github.com/turnosalud/ts-queue/internal/pkg/middleware"
	"github.com/turnosalud/ts-queue/internal/pkg/session"
	"github.com/turnosalud/ts-queue/pkg/applogger"
	"github.com/turnosalud/ts-queue/pkg/broadcast"
	"github.com/turnosalud/ts-queue/pkg/kafka"
	"github.com/turnosalud/ts-queue/pkg/middleware"
	"github.com/turnosalud/ts-queue/pkg/monitoring"
	"github.com/turnosalud/ts-queue/pkg/postgresql"
	"github.com/turnosalud/ts-queue/pkg/pubsub"
	"github.com/turnosalud/ts-queue/pkg/redis"
	"github.com/turnosalud/ts-queue/pkg/server"
	"github.com/turnosalud/ts-queue/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.Monitoring.OTLPEndpoint,
	)

	mon.Start(ctx)

	validate := validator.Get()

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	hub := broadcast.NewHub(logger, c.Broadcast.SubscriberBuffer)

	sessionStore := session.NewRedisSessionStore(logger, rc)

	staffSessionMiddleware := internalMiddleware.NewStaffSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// staff's app
	clinicRepo := staffapp_clinic.NewClinicRepository(logger, psqldb)
	patientRepo := staffapp_patient.NewPatientRepository(logger, psqldb)
	ticketRepo := staffapp_ticket.NewTicketRepository(logger, psqldb)
	sequenceRepo := staffapp_ticket.NewSequenceRepository(logger, psqldb)
	reassignmentRepo := staffapp_ticket.NewReassignmentRepository(logger, psqldb)
	nowServingRepo := staffapp_ticket.NewNowServingRepository(logger, rc)

	clinicUseCase := staffapp_clinic.NewClinicUseCase(staffapp_clinic.ClinicUseCaseProperty{
		Logger:           logger,
		Timeout:          c.Application.Timeout,
		ClinicRepository: clinicRepo,
	})
	staffapp_clinic.InitHTTPHandler(router, staffSessionMiddleware, clinicUseCase)

	ticketUseCase := staffapp_ticket.NewTicketUseCase(staffapp_ticket.TicketUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		ClinicRepository:       clinicRepo,
		PatientRepository:      patientRepo,
		TicketRepository:       ticketRepo,
		SequenceRepository:     sequenceRepo,
		ReassignmentRepository: reassignmentRepo,
		NowServingRepository:   nowServingRepo,
		Hub:                    hub,
		Publisher:              publisher,
	})
	staffapp_ticket.InitHTTPHandler(router, staffSessionMiddleware, validate, ticketUseCase)

	// display's app
	boardUseCase := displayapp_board.NewBoardUseCase(displayapp_board.BoardUseCaseProperty{
		Logger:               logger,
		Timeout:              c.Application.Timeout,
		ClinicRepository:     clinicRepo,
		TicketRepository:     ticketRepo,
		NowServingRepository: nowServingRepo,
	})
	streamHandler := displayapp_board.NewStreamHandler(logger, hub)
	displayapp_board.InitHTTPHandler(router, boardUseCase, streamHandler)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	hub.Close()
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(ctx)
}
