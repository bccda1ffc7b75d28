// File: craftlink/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"craftlink/api"
	"craftlink/config"
	"craftlink/cron"
	"craftlink/models"
	"craftlink/services/attachment"
	"craftlink/services/booking"
	"craftlink/services/negotiation"
	"craftlink/services/payment"
	"craftlink/services/pricing"
	"craftlink/utils"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	artisanID := pflag.String("artisan", "", "artisan to book")
	serviceFile := pflag.String("service", "", "JSON file describing the selected service offering")
	description := pflag.String("description", "", "job description")
	date := pflag.String("date", "", "scheduled date (YYYY-MM-DD)")
	timeOfDay := pflag.String("time", "", "scheduled time (HH:MM)")
	phone := pflag.String("phone", "", "contact phone number")
	address := pflag.String("address", "", "job address")
	urgency := pflag.String("urgency", "normal", "urgency level: normal, urgent, emergency")
	attachments := pflag.StringSlice("attach", nil, "media files to attach (max 5)")
	maxPrice := pflag.Float64("max-price", 0, "auto-negotiation ceiling; 0 accepts any counter")
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	client := api.NewClient(
		config.AppConfig.APIBaseURL,
		func() string { return config.AppConfig.APIToken },
		rate.NewLimiter(rate.Limit(config.AppConfig.RequestsPerSecond), 1),
		logger,
	)

	var uploader booking.AttachmentUploader
	if config.AppConfig.CloudinaryCloudName != "" {
		cld, err := attachment.NewCloudinaryUploader(
			config.AppConfig.CloudinaryCloudName,
			config.AppConfig.CloudinaryAPIKey,
			config.AppConfig.CloudinaryAPISecret,
		)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize attachment storage: %v", err)
		}
		uploader = &attachment.Service{Uploader: cld, Folder: "bookings", Logger: logger}
	}

	drafts := &booking.DraftStore{Cache: utils.GetDraftCacheClient()}
	cron.InitReminderWorker()

	draft := drafts.NewDraft(*artisanID)
	draft.Description = *description
	draft.ScheduledDate = *date
	draft.ScheduledTime = *timeOfDay
	draft.Phone = *phone
	draft.Address = *address
	draft.Urgency = models.Urgency(*urgency)
	if *serviceFile != "" {
		svc, err := loadServiceOffering(*serviceFile)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		draft.Service = svc
	}
	for _, path := range *attachments {
		if err := attachment.Stage(draft, path); err != nil {
			logger.Sugar().Fatalf("main: cannot attach %s: %v", path, err)
		}
	}

	ctx := context.Background()
	if err := drafts.Save(ctx, draft); err != nil {
		logger.Warn("draft not cached", zap.Error(err))
	}

	quote := pricing.Quote(draft.Service, draft.Urgency)
	fmt.Printf("Quote: base %.2f, platform fee %.2f, total %.2f\n",
		quote.BasePrice, quote.PlatformFee, quote.Total)

	controller := booking.NewController(client, uploader, logger,
		booking.WithDraftStore(drafts),
		booking.WithPollInterval(time.Duration(config.AppConfig.PollIntervalSeconds)*time.Second),
		booking.WithPollMaxAttempts(config.AppConfig.PollMaxAttempts),
		booking.WithAcceptanceWindow(time.Duration(config.AppConfig.AcceptanceWindowSecs)*time.Second),
	)
	defer controller.Dispose()

	created, err := controller.CreateBooking(ctx, draft)
	if err != nil {
		logger.Sugar().Fatalf("main: booking failed: %v", err)
	}
	fmt.Printf("Booking %s created, artisan has until %s to respond\n",
		created.ID, created.ExpiresAt.Format(time.Kitchen))

	// Interrupt cancels the booking before exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	outcome := awaitAcceptance(ctx, controller, *maxPrice, quit, logger)
	if outcome != models.BookingStatusAccepted {
		fmt.Printf("Booking ended: %s\n", outcome)
		return
	}

	runPaymentFlow(ctx, client, controller, logger)
}

// awaitAcceptance watches the controller until the acceptance window is
// decided, auto-driving the negotiation ledger when the artisan counters.
func awaitAcceptance(ctx context.Context, controller *booking.Controller, maxPrice float64, quit <-chan os.Signal, logger *zap.Logger) models.BookingStatus {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			logger.Info("interrupted, cancelling booking")
			cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := controller.CancelBooking(cancelCtx); err != nil {
				logger.Warn("cancel failed", zap.Error(err))
			}
			cancel()
			return models.BookingStatusCancelled

		case <-ticker.C:
			status := controller.Status()
			if status.AcceptanceResolved() {
				return status
			}
			if status == models.BookingStatusPending {
				fmt.Printf("\rWaiting for artisan... %3ds left", controller.TimeLeft())
				continue
			}
			if status == models.BookingStatusNegotiating {
				if err := driveNegotiation(ctx, controller, maxPrice, logger); err != nil && !negotiation.IsClosed(err) {
					logger.Warn("negotiation action failed", zap.Error(err))
				}
			}
		}
	}
}

// driveNegotiation applies a simple policy: accept the artisan's latest
// counter when it is within the ceiling, otherwise counter at the ceiling.
func driveNegotiation(ctx context.Context, controller *booking.Controller, maxPrice float64, logger *zap.Logger) error {
	ledger := controller.Ledger()
	if ledger == nil || ledger.Closed() {
		return nil
	}
	last := ledger.Latest()
	if last == nil || last.ProposedBy != models.PartyArtisan {
		return nil // waiting on the artisan's move
	}

	fmt.Printf("\nArtisan proposes %.2f", last.ProposedAmount)
	if last.Message != "" {
		fmt.Printf(" (%s)", last.Message)
	}
	fmt.Println()

	if maxPrice <= 0 || last.ProposedAmount <= maxPrice {
		return controller.AcceptLatest(ctx)
	}
	return controller.CounterOffer(ctx, maxPrice, "that is above my budget")
}

// runPaymentFlow initializes escrow payment, hands the customer the hosted
// gateway page, and waits for the verify stream via the callback listener.
func runPaymentFlow(ctx context.Context, client *api.Client, controller *booking.Controller, logger *zap.Logger) {
	consumer := payment.NewStreamConsumer(client, logger)
	flow := payment.NewFlowController(client, consumer, logger)

	init, err := flow.InitializePayment(ctx, controller.BookingID())
	if err != nil {
		logger.Sugar().Fatalf("main: payment initialization failed: %v", err)
	}

	type verifyOutcome struct {
		result *models.VerifyResult
		err    error
	}
	outcomes := make(chan verifyOutcome, 1)

	callback := payment.NewCallbackServer(flow, logger)
	callback.OnResult = func(result *models.VerifyResult, err error) {
		outcomes <- verifyOutcome{result: result, err: err}
	}
	if err := callback.Start(config.AppConfig.CallbackAddr); err != nil {
		logger.Sugar().Fatalf("main: callback listener failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		callback.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Complete payment at: %s\n", init.AuthorizationURL)
	fmt.Println("Waiting for the gateway to confirm...")

	var result *models.VerifyResult
	select {
	case outcome := <-outcomes:
		if outcome.err != nil {
			logger.Sugar().Fatalf("main: payment verification failed: %v", outcome.err)
		}
		result = outcome.result
	case <-time.After(10 * time.Minute):
		logger.Sugar().Fatal("main: timed out waiting for the payment gateway")
	}

	fmt.Printf("Payment %s held in escrow, booking is %s\n",
		result.Payment.Reference, result.Booking.Status)

	if result.Booking.Status == models.BookingStatusConfirmed {
		if err := cron.ScheduleReminder(result.Booking); err != nil {
			logger.Warn("reminder not scheduled", zap.Error(err))
		}
	}

	// Follow the job through to escrow release.
	controller.TrackProgress()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		status := controller.Status()
		fmt.Printf("\rBooking %s: %s", controller.BookingID(), status)
		if status.IsTerminal() {
			fmt.Println()
			return
		}
		// Polling self-terminates at its attempt cap; keep resuming while
		// the job is still in flight.
		controller.TrackProgress()
	}
}

func loadServiceOffering(path string) (*models.ServiceOffering, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read service file: %w", err)
	}
	var svc models.ServiceOffering
	if err := json.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("cannot parse service file: %w", err)
	}
	return &svc, nil
}
