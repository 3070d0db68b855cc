package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/handlers"
	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/backtest"
	"EquityPaperBot/internal/operations/calendar"
	"EquityPaperBot/internal/operations/marketdata"
	"EquityPaperBot/internal/repositories"
	"EquityPaperBot/internal/services/strategy"
	"EquityPaperBot/internal/services/trading"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// warmupDays of extra history fetched before the run start so strategies
// have their lookback windows filled on day one.
const warmupDays = 90

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	runCfg, err := config.LoadRunConfig(cfg.RunFile)
	if err != nil {
		log.Fatal("Failed to load run config: ", err)
	}

	db := setupDatabase(cfg.Database, log)

	priceRepo := repositories.NewPriceRepository(db)
	positionRepo := repositories.NewPositionRepository(db)
	runRepo := repositories.NewRunRepository(db)
	equityRepo := repositories.NewEquityRepository(db)
	rejectionRepo := repositories.NewRejectionRepository(db)
	instrumentRepo := repositories.NewInstrumentRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Info("shutdown signal received")
		cancel()
	}()

	// Backfill daily bars for the universe.
	dr, err := runCfg.DateRange()
	if err != nil {
		log.Fatal("Invalid date range: ", err)
	}
	futuresClient := futures.NewClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	fetcher := marketdata.NewFetcher(futuresClient, log)
	recorder := marketdata.NewRecorder(fetcher, priceRepo, log)
	if err := recorder.Backfill(ctx, runCfg.Universe, dr[0].AddDate(0, 0, -warmupDays), dr[1]); err != nil {
		log.Fatal("Backfill failed: ", err)
	}

	if err := instrumentRepo.Seed(runCfg.Universe); err != nil {
		log.Fatal("Instrument seed failed: ", err)
	}
	instruments, err := loadInstruments(instrumentRepo)
	if err != nil {
		log.Fatal("Instrument load failed: ", err)
	}

	accessor := marketdata.NewRetryAccessor(
		marketdata.NewRepoAccessor(priceRepo), 3, 500*time.Millisecond, log)
	signals := strategy.NewManager(
		strategy.NewMomentumStrategy(priceRepo),
		strategy.NewMeanReversionStrategy(priceRepo),
	)

	engineCfg, err := backtest.ConfigFromRun(runCfg)
	if err != nil {
		log.Fatal("Invalid run config: ", err)
	}
	runRecorder := backtest.NewGormRecorder(positionRepo, equityRepo, rejectionRepo)
	engine := backtest.NewEngine(engineCfg, accessor, signals, instruments, runRecorder, log)

	runRow := &models.Run{
		ID:             engineCfg.RunID,
		Name:           engineCfg.Name,
		StartDate:      engineCfg.Start,
		EndDate:        engineCfg.End,
		InitialBalance: engineCfg.InitialBalance,
		Status:         models.RunStatusRunning,
	}
	if err := runRepo.Create(runRow); err != nil {
		log.Fatal("Failed to create run record: ", err)
	}

	// Serve results read-only while the run progresses.
	go serveAPI(cfg.API, runRepo, positionRepo, equityRepo, rejectionRepo, log)

	if cfg.Mode == "paper" {
		cal := calendar.New(engineCfg.Holidays)
		trader := trading.NewPaperTrader(engine, cal, 15*time.Minute, log)
		if err := trader.Run(ctx); err != nil && ctx.Err() == nil {
			finishRun(runRepo, runRow, nil, models.RunStatusAborted, log)
			log.Fatal("Paper trading failed: ", err)
		}
		finishRun(runRepo, runRow, nil, models.RunStatusCompleted, log)
		return
	}

	results, err := engine.Run(ctx)
	if err != nil {
		finishRun(runRepo, runRow, nil, models.RunStatusAborted, log)
		log.Fatal("Backtest failed: ", err)
	}
	finishRun(runRepo, runRow, results, models.RunStatusCompleted, log)

	printResults(results)
	writeArtifacts(results, log)
}

func setupDatabase(dbConfig config.DatabaseConfig, log *logrus.Logger) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = db.AutoMigrate(
		&models.Instrument{},
		&models.Price{},
		&models.Position{},
		&models.Run{},
		&models.EquityPoint{},
		&models.Rejection{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
	return db
}

func loadInstruments(repo *repositories.InstrumentRepository) (backtest.InstrumentIndex, error) {
	rows, err := repo.FindAll()
	if err != nil {
		return nil, err
	}
	index := make(backtest.InstrumentIndex, len(rows))
	for _, inst := range rows {
		index[inst.Symbol] = inst
	}
	return index, nil
}

func serveAPI(apiCfg config.APIConfig, runs *repositories.RunRepository, positions *repositories.PositionRepository, equity *repositories.EquityRepository, rejections *repositories.RejectionRepository, log *logrus.Logger) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.NewResultsHandler(runs, positions, equity, rejections).Register(router)

	addr := fmt.Sprintf("%s:%d", apiCfg.Host, apiCfg.Port)
	log.WithField("addr", addr).Info("results API listening")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Error("results API stopped")
	}
}

func finishRun(runRepo *repositories.RunRepository, row *models.Run, results *backtest.Results, status string, log *logrus.Logger) {
	row.Status = status
	row.FinishedAt = time.Now().UTC()
	if results != nil {
		row.Partial = results.Partial
		row.TotalTrades = results.Summary.TotalTrades
		row.WinRate = results.Summary.WinRate
		row.SharpeRatio = results.Summary.SharpeRatio
		row.MaxDrawdown = results.Summary.MaxDrawdown
		row.CAGR = results.Summary.CAGR
		row.FinalEquity = results.Summary.FinalEquity
		row.ProfitFactor = results.Summary.ProfitFactor
	}
	if err := runRepo.Update(row); err != nil {
		log.WithError(err).Error("failed to update run record")
	}
}

func printResults(results *backtest.Results) {
	fmt.Println("\n=== Backtest Results ===")
	fmt.Printf("Run: %s\n", results.RunID)
	fmt.Printf("Total Trades: %d\n", results.Summary.TotalTrades)
	fmt.Printf("Win Rate: %.2f%%\n", results.Summary.WinRate*100)
	fmt.Printf("Sharpe Ratio: %.2f\n", results.Summary.SharpeRatio)
	fmt.Printf("Max Drawdown: %.2f%%\n", results.Summary.MaxDrawdown*100)
	fmt.Printf("CAGR: %.2f%%\n", results.Summary.CAGR*100)
	fmt.Printf("Final Equity: $%.2f\n", results.Summary.FinalEquity)
	if results.Partial {
		fmt.Println("(partial run: cancelled before the end date)")
	}
}

func writeArtifacts(results *backtest.Results, log *logrus.Logger) {
	prefix := "run_" + results.RunID[:8]
	if err := backtest.WriteEquityCSV(prefix+"_equity.csv", results.Curve); err != nil {
		log.WithError(err).Error("failed to write equity curve")
	}
	if err := backtest.WriteTradesCSV(prefix+"_trades.csv", results.Trades); err != nil {
		log.WithError(err).Error("failed to write trade log")
	}
	if err := backtest.WriteRejectionsCSV(prefix+"_rejections.csv", results.Rejections); err != nil {
		log.WithError(err).Error("failed to write rejections")
	}
}
