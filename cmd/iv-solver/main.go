package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactkeval/iv-solver/internal/config"
	"github.com/contactkeval/iv-solver/internal/impliedvol"
	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/metrics"
	"github.com/contactkeval/iv-solver/internal/report"
	"github.com/contactkeval/iv-solver/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Logging.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	scenarios, err := literalScenarios()
	if err != nil {
		logger.Errorf("building scenarios: %v", err)
		os.Exit(1)
	}
	if sc, err := quoteScenario(ctx, cfg.Market, quoteSource(cfg.Market), time.Now()); err != nil {
		logger.Warnf("skipping quote scenario: %v", err)
	} else {
		scenarios = append(scenarios, sc)
	}

	start := time.Now()
	rows := solveAll(scenarios, cfg.Solver, m)

	if cfg.Report.Dir == "" {
		err = report.Write(os.Stdout, cfg.Report.Format, rows)
	} else {
		var path string
		if path, err = report.WriteFile(cfg.Report.Dir, cfg.Report.Format, rows); err == nil {
			logger.Infof("wrote report to %s", path)
		}
	}
	if err != nil {
		logger.Errorf("writing report: %v", err)
		os.Exit(1)
	}
	logger.Infof("solved %d scenarios in %v", len(scenarios), time.Since(start))

	if cfg.Server.Addr == "" {
		return
	}

	method, err := impliedvol.ParseMethod(cfg.Method)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	h := server.NewHandler(cfg.Solver, method, m)
	if err := server.Run(ctx, cfg.Server.Addr, h.Router(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout); err != nil {
		logger.Errorf("server: %v", err)
		os.Exit(1)
	}
}
