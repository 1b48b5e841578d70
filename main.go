package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/api"
	"github.com/WoLand-Q/bank-exchange-converter/internal/config"
	"github.com/WoLand-Q/bank-exchange-converter/internal/extractor"
	"github.com/WoLand-Q/bank-exchange-converter/internal/logger"
	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
	"github.com/WoLand-Q/bank-exchange-converter/internal/service"
	"github.com/WoLand-Q/bank-exchange-converter/internal/writer"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Failed to load config: %v\n", err)
	}

	// CLI flags, defaulting to the environment
	privatFlag := flag.String("privat", cfg.Input.PrivatPDF, "PrivatBank statement PDF (empty to skip)")
	taskomFlag := flag.String("taskombank", cfg.Input.TaskombankPDF, "Taskombank statement PDF (empty to skip)")
	outputFlag := flag.String("output", cfg.Exchange.OutputPath, "Combined exchange file path")
	encodingFlag := flag.String("encoding", cfg.Exchange.OutputEncoding, "Output encoding: utf-8 or windows-1251")
	senderFlag := flag.String("sender", cfg.Exchange.Sender, "Value of the Отправитель header field")
	serveFlag := flag.Bool("serve", false, "Run the HTTP upload API instead of converting files")
	addrFlag := flag.String("addr", cfg.Server.Addr, "HTTP listen address for -serve")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank Statement PDF to 1CClientBankExchange Converter

Converts PrivatBank and Taskombank statement PDFs into a single
1CClientBankExchange file for import into the iiko/Syrve back office.

Usage:
  bank-exchange-converter [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert privat.pdf and taskombank.pdf from the current directory
  bank-exchange-converter

  # Only a PrivatBank statement, written for Windows-1251 importers
  bank-exchange-converter -privat=march.pdf -taskombank= -encoding=windows-1251

  # Serve the upload API
  bank-exchange-converter -serve -addr=:9000
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bank-exchange-converter v%s\n", version)
		os.Exit(0)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fatalf("Invalid logging config: %v\n", err)
	}

	loader := extractor.NewPDFLoader(log)
	svc := service.NewDefault(loader, writer.NewExchangeGenerator(*senderFlag), log)

	if *serveFlag {
		if err := serve(svc, loader, log, *addrFlag, cfg.Server.BodyLimitMB<<20); err != nil {
			log.WithError(err).Fatal("server failed")
		}
		return
	}

	fw, err := writer.NewFileWriter(*encodingFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	inputs := []statement{
		{path: *privatFlag, bank: models.BankPrivat},
		{path: *taskomFlag, bank: models.BankTaskombank},
	}
	if err := convert(svc, fw, inputs, *outputFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Combined file written: %s\n", *outputFlag)
}

type statement struct {
	path string
	bank models.BankType
}

func convert(svc *service.StatementService, fw *writer.FileWriter, inputs []statement, outputPath string) error {
	var parts []string
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		if _, err := os.Stat(in.path); err != nil {
			return fmt.Errorf("input file not found: %s", in.path)
		}

		fmt.Printf("Processing: %s (%s)\n", in.path, in.bank)
		content, err := svc.ProcessFile(in.path, in.bank)
		if err != nil {
			return fmt.Errorf("processing %s: %w", in.path, err)
		}
		parts = append(parts, content)
	}
	if len(parts) == 0 {
		return errors.New("no input statements given")
	}

	if err := fw.WriteFile(outputPath, writer.Combine(parts...)); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func serve(svc *service.StatementService, loader *extractor.PDFLoader, log *logrus.Logger, addr string, bodyLimit int) error {
	app := api.NewApp(api.NewHandler(svc, loader, log), bodyLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP API listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
