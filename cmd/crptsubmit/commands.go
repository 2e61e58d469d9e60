/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/acronis/go-crptapi/crptapi"
	"github.com/acronis/go-crptapi/document"
	"github.com/acronis/go-crptapi/internal/registrystub"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/profserver"
	"github.com/acronis/go-crptapi/service"
	"github.com/acronis/go-crptapi/submitter"
	"github.com/acronis/go-crptapi/throttle"
)

const defaultRetryInterval = time.Second

func runSubmit(c *cli.Context) error {
	cfg, err := loadAppConfig(c.String("config"))
	if err != nil {
		return err
	}
	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	doc, err := readDocument(c.String("file"))
	if err != nil {
		return err
	}
	signature, err := readSignature(c.String("signature"), c.String("signature-file"))
	if err != nil {
		return err
	}

	var metrics *submitMetrics
	if cfg.ProfServer.Enabled && cfg.ProfServer.Metrics {
		metrics = newSubmitMetrics()
	}
	throttleOpts := []throttle.Option{throttle.WithLogger(logger)}
	clientOpts := crptapi.ClientOpts{Logger: logger}
	unitOpts := service.WorkerUnitOpts{}
	if metrics != nil {
		throttleOpts = append(throttleOpts, throttle.WithMetrics(metrics.throttle))
		clientOpts.MetricsCollector = metrics.client
		unitOpts.MetricsRegisterer = metrics
	}

	thr, err := throttle.NewFromConfig(cfg.Throttle, throttleOpts...)
	if err != nil {
		return err
	}
	client, err := crptapi.NewClient(cfg.Registry, clientOpts)
	if err != nil {
		return err
	}
	defer client.Wait()
	sbm, err := submitter.New(thr, client,
		submitter.WithLogger(logger), submitter.WithRequestTimeout(cfg.Registry.RequestTimeout))
	if err != nil {
		return err
	}

	workers := c.Int("workers")
	if workers <= 0 {
		workers = cfg.Throttle.Limit
	}
	b := newBatch(sbm, thr, doc, batchOpts{
		Copies:         c.Int("copies"),
		Workers:        workers,
		Signature:      signature,
		Retries:        c.Int("retries"),
		RetryInterval:  c.Duration("retry-interval"),
		ReportInterval: c.Duration("report-interval"),
	}, logger)

	logger.Info("submitting documents",
		log.String("url", cfg.Registry.DocumentsURL()),
		log.Int("copies", b.opts.Copies),
		log.Int("throttle_limit", cfg.Throttle.Limit),
		log.Duration("throttle_window", cfg.Throttle.Window))
	if cfg.ProfServer.Enabled {
		stopProfServer := startProfServer(cfg.ProfServer, logger)
		defer stopProfServer()
	}
	if err = service.New(logger, service.NewWorkerUnitWithOpts(b, unitOpts)).Start(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if int(b.accepted.Load()) != b.opts.Copies {
		return cli.Exit(fmt.Sprintf("%d of %d documents were accepted", b.accepted.Load(), b.opts.Copies), 1)
	}
	return nil
}

func runStub(c *cli.Context) error {
	cfg, err := loadAppConfig(c.String("config"))
	if err != nil {
		return err
	}
	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	srv, err := registrystub.NewServer(cfg.Stub, logger)
	if err != nil {
		return err
	}
	if !cfg.ProfServer.Enabled {
		return service.New(logger, srv).Start()
	}
	prof := profserver.New(cfg.ProfServer, logger, profGatherer(cfg.ProfServer))
	return service.New(logger, service.NewCompositeUnit(srv, prof)).Start()
}

func profGatherer(cfg *profserver.Config) prometheus.Gatherer {
	if !cfg.Metrics {
		return nil
	}
	return prometheus.DefaultGatherer
}

// startProfServer runs the debug server beside a batch, which finishes on its own.
// A failure of the debug server is logged and doesn't interrupt submission.
func startProfServer(cfg *profserver.Config, logger log.FieldLogger) (stop func()) {
	prof := profserver.New(cfg, logger, profGatherer(cfg))
	fatalErr := make(chan error, 1)
	go prof.Start(fatalErr)
	return func() {
		select {
		case <-fatalErr:
		default:
			_ = prof.Stop(false)
		}
	}
}

func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("read document: %w", err)
	}
	var doc document.Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return document.Document{}, fmt.Errorf("decode document %q: %w", path, err)
	}
	if doc.DocID == "" {
		doc.DocID = document.NewDocID()
	}
	if err = document.Validate(&doc); err != nil {
		return document.Document{}, fmt.Errorf("document %q: %w", path, err)
	}
	return doc, nil
}

func readSignature(signature, path string) (string, error) {
	if signature != "" && path != "" {
		return "", fmt.Errorf("--signature and --signature-file are mutually exclusive")
	}
	if path == "" {
		return signature, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read signature: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
