/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/crptapi"
	"github.com/acronis/go-crptapi/document"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/retry"
	"github.com/acronis/go-crptapi/service"
	"github.com/acronis/go-crptapi/submitter"
	"github.com/acronis/go-crptapi/throttle"
)

type batchOpts struct {
	Copies    int
	Workers   int
	Signature string
	// Retries is how many times a temporarily failed submission is repeated. Zero disables retries.
	Retries       int
	RetryInterval time.Duration
	// ReportInterval enables periodic logging of the throttle state.
	ReportInterval time.Duration
}

// batch submits copies of one document concurrently through a shared Submitter.
// Each copy except the first gets a new doc_id.
type batch struct {
	sbm    *submitter.Submitter
	thr    *throttle.Throttle
	doc    document.Document
	opts   batchOpts
	logger log.FieldLogger

	accepted atomic.Int32
	failed   atomic.Int32
}

var _ service.Worker = (*batch)(nil)

func newBatch(
	sbm *submitter.Submitter, thr *throttle.Throttle, doc document.Document, opts batchOpts, logger log.FieldLogger,
) *batch {
	if opts.Copies <= 0 {
		opts.Copies = 1
	}
	if opts.Workers <= 0 || opts.Workers > opts.Copies {
		opts.Workers = opts.Copies
	}
	return &batch{sbm: sbm, thr: thr, doc: doc, opts: opts, logger: logger}
}

// Run submits all copies and fails if any of them was not accepted.
func (b *batch) Run(ctx context.Context) error {
	if b.opts.ReportInterval > 0 {
		reportCtx, stopReport := context.WithCancel(ctx)
		defer stopReport()
		go func() {
			_ = service.NewPeriodicWorkerWithOpts(service.WorkerFunc(b.reportStats), b.opts.ReportInterval, b.logger,
				service.PeriodicWorkerOpts{InitialDelay: b.opts.ReportInterval}).Run(reportCtx)
		}()
	}

	docs := make(chan document.Document, b.opts.Copies)
	for i := 0; i < b.opts.Copies; i++ {
		doc := b.doc
		if i > 0 || doc.DocID == "" {
			doc.DocID = document.NewDocID()
		}
		docs <- doc
	}
	close(docs)

	workers := make([]service.Worker, b.opts.Workers)
	for i := range workers {
		workers[i] = service.WorkerFunc(func(ctx context.Context) error {
			for doc := range docs {
				b.submit(ctx, doc)
			}
			return nil
		})
	}
	startTime := time.Now()
	if err := service.NewParallelWorker(workers...).Run(ctx); err != nil {
		return err
	}

	b.logger.Info("document batch finished",
		log.Int("accepted", int(b.accepted.Load())),
		log.Int("failed", int(b.failed.Load())),
		log.Duration("elapsed", time.Since(startTime)))
	if failed := b.failed.Load(); failed != 0 {
		return fmt.Errorf("%d of %d documents were not accepted", failed, b.opts.Copies)
	}
	return nil
}

func (b *batch) submit(ctx context.Context, doc document.Document) {
	logger := b.logger.With(log.String("doc_id", doc.DocID))

	var outcome submitter.Outcome
	submitOnce := func(ctx context.Context) error {
		outcome = b.sbm.Submit(ctx, doc, b.opts.Signature)
		return outcome.Err
	}
	var err error
	if b.opts.Retries > 0 {
		err = retry.DoWithRetry(ctx, retry.NewConstantBackoffPolicy(b.opts.RetryInterval, b.opts.Retries),
			crptapi.IsTemporary, retry.NotifyWithLogger(logger, "document submission will be retried"), submitOnce)
	} else {
		err = submitOnce(ctx)
	}
	if err != nil {
		b.failed.Inc()
		logger.Error("document was not accepted", log.Error(err))
		return
	}

	res, err := crptapi.ParseCreateResult(outcome.Response)
	if err != nil {
		b.failed.Inc()
		logger.Error("unexpected registry response", log.Error(err), log.String("request_id", outcome.Response.RequestID))
		return
	}
	b.accepted.Inc()
	logger.Info("document accepted",
		log.String("value", res.Value), log.String("request_id", outcome.Response.RequestID))
}

func (b *batch) reportStats(context.Context) error {
	stats := b.thr.Stats()
	b.logger.Info("throttle state",
		log.Int("in_flight", stats.InFlight),
		log.Int("waiting", stats.Waiting),
		log.Int("admitted_in_window", stats.AdmittedInWindow),
		log.Int("accepted", int(b.accepted.Load())),
		log.Int("failed", int(b.failed.Load())))
	return nil
}
