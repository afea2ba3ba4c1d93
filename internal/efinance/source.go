// Package efinance wires the portal pipeline to the cache and implements the
// search and statistics operations on top of it.
package efinance

import (
	"context"
	"time"

	e "efb/internal/errors"
	"efb/internal/models"
	"efb/internal/pkg/excel"
	"efb/internal/pkg/fine"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Portal is the subset of *fine.Client the pipeline needs.
type Portal interface {
	FetchAnnouncementHTML(ctx context.Context) (string, error)
	DownloadFile(ctx context.Context, fileURL string) ([]byte, error)
}

type Parser interface {
	Parse(data []byte, fileName string) (*models.Snapshot, error)
}

// PortalSource runs page fetch, link extraction, download and parse in
// sequence. It does not retry; the first failing step ends the run.
type PortalSource struct {
	portal Portal
	parser Parser
	logger *zap.Logger
}

func NewPortalSource(portal Portal, parser Parser, logger *zap.Logger) *PortalSource {
	if parser == nil {
		parser = excel.NewParser(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalSource{portal: portal, parser: parser, logger: logger.Named("pipeline")}
}

func (s *PortalSource) Fetch(ctx context.Context) (*models.Snapshot, error) {
	log := s.logger.With(zap.String("run_id", uuid.NewString()))
	start := time.Now()

	html, err := s.portal.FetchAnnouncementHTML(ctx)
	if err != nil {
		log.Warn("announcement fetch failed", errFields(err)...)
		return nil, err
	}

	link, err := fine.ExtractDownloadLink(html)
	if err != nil {
		log.Warn("download link extraction failed", errFields(err, zap.Int("html_bytes", len(html)))...)
		return nil, err
	}
	log.Info("download link found", zap.String("file_name", link.FileName), zap.String("url", link.URL))

	data, err := s.portal.DownloadFile(ctx, link.URL)
	if err != nil {
		log.Warn("spreadsheet download failed", errFields(err)...)
		return nil, err
	}

	snapshot, err := s.parser.Parse(data, link.FileName)
	if err != nil {
		log.Warn("spreadsheet parse failed", errFields(err, zap.Int("bytes", len(data)))...)
		return nil, err
	}

	log.Info("pipeline finished",
		zap.String("data_date", snapshot.DataDate),
		zap.Int("registered", len(snapshot.Registered)),
		zap.Int("cancelled", len(snapshot.Cancelled)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snapshot, nil
}

func errFields(err error, fields ...zap.Field) []zap.Field {
	return append(fields, zap.Error(err), zap.NamedError("cause", e.Cause(err)))
}
