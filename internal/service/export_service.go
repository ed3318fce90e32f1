package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/models"
	"github.com/noah-isme/qcgate-api/pkg/export"
	"github.com/noah-isme/qcgate-api/pkg/storage"
)

type exportCollectionSource interface {
	List(ctx context.Context, filter models.CollectionFilter) ([]models.ProductCollection, int, error)
}

type exportAuditSource interface {
	ListByCollection(ctx context.Context, collectionID string) ([]models.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds compliance datasets and persists rendered files.
type ExportService struct {
	collections exportCollectionSource
	audit       exportAuditSource
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(collections exportCollectionSource, audit exportAuditSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		collections: collections,
		audit:       audit,
		storage:     storage,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.CollectionID != nil && *job.Params.CollectionID != "" {
		scope = sanitizeFilename(*job.Params.CollectionID)
	} else if job.Params.SupplierID != nil && *job.Params.SupplierID != "" {
		scope = sanitizeFilename(*job.Params.SupplierID)
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeCompliance:
		return s.buildComplianceDataset(ctx, job.Params)
	case models.ReportTypeAuditTrail:
		return s.buildAuditTrailDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildComplianceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.CollectionFilter{
		SupplierID: deref(params.SupplierID),
		Season:     deref(params.Season),
		PageSize:   100,
	}
	collections, _, err := s.collections.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(collections))
	for i := range collections {
		collection := &collections[i]
		row := map[string]string{
			"Style Ref": collection.StyleRef,
			"Season":    collection.Season,
			"Supplier":  collection.SupplierID,
			"Status":    string(collection.DeriveStatus()),
			"Components": fmt.Sprintf("%d", len(collection.ComponentIDs)),
		}
		for _, level := range models.GateLevels {
			gate := collection.Gate(level)
			status := string(models.GateStatusNotStarted)
			if gate != nil {
				status = string(gate.Status)
			}
			row[gateHeader(level)] = status
		}
		dataRows = append(dataRows, row)
	}
	dataset := export.Dataset{
		Headers: []string{"Style Ref", "Season", "Supplier", "Status", "Components", "Base Gate", "Bulk Gate", "Garment Gate"},
		Rows:    dataRows,
	}
	title := "Compliance Report"
	if filter.Season != "" {
		title = fmt.Sprintf("Compliance Report %s", filter.Season)
	}
	return dataset, title, nil
}

func (s *ExportService) buildAuditTrailDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	var entries []models.AuditEntry
	var err error
	scope := "recent"
	if params.CollectionID != nil && *params.CollectionID != "" {
		entries, err = s.audit.ListByCollection(ctx, *params.CollectionID)
		scope = *params.CollectionID
	} else {
		entries, err = s.audit.ListRecent(ctx, 200)
	}
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		gate := ""
		if entry.GateLevel != nil {
			gate = string(*entry.GateLevel)
		}
		dataRows = append(dataRows, map[string]string{
			"Seq":        fmt.Sprintf("%d", entry.Seq),
			"Collection": entry.CollectionID,
			"Gate":       gate,
			"Action":     entry.Action,
			"Actor":      entry.Actor,
			"Note":       deref(entry.Note),
			"At":         entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Seq", "Collection", "Gate", "Action", "Actor", "Note", "At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Audit Trail %s", scope)
	return dataset, title, nil
}

func gateHeader(level models.GateLevel) string {
	switch level {
	case models.GateBase:
		return "Base Gate"
	case models.GateBulk:
		return "Bulk Gate"
	default:
		return "Garment Gate"
	}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
