package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"kvgportal/internal/model"
	"kvgportal/internal/pdf"
	"kvgportal/internal/repository"
	"kvgportal/internal/storage"
	"kvgportal/internal/upload"
)

// DocumentService defines the use cases for identity documents.
type DocumentService interface {
	// Upload stores f as the applicant's document of the given kind, replacing a
	// previous one. Storage is rolled back if the metadata cannot be saved.
	Upload(ctx context.Context, applicantID string, kind model.DocumentKind, f upload.File) (*model.Document, error)

	// List returns all documents of an applicant.
	List(ctx context.Context, applicantID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Open returns the document and a reader over its content. The caller closes the reader.
	Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error)

	// Delete removes a document from both storage and repository.
	Delete(ctx context.Context, id string) error

	// BuildCombined merges id_front and id_back into a two-page PDF stored as kind combined.
	BuildCombined(ctx context.Context, applicantID string) (*model.Document, error)

	// Combined returns the combined PDF, building it first if it does not exist.
	Combined(ctx context.Context, applicantID string) (*model.Document, error)
}

type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	applicants repository.ApplicantRepository
	metrics    *Metrics
	logger     *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, applicants repository.ApplicantRepository, metrics *Metrics, logger *slog.Logger) DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{store: store, repo: repo, applicants: applicants, metrics: metrics, logger: logger}
}

func objectKey(applicantID, ext string) (string, string) {
	name := uuid.New().String() + ext
	return path.Join("applicants", applicantID, name), name
}

func (s *documentService) Upload(ctx context.Context, applicantID string, kind model.DocumentKind, f upload.File) (*model.Document, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	if !kind.Uploadable() {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrInvalidInput, kind)
	}
	applicant, err := s.applicants.FindByID(ctx, applicantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !applicant.Status.Editable() {
		return nil, ErrNotEditable
	}

	doc, err := s.save(ctx, applicantID, kind, f.Name, f.Ext, f.ContentType, f.Data)
	if err != nil {
		return nil, err
	}

	if kind == model.KindIDFront || kind == model.KindIDBack {
		// Identity pages changed, so any previously combined PDF is stale.
		s.dropKind(ctx, applicantID, model.KindCombined)
		if applicant.Status == model.StatusDraft {
			if err := s.promote(ctx, applicantID); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// save puts data under a fresh key and upserts its row. The object is
// removed again if the row cannot be written; the replaced object is removed
// once the row points at the new one.
func (s *documentService) save(ctx context.Context, applicantID string, kind model.DocumentKind, original, ext, contentType string, data []byte) (*model.Document, error) {
	key, name := objectKey(applicantID, ext)

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": original,
			"kind":              string(kind),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	previous, err := s.repo.FindByKind(ctx, applicantID, kind)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.rollback(ctx, key, err)
		return nil, fmt.Errorf("lookup previous document: %w", err)
	}

	doc := &model.Document{
		ID:               uuid.New().String(),
		ApplicantID:      applicantID,
		Kind:             kind,
		Filename:         name,
		OriginalFilename: original,
		StoragePath:      objInfo.Key,
		Size:             objInfo.Size,
		ContentType:      objInfo.ContentType,
		CreatedAt:        time.Now().UTC(),
	}
	stored, err := s.repo.Upsert(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if previous != nil && previous.StoragePath != stored.StoragePath {
		if err := s.store.Delete(ctx, previous.StoragePath); err != nil {
			s.logger.Warn("replaced_object_delete_failed",
				slog.String("applicant_id", applicantID),
				slog.String("storage_path", previous.StoragePath),
				slog.String("error", err.Error()),
			)
		}
	}

	s.metrics.documentStored(kind)
	s.logger.Info("document_stored",
		slog.String("applicant_id", applicantID),
		slog.String("kind", string(kind)),
		slog.Int64("size", stored.Size),
		slog.Bool("replaced", previous != nil),
	)
	return stored, nil
}

func (s *documentService) rollback(ctx context.Context, key string, cause error) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("storage_rollback_failed",
			slog.String("storage_path", key),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
	}
}

// dropKind removes the document of kind if present. Failures are logged only.
func (s *documentService) dropKind(ctx context.Context, applicantID string, kind model.DocumentKind) {
	doc, err := s.repo.FindByKind(ctx, applicantID, kind)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("document_lookup_failed", slog.String("applicant_id", applicantID), slog.String("error", err.Error()))
		}
		return
	}
	if err := s.remove(ctx, doc); err != nil {
		s.logger.Warn("stale_document_delete_failed",
			slog.String("applicant_id", applicantID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}
}

// promote moves a draft applicant to documents_uploaded once both identity pages exist.
func (s *documentService) promote(ctx context.Context, applicantID string) error {
	docs, err := s.repo.ListByApplicant(ctx, applicantID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	var front, back bool
	for _, d := range docs {
		switch d.Kind {
		case model.KindIDFront:
			front = true
		case model.KindIDBack:
			back = true
		}
	}
	if !front || !back {
		return nil
	}
	err = s.applicants.TransitionStatus(ctx, applicantID, model.StatusDraft, model.StatusDocumentsUploaded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update applicant status: %w", err)
	}
	return nil
}

func (s *documentService) List(ctx context.Context, applicantID string) ([]model.Document, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.ListByApplicant(ctx, applicantID)
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("read storage: %w", err)
	}
	return doc, rc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, doc)
}

// remove deletes from storage first; if that fails the row is kept so the object stays reachable.
func (s *documentService) remove(ctx context.Context, doc *model.Document) error {
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, doc.ID)
}

func (s *documentService) BuildCombined(ctx context.Context, applicantID string) (*model.Document, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	front, err := s.load(ctx, applicantID, model.KindIDFront)
	if err != nil {
		return nil, err
	}
	back, err := s.load(ctx, applicantID, model.KindIDBack)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	merged, err := pdf.Combine(front, back)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.logger.Info("combined_pdf_built",
		slog.String("applicant_id", applicantID),
		slog.Int("bytes", len(merged)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return s.save(ctx, applicantID, model.KindCombined, "ausweis.pdf", ".pdf", "application/pdf", merged)
}

func (s *documentService) load(ctx context.Context, applicantID string, kind model.DocumentKind) (pdf.Source, error) {
	doc, err := s.repo.FindByKind(ctx, applicantID, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pdf.Source{}, ErrDocumentsMissing
		}
		return pdf.Source{}, err
	}
	data, _, err := storage.ReadAll(ctx, s.store, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return pdf.Source{}, ErrDocumentsMissing
		}
		return pdf.Source{}, fmt.Errorf("read %s: %w", kind, err)
	}
	return pdf.Source{Name: doc.Filename, Data: data}, nil
}

func (s *documentService) Combined(ctx context.Context, applicantID string) (*model.Document, error) {
	if applicantID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByKind(ctx, applicantID, model.KindCombined)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return s.BuildCombined(ctx, applicantID)
}
