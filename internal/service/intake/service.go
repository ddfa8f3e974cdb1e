package intake

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/domain/models"
	"github.com/souenergy/cotacao-backend/internal/repository/mongodb"
	"github.com/souenergy/cotacao-backend/internal/storage/local"
	"github.com/souenergy/cotacao-backend/pkg/clients/mailer"
)

// notifyTimeout bounds the detached notification send so a hung mail
// server cannot leak a goroutine per submission.
const notifyTimeout = 10 * time.Second

// Service runs the quotation intake pipeline: store the optional upload,
// validate and normalize the form, persist, then notify the administrator.
// The pipeline is terminal after the first success or failure; there are
// no retries and no partial commits.
type Service struct {
	repo   mongodb.Repository
	store  local.Store
	mailer mailer.Client
	logger *zap.Logger
}

// NewService wires the intake pipeline. A nil mailer disables
// notifications; everything else is required.
func NewService(repo mongodb.Repository, store local.Store, mail mailer.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, store: store, mailer: mail, logger: logger}
}

// Submit processes a single quotation submission and returns the id
// assigned by the repository.
//
// The upload is written before validation so that a storage failure aborts
// the pipeline before anything touches the repository; on any later
// failure the stored file is removed again, so no orphan uploads and no
// quotations with dangling image references survive a failed submission.
func (s *Service) Submit(ctx context.Context, form models.QuotationForm, file *multipart.FileHeader) (string, error) {
	var storedFile string
	if file != nil {
		name, err := s.store.Save(file)
		if err != nil {
			return "", fmt.Errorf("store product picture: %w", err)
		}
		storedFile = name
	}

	quotation, err := form.Parse()
	if err != nil {
		s.discardUpload(storedFile)
		return "", err
	}

	if storedFile != "" {
		url := local.URLPath(storedFile)
		quotation.ImageFilename = &storedFile
		quotation.ImageURL = &url
	}
	quotation.CreatedAt = time.Now().UTC()

	id, err := s.repo.Append(ctx, *quotation)
	if err != nil {
		s.discardUpload(storedFile)
		return "", fmt.Errorf("persist quotation: %w", err)
	}

	// Best-effort: the submission is already successful at this point, so
	// the response must never wait on the mail transport.
	go s.notify(*quotation)

	return id, nil
}

func (s *Service) discardUpload(filename string) {
	if filename == "" {
		return
	}
	if err := s.store.Remove(filename); err != nil {
		s.logger.Warn("failed to remove stored upload",
			zap.String("filename", filename), zap.Error(err))
	}
}

func (s *Service) notify(q models.Quotation) {
	if s.mailer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	subject := fmt.Sprintf("Nova Cotação de %s para %s", q.CompanyName, q.SupplierModel)
	body := fmt.Sprintf(`<h1>Nova Cotação Recebida</h1>
<p><b>Empresa:</b> %s</p>
<p><b>Contato:</b> %s</p>
<p><b>Modelo:</b> %s</p>
<p><b>Preço FOB:</b> %.2f</p>
<p><b>Prazo de Entrega:</b> %d dias</p>
<p><b>MOQ:</b> %d</p>
<hr><p>Acesse o painel administrativo para visualizar todos os detalhes.</p>`,
		q.CompanyName, q.ContactPerson, q.SupplierModel, q.FobPrice, q.DeliveryTime, q.MOQ)

	if err := s.mailer.Send(ctx, subject, body); err != nil {
		s.logger.Warn("notification email failed",
			zap.String("company", q.CompanyName), zap.Error(err))
		return
	}
	s.logger.Info("notification email sent", zap.String("company", q.CompanyName))
}
