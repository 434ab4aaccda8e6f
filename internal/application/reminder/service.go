// Package reminder provides the application workflows that turn a photo, a
// spoken sentence or a form into a stored, scheduled prescription, and the
// owner-scoped operations over stored reminders.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MedRemind/internal/application/scheduling"
	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/infrastructure/ocr"
	"github.com/turtacn/MedRemind/internal/infrastructure/storage/minio"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// NoTextMessage is returned as ocrText when recognition yields nothing.
const NoTextMessage = "No text detected or OCR failed."

const (
	voiceSuggestion = "Try saying something like 'I need to take X-Medicine, two pills daily – one before breakfast and one before dinner.'"
	missSuggestion  = "If this is a correct medication name, please continue with 'Confirm' or try again."
)

// Service defines the reminder application operations.
type Service interface {
	UploadPrescription(ctx context.Context, input *UploadInput) (*UploadResult, error)
	AddVoiceReminder(ctx context.Context, userID, text string) (*VoiceResult, error)
	AddManualReminder(ctx context.Context, input *ManualInput) (*ManualResult, error)
	CreateTestReminder(ctx context.Context, userID string) (*ReminderView, error)
	ListReminders(ctx context.Context, userID string, filter prescription.ListFilter) ([]*ReminderView, error)
	GetReminder(ctx context.Context, userID, id string) (*ReminderView, error)
	UpdateReminder(ctx context.Context, input *UpdateInput) (*ReminderView, error)
	DeleteReminder(ctx context.Context, userID, id string) error
	PreviewSchedule(ctx context.Context, input *PreviewInput) ([]SchedulePreview, error)
}

// ImageFile is an uploaded photo.
type ImageFile struct {
	Data     []byte
	Filename string
}

// UploadInput contains input for a prescription photo upload.
type UploadInput struct {
	UserID          string
	Image           ImageFile
	PackageImage    *ImageFile
	MedicationImage *ImageFile
}

// UploadResult is the outcome of UploadPrescription. NLPData is nil and
// PrescriptionID empty when no text was recognised.
type UploadResult struct {
	OCRText        string                `json:"ocrText"`
	NLPData        *medication.NLPResult `json:"nlpData"`
	PrescriptionID string                `json:"prescriptionId,omitempty"`
	ImageURLs      medication.ImageURLs  `json:"imageUrls"`
	Prescription   *ReminderView         `json:"prescription,omitempty"`
}

// VoiceReminder is the confirmation payload for a voice reminder.
type VoiceReminder struct {
	MedicationView
	ConfirmationText string `json:"confirmationText"`
	PrescriptionID   string `json:"prescriptionId"`
}

// VoiceResult is the outcome of AddVoiceReminder.
type VoiceResult struct {
	PrescriptionID string                `json:"prescriptionId"`
	Reminder       VoiceReminder         `json:"reminder"`
	NLPData        *medication.NLPResult `json:"nlpData,omitempty"`
}

// ManualInput contains the fields of a manual reminder form.
type ManualInput struct {
	UserID          string
	MedicationName  string
	Dosage          string
	Frequency       string
	Instructions    string
	ReminderTimes   []string
	PackageImage    *ImageFile
	MedicationImage *ImageFile
}

// ManualResult is the outcome of AddManualReminder. Warning is set when the
// name could not be confirmed against the drug vocabulary.
type ManualResult struct {
	PrescriptionID       string                          `json:"prescriptionId"`
	StructuredMedication medication.StructuredMedication `json:"structuredMedication"`
	Reminder             MedicationView                  `json:"reminder"`
	Warning              string                          `json:"warning,omitempty"`
}

// UpdateInput contains the editable parts of a stored reminder.
type UpdateInput struct {
	UserID              string
	ID                  string
	Status              *medication.Status
	MedicationSchedules *[]medication.MedicationSchedule
}

// PreviewInput asks for the times a regimen would get, either from free text
// or from an already structured medication.
type PreviewInput struct {
	Text       string
	Medication *medication.StructuredMedication
}

// SchedulePreview is the generated schedule for one medication.
type SchedulePreview struct {
	Medication MedicationView `json:"medication"`
	Rule       string         `json:"rule"`
	Times      []string       `json:"times"`
	Canonical  []string       `json:"canonical"`
}

// Rejection is a client error that carries guidance for the caller along
// with the parse that led to it.
type Rejection struct {
	Err        *errors.AppError
	Suggestion string
	NLPData    *medication.NLPResult
}

func (r *Rejection) Error() string { return r.Err.Error() }

func (r *Rejection) Unwrap() error { return r.Err }

// ScheduledPublisher announces finished prescriptions.
type ScheduledPublisher interface {
	PublishScheduled(ctx context.Context, p *medication.Prescription) error
}

// Metrics records workflow outcomes.
type Metrics interface {
	RecordPrescription(source, status string)
}

type noopMetrics struct{}

func (noopMetrics) RecordPrescription(string, string) {}

// Config tunes the workflows.
type Config struct {
	MaxImageBytes int64
	// PresignExpiry > 0 makes GetReminder return presigned image URLs.
	PresignExpiry time.Duration
}

// Deps groups the collaborators of the service. Images, OCR and Publisher
// are optional; uploads fail without Images and OCR.
type Deps struct {
	Repo      prescription.Repository
	Parser    med_extractor.Parser
	Validator med_extractor.DrugValidator
	Creator   *scheduling.ScheduleCreator
	Generator *scheduling.Generator
	OCR       ocr.TextExtractor
	Images    minio.ImageStore
	Publisher ScheduledPublisher
	Metrics   Metrics
}

type serviceImpl struct {
	repo      prescription.Repository
	parser    med_extractor.Parser
	validator med_extractor.DrugValidator
	creator   *scheduling.ScheduleCreator
	generator *scheduling.Generator
	ocr       ocr.TextExtractor
	images    minio.ImageStore
	publisher ScheduledPublisher
	metrics   Metrics
	config    Config
	logger    logging.Logger
	now       func() time.Time
}

// NewService creates a new reminder Service.
func NewService(deps Deps, cfg Config, logger logging.Logger) (Service, error) {
	if deps.Repo == nil {
		return nil, errors.New(errors.CodeInvalidParam, "prescription repository is required")
	}
	if deps.Parser == nil {
		return nil, errors.New(errors.CodeInvalidParam, "parser is required")
	}
	if deps.Validator == nil {
		return nil, errors.New(errors.CodeInvalidParam, "drug validator is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if deps.Generator == nil {
		deps.Generator = scheduling.NewGenerator()
	}
	if deps.Creator == nil {
		c, err := scheduling.NewScheduleCreator(deps.Repo, deps.Generator, logger)
		if err != nil {
			return nil, err
		}
		deps.Creator = c
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	return &serviceImpl{
		repo:      deps.Repo,
		parser:    deps.Parser,
		validator: deps.Validator,
		creator:   deps.Creator,
		generator: deps.Generator,
		ocr:       deps.OCR,
		images:    deps.Images,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		config:    cfg,
		logger:    logger.Named("reminder"),
		now:       time.Now,
	}, nil
}

// UploadPrescription stores the photos, recognises the prescription text and
// schedules whatever medications it names.
func (s *serviceImpl) UploadPrescription(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	if err := ocr.CheckImage(input.Image.Data, s.config.MaxImageBytes); err != nil {
		return nil, err
	}
	if s.images == nil || s.ocr == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "prescription upload is not configured")
	}

	images, err := s.uploadImages(ctx, &input.Image, input.PackageImage, input.MedicationImage)
	if err != nil {
		return nil, err
	}

	text, err := s.ocr.ExtractText(ctx, input.Image.Data, input.Image.Filename)
	if err != nil {
		s.metrics.RecordPrescription(string(medication.SourceOCR), "ocr_failed")
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		s.logger.Info("no text recognised in prescription image",
			logging.String("user_id", input.UserID),
			logging.String("image_url", images.PrescriptionImageURL))
		s.metrics.RecordPrescription(string(medication.SourceOCR), "no_text")
		return &UploadResult{OCRText: NoTextMessage, ImageURLs: images}, nil
	}

	nlp, err := s.parser.Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	rx, err := prescription.NewPrescription(input.UserID, medication.SourceOCR, s.now())
	if err != nil {
		return nil, err
	}
	rx.OCRText = text
	rx.OriginalFilename = input.Image.Filename
	rx.Images = images
	rx.NLPResult = *nlp

	stored, err := s.persistAndSchedule(ctx, rx)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		OCRText:        text,
		NLPData:        nlp,
		PrescriptionID: stored.ID,
		ImageURLs:      images,
		Prescription:   NewReminderView(stored, false),
	}, nil
}

// AddVoiceReminder schedules the first medication named in a transcribed
// sentence.
func (s *serviceImpl) AddVoiceReminder(ctx context.Context, userID, text string) (*VoiceResult, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeTextMissing, "Missing required field: text")
	}

	nlp, err := s.parser.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	if nlp.Empty() {
		s.metrics.RecordPrescription(string(medication.SourceVoice), "rejected")
		return nil, &Rejection{
			Err:        errors.New(errors.ErrCodeExtractionEmpty, "Could not extract medication details from the provided text."),
			Suggestion: voiceSuggestion,
			NLPData:    nlp,
		}
	}

	primary := nlp.StructuredMedications[0]
	if primary.Validation.IsConfirmedAbsent() {
		s.metrics.RecordPrescription(string(medication.SourceVoice), "rejected")
		msg := fmt.Sprintf("Medication %q not found or validated. Please check spelling or enter manually.", primary.Name)
		return nil, &Rejection{
			Err:        errors.New(errors.ErrCodeMedicationUnknown, msg),
			Suggestion: missSuggestion,
			NLPData:    nlp,
		}
	}

	rx, err := prescription.NewPrescription(userID, medication.SourceVoice, s.now())
	if err != nil {
		return nil, err
	}
	rx.InputText = text
	rx.NLPResult = *nlp

	stored, err := s.persistAndSchedule(ctx, rx)
	if err != nil {
		return nil, err
	}

	view := FormatMedication(primary)
	if len(stored.MedicationSchedules) > 0 {
		view.Times = displayTimes(stored.MedicationSchedules[0].ReminderTimes)
	}
	return &VoiceResult{
		PrescriptionID: stored.ID,
		Reminder: VoiceReminder{
			MedicationView:   view,
			ConfirmationText: ConfirmationText(view),
			PrescriptionID:   stored.ID,
		},
		NLPData: nlp,
	}, nil
}

// AddManualReminder stores a reminder entered on a form. An unconfirmed name
// is saved with a warning.
func (s *serviceImpl) AddManualReminder(ctx context.Context, input *ManualInput) (*ManualResult, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	name := strings.TrimSpace(input.MedicationName)
	if name == "" {
		return nil, errors.New(errors.ErrCodeNameRequired, "Missing required field: medicationName")
	}
	frequency := strings.TrimSpace(input.Frequency)
	if frequency == "" {
		return nil, errors.New(errors.ErrCodeFrequencyRequired, "Missing required field: frequency")
	}

	var times []string
	if len(input.ReminderTimes) > 0 {
		canonical, err := medication.CanonicalizeTimes(input.ReminderTimes)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeFormatInvalid, "invalid reminder time")
		}
		times = canonical
	}

	var images medication.ImageURLs
	if input.PackageImage != nil || input.MedicationImage != nil {
		if s.images == nil {
			return nil, errors.New(errors.ErrCodeServiceUnavailable, "image storage is not configured")
		}
		var err error
		if images, err = s.uploadImages(ctx, nil, input.PackageImage, input.MedicationImage); err != nil {
			return nil, err
		}
	}

	validation := s.validator.Validate(ctx, name)
	var warning string
	switch {
	case validation.IsConfirmedAbsent():
		warning = fmt.Sprintf("Medication %q was not found in the drug database. Please double-check the name.", name)
	case !validation.IsDefinitive():
		warning = fmt.Sprintf("Medication %q could not be verified right now.", name)
	}
	if warning != "" {
		s.logger.Warn("manual entry validation failed",
			logging.String("medication", name),
			logging.String("outcome", string(validation.Outcome)))
	}

	med := medication.StructuredMedication{
		Name:               name,
		Dosage:             strings.TrimSpace(input.Dosage),
		Frequency:          frequency,
		Instructions:       strings.TrimSpace(input.Instructions),
		ReminderTimes:      times,
		Validation:         validation,
		PackageImageURL:    images.PackageImageURL,
		MedicationImageURL: images.MedicationImageURL,
	}

	rx, err := prescription.NewPrescription(input.UserID, medication.SourceManual, s.now())
	if err != nil {
		return nil, err
	}
	rx.Images = images
	rx.NLPResult.StructuredMedications = []medication.StructuredMedication{med}

	stored, err := s.persistAndSchedule(ctx, rx)
	if err != nil {
		return nil, err
	}

	view := FormatMedication(med)
	if len(stored.MedicationSchedules) > 0 {
		view = FormatSchedule(stored.MedicationSchedules[0])
	}
	return &ManualResult{
		PrescriptionID:       stored.ID,
		StructuredMedication: med,
		Reminder:             view,
		Warning:              warning,
	}, nil
}

// CreateTestReminder stores a fixed, already scheduled reminder.
func (s *serviceImpl) CreateTestReminder(ctx context.Context, userID string) (*ReminderView, error) {
	now := s.now().UTC()
	rx, err := prescription.NewPrescription(userID, medication.SourceTest, now)
	if err != nil {
		return nil, err
	}
	rx.Status = medication.StatusScheduled
	rx.MedicationSchedules = []medication.MedicationSchedule{{
		Name:          "Test Medication",
		Dosage:        "1 pill",
		Frequency:     "twice a day",
		Instructions:  "Take with water",
		ReminderTimes: []string{"08:00", "20:00"},
		Active:        true,
		CreatedAt:     now,
	}}

	id, err := s.repo.Add(ctx, rx)
	if err != nil {
		return nil, err
	}
	rx.ID = id
	s.metrics.RecordPrescription(string(medication.SourceTest), string(rx.Status))
	s.logger.Info("test reminder created", logging.String("prescription_id", id))
	return NewReminderView(rx, false), nil
}

// ListReminders returns the caller's reminders.
func (s *serviceImpl) ListReminders(ctx context.Context, userID string, filter prescription.ListFilter) ([]*ReminderView, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.New(errors.ErrCodeStatusInvalid, "unknown status").WithDetail(string(filter.Status))
	}
	items, err := s.repo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*ReminderView, 0, len(items))
	for _, p := range items {
		out = append(out, NewReminderView(p, false))
	}
	return out, nil
}

// GetReminder returns one of the caller's reminders with its parse result.
func (s *serviceImpl) GetReminder(ctx context.Context, userID, id string) (*ReminderView, error) {
	p, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	view := NewReminderView(p, true)
	if s.images != nil && s.config.PresignExpiry > 0 {
		view.Images = s.presignImages(ctx, view.Images)
	}
	return view, nil
}

// UpdateReminder replaces schedules and/or moves the status.
func (s *serviceImpl) UpdateReminder(ctx context.Context, input *UpdateInput) (*ReminderView, error) {
	if input == nil {
		return nil, errors.New(errors.CodeInvalidParam, "update input is required")
	}
	p, err := s.loadOwned(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	patch := prescription.Patch{Status: input.Status, UpdatedAt: s.now()}
	if input.Status != nil {
		if err := prescription.CheckTransition(p.Status, *input.Status); err != nil {
			return nil, err
		}
	}
	if input.MedicationSchedules != nil {
		schedules := make([]medication.MedicationSchedule, len(*input.MedicationSchedules))
		for i, sch := range *input.MedicationSchedules {
			if strings.TrimSpace(sch.Name) == "" {
				return nil, errors.New(errors.ErrCodeNameRequired, "medication name is required").
					WithDetail(fmt.Sprintf("medicationSchedules[%d]", i))
			}
			times, err := medication.CanonicalizeTimes(sch.ReminderTimes)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeTimeFormatInvalid, "invalid reminder time").
					WithDetail(fmt.Sprintf("medicationSchedules[%d]", i))
			}
			sch.ReminderTimes = times
			if sch.CreatedAt.IsZero() {
				sch.CreatedAt = patch.UpdatedAt.UTC()
			}
			schedules[i] = sch
		}
		patch.MedicationSchedules = prescription.SchedulesPtr(schedules)
	}

	if err := s.repo.Update(ctx, p.ID, patch); err != nil {
		return nil, err
	}
	updated, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reminder updated", logging.String("prescription_id", p.ID))
	return NewReminderView(updated, false), nil
}

// DeleteReminder removes the reminder and, best effort, its photos.
func (s *serviceImpl) DeleteReminder(ctx context.Context, userID, id string) error {
	p, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	if s.images != nil {
		for _, u := range []string{p.Images.PrescriptionImageURL, p.Images.PackageImageURL, p.Images.MedicationImageURL} {
			if u == "" {
				continue
			}
			if err := s.images.Delete(ctx, u); err != nil {
				s.logger.Warn("failed to delete reminder image",
					logging.String("prescription_id", p.ID), logging.String("url", u), logging.Err(err))
			}
		}
	}
	s.logger.Info("reminder deleted", logging.String("prescription_id", p.ID))
	return nil
}

// PreviewSchedule generates times without storing anything.
func (s *serviceImpl) PreviewSchedule(ctx context.Context, input *PreviewInput) ([]SchedulePreview, error) {
	if input == nil {
		return nil, errors.New(errors.CodeInvalidParam, "preview input is required")
	}
	var meds []medication.StructuredMedication
	switch {
	case input.Medication != nil:
		meds = []medication.StructuredMedication{*input.Medication}
	case strings.TrimSpace(input.Text) != "":
		nlp, err := s.parser.Parse(ctx, input.Text)
		if err != nil {
			return nil, err
		}
		meds = nlp.StructuredMedications
	default:
		return nil, errors.New(errors.ErrCodeTextMissing, "text or medication is required")
	}

	out := make([]SchedulePreview, 0, len(meds))
	for _, m := range meds {
		canonical, err := medication.CanonicalizeTimes(s.generator.Generate(m))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeFormatInvalid, "invalid reminder time")
		}
		rule := "explicit"
		if len(m.ReminderTimes) == 0 {
			rule = s.generator.Rule(m.Frequency)
		}
		view := FormatMedication(m)
		view.Times = displayTimes(canonical)
		out = append(out, SchedulePreview{
			Medication: view,
			Rule:       rule,
			Times:      view.Times,
			Canonical:  canonical,
		})
	}
	return out, nil
}

// persistAndSchedule stores rx in processing, runs schedule creation and
// returns the stored aggregate.
func (s *serviceImpl) persistAndSchedule(ctx context.Context, rx *medication.Prescription) (*medication.Prescription, error) {
	id, err := s.repo.Add(ctx, rx)
	if err != nil {
		s.metrics.RecordPrescription(string(rx.Source), "persist_failed")
		return nil, err
	}
	s.logger.Info("prescription saved",
		logging.String("prescription_id", id),
		logging.String("source", string(rx.Source)),
		logging.Int("medications", len(rx.NLPResult.StructuredMedications)))

	if _, err := s.creator.CreateInitialSchedules(ctx, id, rx.NLPResult.StructuredMedications); err != nil {
		s.metrics.RecordPrescription(string(rx.Source), string(medication.StatusFailed))
		return nil, err
	}

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPrescription(string(stored.Source), string(stored.Status))

	if s.publisher != nil && stored.Status == medication.StatusScheduled {
		if err := s.publisher.PublishScheduled(ctx, stored); err != nil {
			s.logger.Warn("failed to publish prescription scheduled event",
				logging.String("prescription_id", id), logging.Err(err))
		}
	}
	return stored, nil
}

// uploadImages stores the photos concurrently. rxImage goes under the
// prescription prefix, the rest under the medication prefix.
func (s *serviceImpl) uploadImages(ctx context.Context, rxImage, pkgImage, medImage *ImageFile) (medication.ImageURLs, error) {
	var urls medication.ImageURLs
	g, gctx := errgroup.WithContext(ctx)
	upload := func(f *ImageFile, prefix string, dst *string) {
		if f == nil || len(f.Data) == 0 {
			return
		}
		g.Go(func() error {
			u, err := s.images.Upload(gctx, f.Data, f.Filename, prefix)
			if err != nil {
				return err
			}
			*dst = u
			return nil
		})
	}
	upload(rxImage, minio.PrefixPrescriptionImages, &urls.PrescriptionImageURL)
	upload(pkgImage, minio.PrefixMedicationImages, &urls.PackageImageURL)
	upload(medImage, minio.PrefixMedicationImages, &urls.MedicationImageURL)
	if err := g.Wait(); err != nil {
		return medication.ImageURLs{}, err
	}
	return urls, nil
}

func (s *serviceImpl) presignImages(ctx context.Context, images medication.ImageURLs) medication.ImageURLs {
	sign := func(u string) string {
		if u == "" {
			return u
		}
		signed, err := s.images.PresignedURL(ctx, u, s.config.PresignExpiry)
		if err != nil {
			s.logger.Warn("failed to presign image url", logging.String("url", u), logging.Err(err))
			return u
		}
		return signed
	}
	return medication.ImageURLs{
		PrescriptionImageURL: sign(images.PrescriptionImageURL),
		PackageImageURL:      sign(images.PackageImageURL),
		MedicationImageURL:   sign(images.MedicationImageURL),
	}
}

func (s *serviceImpl) loadOwned(ctx context.Context, userID, id string) (*medication.Prescription, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "reminder id is required")
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := prescription.CheckOwner(p, userID); err != nil {
		return nil, err
	}
	return p, nil
}

//Personal.AI order the ending
