package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

// Coordinator runs the two-phase upload protocol and finalizes the listing.
type Coordinator struct {
	gateway     ports.Gateway
	uploader    ports.ObjectUploader
	finalizer   ports.WorkflowOrchestrator
	idempotency ports.IdempotencyStore
	newID       func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithIDGenerator overrides how new listing ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithIdempotencyStore lets retried creates reuse the listing id of the first attempt.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(c *Coordinator) {
		c.idempotency = store
	}
}

// NewCoordinator wires the facade, the object uploader and the finalizer.
func NewCoordinator(gateway ports.Gateway, uploader ports.ObjectUploader, finalizer ports.WorkflowOrchestrator, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:   gateway,
		uploader:  uploader,
		finalizer: finalizer,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type plannedFile struct {
	objectName string
	file       domain.ImageFile
}

// Submit uploads the selected images and persists the listing. Any failure
// after validation is reported as one SubmissionError and nothing is persisted.
func (c *Coordinator) Submit(ctx context.Context, req listingtypes.SubmitRequest) (*listingtypes.FinalizeResult, error) {
	if c == nil || c.gateway == nil || c.uploader == nil || c.finalizer == nil {
		return nil, errors.New("listing coordinator not configured")
	}
	submission := req.Submission
	listing := submission.Draft.Clone()

	listingID, err := c.resolveListingID(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	listing.ID = listingID

	main, additional, err := planFiles(submission, listingID)
	if err != nil {
		return nil, mapError(err)
	}
	if submission.Mode == form.ModeCreate && main == nil {
		return nil, mapError(fmt.Errorf("%w: %w", form.ErrValidation, domain.ErrMissingMainImage))
	}

	if main != nil || len(additional) > 0 {
		if err := c.transfer(ctx, &listing, main, additional); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, submissionFailed(StageFinalize, listingID, err)
	}
	result, err := c.finalizer.FinalizeListing(ctx, listingtypes.FinalizeCommand{
		Mode:           submission.Mode,
		Listing:        listing,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, submissionFailed(StageFinalize, listingID, err)
	}
	return result, nil
}

func (c *Coordinator) transfer(ctx context.Context, listing *domain.Listing, main *plannedFile, additional []plannedFile) error {
	request := listingtypes.UploadTargetRequest{ListingID: listing.ID, Filenames: make([]string, 0, len(additional))}
	if main != nil {
		request.MainImage = main.objectName
	}
	for _, planned := range additional {
		request.Filenames = append(request.Filenames, planned.objectName)
	}

	targets, err := c.gateway.GenerateUploadTargets(ctx, request)
	if err != nil {
		return submissionFailed(StageUploadTargets, listing.ID, err)
	}
	if err := checkTargets(targets, main, additional); err != nil {
		return submissionFailed(StageUploadTargets, listing.ID, err)
	}

	if main != nil {
		if err := ctx.Err(); err != nil {
			return submissionFailed(StageTransfer, listing.ID, err)
		}
		if err := c.uploader.Put(ctx, targets[listingtypes.MainImageKey].UploadURL, main.file); err != nil {
			return submissionFailed(StageTransfer, listing.ID, err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, planned := range additional {
		target := targets[planned.objectName]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if err := c.uploader.Put(groupCtx, target.UploadURL, planned.file); err != nil {
				return fmt.Errorf("upload %s: %w", planned.objectName, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return submissionFailed(StageTransfer, listing.ID, err)
	}

	if main != nil {
		listing.MainImageURL = targets[listingtypes.MainImageKey].FileURL
	}
	if len(additional) > 0 {
		gallery := make([]string, 0, len(additional))
		for _, planned := range additional {
			gallery = append(gallery, targets[planned.objectName].FileURL)
		}
		listing.Images = gallery
	}
	return nil
}

func (c *Coordinator) resolveListingID(ctx context.Context, req listingtypes.SubmitRequest) (string, error) {
	submission := req.Submission
	if id := strings.TrimSpace(submission.Draft.ID); id != "" {
		return id, nil
	}
	if submission.Mode == form.ModeEdit {
		return "", ErrMissingListingID
	}
	if id := strings.TrimSpace(req.ListingID); id != "" {
		return id, nil
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || c.idempotency == nil {
		return c.newID(), nil
	}
	fingerprint, err := FingerprintSubmission(submission)
	if err != nil {
		return "", err
	}
	existing, err := c.idempotency.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if existing.RequestHash != fingerprint {
			return "", ports.ErrIdempotencyConflict
		}
		return existing.ListingID, nil
	}
	saved, err := c.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: fingerprint, ListingID: c.newID()})
	if err != nil {
		return "", err
	}
	return saved.ListingID, nil
}

func planFiles(submission form.Submission, listingID string) (*plannedFile, []plannedFile, error) {
	seen := map[string]bool{listingtypes.MainImageKey: true}
	var main *plannedFile
	if submission.MainImage != nil {
		name := objectName(submission.MainImage.Name, "main.jpg")
		main = &plannedFile{objectName: name, file: *submission.MainImage}
		seen[name] = true
	}
	additional := make([]plannedFile, 0, len(submission.AdditionalImages))
	for i, file := range submission.AdditionalImages {
		name := objectName(file.Name, fmt.Sprintf("image-%d.jpg", i+1))
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateFilename, name)
		}
		seen[name] = true
		additional = append(additional, plannedFile{objectName: name, file: file})
	}
	if submission.Mode == form.ModeEdit {
		if err := checkKeptImages(submission.Draft, listingID, main, additional); err != nil {
			return nil, nil, err
		}
	}
	return main, additional, nil
}

// checkKeptImages rejects new files that would land on the object of an image
// reference the edit keeps, since uploads share the listing's object prefix.
func checkKeptImages(draft domain.Listing, listingID string, main *plannedFile, additional []plannedFile) error {
	var kept []string
	if main == nil && draft.MainImageURL != "" {
		kept = append(kept, draft.MainImageURL)
	}
	if len(additional) == 0 {
		kept = append(kept, draft.Images...)
	}
	names := map[string]bool{}
	for _, ref := range kept {
		if name, ok := listingObjectName(ref, listingID); ok {
			names[name] = true
		}
	}
	planned := additional
	if main != nil {
		planned = append([]plannedFile{*main}, additional...)
	}
	for _, p := range planned {
		if names[p.objectName] {
			return fmt.Errorf("%w: %q", ErrOverwritesKeptImage, p.objectName)
		}
	}
	return nil
}

// listingObjectName returns the file name of ref when it lives under the listing's prefix.
func listingObjectName(ref, listingID string) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	dir, name := path.Split(parsed.Path)
	if name == "" || path.Base(strings.TrimSuffix(dir, "/")) != listingID {
		return "", false
	}
	return name, true
}

func checkTargets(targets listingtypes.UploadTargets, main *plannedFile, additional []plannedFile) error {
	if main != nil {
		if t, ok := targets[listingtypes.MainImageKey]; !ok || t.UploadURL == "" {
			return fmt.Errorf("%w: %s", ErrMissingUploadTarget, listingtypes.MainImageKey)
		}
	}
	for _, planned := range additional {
		if t, ok := targets[planned.objectName]; !ok || t.UploadURL == "" {
			return fmt.Errorf("%w: %s", ErrMissingUploadTarget, planned.objectName)
		}
	}
	return nil
}

// objectName keeps only the base name so a filename cannot escape the listing prefix.
func objectName(name, fallback string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return base
}

var _ ports.Coordinator = (*Coordinator)(nil)
