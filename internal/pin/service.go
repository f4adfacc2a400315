package pin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/junhong-liao/art-club/internal/dto"
)

// Requester is the acting user, resolved from the auth token.
type Requester struct {
	UserID      string
	DisplayName string
	Service     string
}

func (r Requester) Anonymous() bool {
	return r.UserID == ""
}

var ErrInvalidPinID = errors.New("invalid pin id")

// PinLimitError reports a pin creation attempt over the per-user quota.
type PinLimitError struct {
	UserID string
}

func (e *PinLimitError) Error() string {
	return fmt.Sprintf("UserID: %s has reached the pin creation limit - aborted!", e.UserID)
}

const (
	ListModeProfile = "profile"
	ListModeAll     = "all"
)

type Service interface {
	// AddPin creates the pin and kicks off enrichment. The returned channel
	// closes when enrichment (relocation then labeling) has finished; the
	// caller responds with the echoed submission without waiting on it.
	AddPin(ctx context.Context, requester Requester, sub dto.PinSubmission) (Pin, <-chan struct{}, error)
	GetPins(ctx context.Context, requester Requester, mode string) ([]dto.FilteredPin, error)
	DeletePinOrUnsave(ctx context.Context, requester Requester, id string) (Pin, error)
	// SavePin returns (nil, nil) when the save is a benign no-op: the
	// requester already saved the pin, or owns it.
	SavePin(ctx context.Context, requester Requester, id string, pinner dto.Pinner) (*Pin, error)
	// GenerateAIImage returns (nil, nil) when there is nothing to do: blank
	// prompt or quota reached. Generation failures degrade to an empty
	// response instead of an error.
	GenerateAIImage(ctx context.Context, requester Requester, description string) (*dto.AIImageResponse, error)
	RunScan(ctx context.Context) error
}

type Options struct {
	PinLimit      int
	AIImageLimit  int
	ProbeClient   *http.Client
	ScanLockTTL   time.Duration
	EnrichTimeout time.Duration
}

type service struct {
	repo      Repository
	relocator Relocator
	labeler   Labeler
	generator ImageGenerator
	producer  EventProducer
	rdb       *redis.Client
	opts      Options
}

// NewService wires the orchestrator. producer and rdb may be nil; events
// and the scan lock are then skipped.
func NewService(repo Repository, relocator Relocator, labeler Labeler, generator ImageGenerator, producer EventProducer, rdb *redis.Client, opts Options) Service {
	if opts.PinLimit <= 0 {
		opts.PinLimit = 10
	}
	if opts.AIImageLimit <= 0 {
		opts.AIImageLimit = 5
	}
	if opts.ProbeClient == nil {
		opts.ProbeClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.ScanLockTTL <= 0 {
		opts.ScanLockTTL = 5 * time.Minute
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = 90 * time.Second
	}

	return &service{
		repo:      repo,
		relocator: relocator,
		labeler:   labeler,
		generator: generator,
		producer:  producer,
		rdb:       rdb,
		opts:      opts,
	}
}

func (s *service) AddPin(ctx context.Context, requester Requester, sub dto.PinSubmission) (Pin, <-chan struct{}, error) {
	if err := ValidateSubmission(sub); err != nil {
		return Pin{}, nil, err
	}

	count, err := s.repo.CountPinsByOwner(ctx, requester.UserID)
	if err != nil {
		return Pin{}, nil, err
	}
	if count >= int64(s.opts.PinLimit) {
		return Pin{}, nil, &PinLimitError{UserID: requester.UserID}
	}

	// Owner id is always the canonical authenticated id, whatever the
	// submission claimed.
	owner := UserInfo{
		ID:      requester.UserID,
		Name:    sub.Owner.Name,
		Service: sub.Owner.Service,
	}
	if owner.Name == "" {
		owner.Name = requester.DisplayName
	}
	if owner.Service == "" {
		owner.Service = requester.Service
	}

	p := Pin{
		Owner:           owner,
		ImgDescription:  sub.ImgDescription,
		ImgLink:         sub.ImgLink,
		OriginalImgLink: sub.ImgLink,
		IsBroken:        false,
		Tags:            []Tag{},
		VisionAPITags:   []string{},
		SavedBy:         []UserInfo{},
		CreatedAt:       time.Now(),
	}

	id, err := s.repo.InsertPin(ctx, p)
	if err != nil {
		return Pin{}, nil, err
	}
	p.ID = id

	log.Printf("%s added pin %s", requester.DisplayName, p.ImgDescription)
	s.publishEvent(PinEvent{
		PinID:       id.Hex(),
		UserID:      requester.UserID,
		Action:      ActionCreated,
		Description: p.ImgDescription,
	})

	done := make(chan struct{})
	go s.enrich(p, done)

	return p, done, nil
}

// enrich is phase two of pin creation: relocate the image into object
// storage, then label the bytes. Every failure here is logged and
// swallowed; the pin stays valid with whatever was submitted.
func (s *service) enrich(p Pin, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("enrichment panic for pin %s: %v", p.ID.Hex(), r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.EnrichTimeout)
	defer cancel()

	// Relocation must finish before labeling: labeling consumes the bytes
	// relocation retrieved.
	res, err := s.relocator.Relocate(ctx, p.ID.Hex(), p.Owner, p.OriginalImgLink)
	if err != nil {
		log.Printf("relocation failed for pin %s: %v", p.ID.Hex(), err)
	} else if _, err := s.repo.UpdatePinFields(ctx, p.ID, bson.M{"imgLink": res.Link}); err != nil {
		log.Printf("imgLink update failed for pin %s: %v", p.ID.Hex(), err)
	}

	// A failed upload still labels the bytes it retrieved; only a failed
	// fetch or decode leaves nothing to label.
	if len(res.Bytes) == 0 {
		return
	}

	labels, err := s.labeler.Label(ctx, res.Bytes, res.ContentType)
	if err != nil {
		log.Printf("labeling failed for pin %s: %v", p.ID.Hex(), err)
		return
	}
	if len(labels) == 0 {
		return
	}

	tags := make([]Tag, 0, len(labels))
	for _, label := range labels {
		tags = append(tags, Tag{Tag: label})
	}
	if _, err := s.repo.UpdatePinFields(ctx, p.ID, bson.M{"tags": tags, "visionApiTags": labels}); err != nil {
		log.Printf("tag update failed for pin %s: %v", p.ID.Hex(), err)
		return
	}

	s.catalogLabels(ctx, labels)
}

// catalogLabels inserts each new label into the tag catalog. Duplicate
// inserts from concurrent labeling are tolerated.
func (s *service) catalogLabels(ctx context.Context, labels []string) {
	for _, label := range labels {
		exists, err := s.repo.HasTag(ctx, label)
		if err != nil {
			log.Printf("tag catalog lookup failed for %q: %v", label, err)
			continue
		}
		if exists {
			continue
		}
		if err := s.repo.InsertTag(ctx, label); err != nil {
			log.Printf("tag catalog insert failed for %q: %v", label, err)
		}
	}
}

func (s *service) GetPins(ctx context.Context, requester Requester, mode string) ([]dto.FilteredPin, error) {
	var pins []Pin

	if mode == ListModeProfile {
		if requester.Anonymous() {
			return []dto.FilteredPin{}, nil
		}

		owned, err := s.repo.FindPinsByOwner(ctx, requester.UserID)
		if err != nil {
			return nil, err
		}
		saved, err := s.repo.FindPinsSavedBy(ctx, requester.UserID)
		if err != nil {
			return nil, err
		}

		seen := make(map[primitive.ObjectID]bool, len(owned))
		for _, p := range owned {
			seen[p.ID] = true
			pins = append(pins, p)
		}
		for _, p := range saved {
			if !seen[p.ID] {
				pins = append(pins, p)
			}
		}
	} else {
		live, err := s.repo.FindLivePins(ctx)
		if err != nil {
			return nil, err
		}
		pins = live
	}

	return filterPins(pins, requester), nil
}

// filterPins projects pins down to what the viewer may see. Raw vision
// labels and the original submitted link stay owner-only.
func filterPins(pins []Pin, viewer Requester) []dto.FilteredPin {
	filtered := make([]dto.FilteredPin, 0, len(pins))
	for _, p := range pins {
		savedBy := make([]string, 0, len(p.SavedBy))
		for _, s := range p.SavedBy {
			savedBy = append(savedBy, s.Name)
		}

		tags := make([]dto.TagEntry, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, dto.TagEntry{Tag: t.Tag})
		}

		owns := !viewer.Anonymous() && p.Owner.ID == viewer.UserID
		fp := dto.FilteredPin{
			ID:             p.ID.Hex(),
			ImgDescription: p.ImgDescription,
			ImgLink:        p.ImgLink,
			Owner:          p.Owner.Name,
			SavedBy:        savedBy,
			Owns:           owns,
			HasSaved:       p.SavedByUser(viewer.UserID),
			Tags:           tags,
			CreatedAt:      p.CreatedAt,
		}
		if owns {
			fp.VisionAPITags = p.VisionAPITags
			fp.OriginalImgLink = p.OriginalImgLink
		}
		filtered = append(filtered, fp)
	}
	return filtered
}

func (s *service) DeletePinOrUnsave(ctx context.Context, requester Requester, id string) (Pin, error) {
	pinID, err := parseObjectID(id)
	if err != nil {
		return Pin{}, ErrInvalidPinID
	}

	p, err := s.repo.FindPinByID(ctx, pinID)
	if err != nil {
		return Pin{}, err
	}

	if p.Owner.ID == requester.UserID {
		removed, err := s.repo.RemovePin(ctx, pinID)
		if err != nil {
			return Pin{}, err
		}
		log.Printf("%s deleted pin %s", requester.DisplayName, removed.ImgDescription)
		s.publishEvent(PinEvent{
			PinID:       id,
			UserID:      requester.UserID,
			Action:      ActionDeleted,
			Description: removed.ImgDescription,
		})
		return removed, nil
	}

	// Non-owners never delete the document; they only drop out of savedBy.
	kept := make([]UserInfo, 0, len(p.SavedBy))
	for _, entry := range p.SavedBy {
		if entry.ID != requester.UserID {
			kept = append(kept, entry)
		}
	}

	updated, err := s.repo.UpdatePinFields(ctx, pinID, bson.M{"savedBy": kept})
	if err != nil {
		return Pin{}, err
	}
	log.Printf("%s unpinned %s", requester.DisplayName, updated.ImgDescription)
	s.publishEvent(PinEvent{
		PinID:       id,
		UserID:      requester.UserID,
		Action:      ActionUnsaved,
		Description: updated.ImgDescription,
	})
	return updated, nil
}

func (s *service) SavePin(ctx context.Context, requester Requester, id string, pinner dto.Pinner) (*Pin, error) {
	pinID, err := parseObjectID(id)
	if err != nil {
		return nil, ErrInvalidPinID
	}

	p, err := s.repo.FindPinByID(ctx, pinID)
	if err != nil {
		return nil, err
	}

	// The owner never appears in savedBy.
	if p.Owner.ID == requester.UserID {
		return nil, nil
	}
	if p.SavedByUser(requester.UserID) {
		log.Printf("%s has the pin - %s already saved", requester.DisplayName, p.ImgDescription)
		return nil, nil
	}

	entry := UserInfo{
		ID:      requester.UserID,
		Name:    pinner.Name,
		Service: pinner.Service,
	}
	if entry.Name == "" {
		entry.Name = requester.DisplayName
	}

	updated, err := s.repo.UpdatePinFields(ctx, pinID, bson.M{"savedBy": append(p.SavedBy, entry)})
	if err != nil {
		return nil, err
	}
	log.Printf("%s pinned %s", requester.DisplayName, updated.ImgDescription)
	s.publishEvent(PinEvent{
		PinID:       id,
		UserID:      requester.UserID,
		Action:      ActionSaved,
		Description: updated.ImgDescription,
	})
	return &updated, nil
}

func (s *service) GenerateAIImage(ctx context.Context, requester Requester, description string) (*dto.AIImageResponse, error) {
	if strings.TrimSpace(description) == "" {
		return nil, nil
	}

	empty := &dto.AIImageResponse{ImgURL: "", Title: "", ID: nil}

	count, err := s.repo.CountAIImagesByOwner(ctx, requester.UserID)
	if err != nil {
		log.Printf("ai image count failed for user %s: %v", requester.UserID, err)
		return empty, nil
	}
	if count >= int64(s.opts.AIImageLimit) {
		return nil, nil
	}

	imgURL, err := s.generator.GenerateImage(ctx, description)
	if err != nil {
		log.Printf("ai image generation failed for user %s: %v", requester.UserID, err)
		return empty, nil
	}

	title, err := s.generator.GenerateTitle(ctx, description)
	if err != nil {
		log.Printf("ai title generation failed for user %s: %v", requester.UserID, err)
		return empty, nil
	}

	rec := AIGenerated{
		ImgURL: imgURL,
		Title:  title,
		Owner: UserInfo{
			ID:      requester.UserID,
			Name:    requester.DisplayName,
			Service: requester.Service,
		},
	}
	id, err := s.repo.InsertAIImage(ctx, rec)
	if err != nil {
		log.Printf("ai image insert failed for user %s: %v", requester.UserID, err)
		return empty, nil
	}

	idHex := id.Hex()
	return &dto.AIImageResponse{ImgURL: imgURL, Title: title, ID: &idHex}, nil
}

// publishEvent is best-effort: failures are logged, and the synchronous
// write delays the caller by at most the 5s timeout.
func (s *service) publishEvent(event PinEvent) {
	if s.producer == nil {
		return
	}
	event.Timestamp = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.producer.SendPinEvent(ctx, event); err != nil {
		log.Printf("pin event publish failed (%s %s): %v", event.Action, event.PinID, err)
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}
