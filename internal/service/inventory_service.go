package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/vbonduro/restock/internal/adjust"
	"github.com/vbonduro/restock/internal/cache"
	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/form"
	"github.com/vbonduro/restock/internal/imagestore"
	"github.com/vbonduro/restock/internal/listview"
	"github.com/vbonduro/restock/internal/repository"
	"github.com/vbonduro/restock/internal/vision"
)

// ImageURLPrefix is the path stored images are served under. Item images
// starting with it are owned by the image store.
const ImageURLPrefix = "/images/"

// ErrVisionUnavailable is returned by Suggest when no vision backend is configured.
var ErrVisionUnavailable = errors.New("vision backend not configured")

// Upload is an image received with a form submit.
type Upload struct {
	Data     []byte
	MIMEType string
}

// InventoryService applies every mutation to the repository and then
// refetches the whole collection into the cache. Mutations are serialized.
type InventoryService struct {
	repo      repository.Repository
	cache     *cache.Cache
	suggester vision.Suggester
	images    imagestore.ImageStore
	logger    *slog.Logger

	mu sync.Mutex
}

// NewInventoryService wires the service. suggester may be nil.
func NewInventoryService(
	repo repository.Repository,
	itemCache *cache.Cache,
	suggester vision.Suggester,
	images imagestore.ImageStore,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		repo:      repo,
		cache:     itemCache,
		suggester: suggester,
		images:    images,
		logger:    logger,
	}
}

// Refresh refetches c and replaces its cached items. On error the cache is
// left as it was.
func (s *InventoryService) Refresh(ctx context.Context, c domain.Collection) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx, c)
}

func (s *InventoryService) refresh(ctx context.Context, c domain.Collection) ([]domain.Item, error) {
	recs, err := s.repo.List(ctx, c)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "list", Collection: c, Err: err}
	}
	items := repository.ToItems(c, recs)
	s.cache.Replace(c, items)
	s.logger.Debug("collection refreshed", "collection", c, "items", len(items))
	return items, nil
}

// Items returns the cached items of c, fetching them on first use.
func (s *InventoryService) Items(ctx context.Context, c domain.Collection) ([]domain.Item, error) {
	if items, ok := s.cache.Snapshot(c); ok {
		return items, nil
	}
	return s.Refresh(ctx, c)
}

// items is Items for callers already holding s.mu.
func (s *InventoryService) items(ctx context.Context, c domain.Collection) ([]domain.Item, error) {
	if items, ok := s.cache.Snapshot(c); ok {
		return items, nil
	}
	return s.refresh(ctx, c)
}

// refreshAfterWrite refetches c once a write has landed. The write stands
// even if the refetch fails; the cached copy is then dropped so the next
// read fetches again instead of serving what the write replaced.
func (s *InventoryService) refreshAfterWrite(ctx context.Context, c domain.Collection) {
	if _, err := s.refresh(ctx, c); err != nil {
		s.cache.Invalidate(c)
		s.logger.Error("refetch after write failed", "collection", c, "error", err)
	}
}

// View builds the list state for a page request with pages loaded.
func (s *InventoryService) View(ctx context.Context, c domain.Collection, f listview.Filter, sort listview.Sort, pages int) (listview.State, error) {
	items, err := s.Items(ctx, c)
	if err != nil {
		return listview.State{}, err
	}
	st := listview.New(c, items).WithFilter(f).WithSort(sort)
	for i := 1; i < pages && st.HasMore(); i++ {
		st = st.LoadMore()
	}
	return st, nil
}

// Get returns the cached item with id.
func (s *InventoryService) Get(ctx context.Context, c domain.Collection, id string) (domain.Item, error) {
	if _, err := s.Items(ctx, c); err != nil {
		return domain.Item{}, err
	}
	item, ok := s.cache.Find(c, id)
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return item, nil
}

// Export returns the whole collection in canonical order.
func (s *InventoryService) Export(ctx context.Context, c domain.Collection) ([]domain.Item, error) {
	items, err := s.Items(ctx, c)
	if err != nil {
		return nil, err
	}
	return listview.Canonical(items), nil
}

func validateItem(item domain.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if item.CurrentQuantity < 0 {
		return domain.NewValidationError("current_quantity", "must not be negative")
	}
	if item.CurrentQuantity > domain.MaxQuantity {
		return domain.NewValidationError("current_quantity", fmt.Sprintf("must be at most %d", domain.MaxQuantity))
	}
	if item.ReorderPoint < 0 {
		return domain.NewValidationError("reorder_point", "must not be negative")
	}
	if item.ReorderPoint > domain.MaxQuantity {
		return domain.NewValidationError("reorder_point", fmt.Sprintf("must be at most %d", domain.MaxQuantity))
	}
	return nil
}

// Submit persists a form request. When upload is non-nil the image is stored
// first and replaces the item's image; it is removed again if the write fails.
func (s *InventoryService) Submit(ctx context.Context, c domain.Collection, req form.Request, upload *Upload) error {
	item := req.Item
	if err := validateItem(item); err != nil {
		return err
	}
	if req.Op == form.OpUpdate && item.ID == "" {
		return domain.NewValidationError("id", "is required for update")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var previousImage, newKey string
	if req.Op == form.OpUpdate {
		if prev, ok := s.cache.Find(c, item.ID); ok {
			previousImage = prev.Image
		}
	}
	if upload != nil {
		key, err := s.images.Save(ctx, string(c), upload.MIMEType, bytes.NewReader(upload.Data))
		if err != nil {
			if errors.Is(err, imagestore.ErrTooLarge) {
				return domain.NewValidationError("image", err.Error())
			}
			return fmt.Errorf("failed to save image: %w", err)
		}
		newKey = key
		item.Image = ImageURLPrefix + key
		s.logger.Debug("image saved", "collection", c, "storage_key", key)
	}

	var err error
	switch req.Op {
	case form.OpCreate:
		err = s.repo.Insert(ctx, c, repository.FromItem(c, item))
	case form.OpUpdate:
		err = s.repo.Update(ctx, c, item.ID, repository.FromItem(c, item))
	default:
		err = fmt.Errorf("unknown form op %q", req.Op)
	}
	if err != nil {
		if newKey != "" {
			s.discardImage(ctx, newKey)
		}
		return &domain.RepositoryError{Op: string(req.Op), Collection: c, Err: err}
	}
	if req.Op == form.OpUpdate {
		s.logger.Info("item saved", "collection", c, "op", req.Op, "id", item.ID, "name", item.Name)
	} else {
		s.logger.Info("item saved", "collection", c, "op", req.Op, "name", item.Name)
	}

	if previousImage != "" && previousImage != item.Image {
		s.discardImageURL(ctx, previousImage)
	}

	s.refreshAfterWrite(ctx, c)
	return nil
}

// Delete removes an item and its stored image.
func (s *InventoryService) Delete(ctx context.Context, c domain.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.cache.Find(c, id)
	if err := s.repo.Delete(ctx, c, id); err != nil {
		return &domain.RepositoryError{Op: "delete", Collection: c, Err: err}
	}
	s.logger.Info("item deleted", "collection", c, "id", id)

	if hadPrev {
		s.discardImageURL(ctx, prev.Image)
	}

	s.refreshAfterWrite(ctx, c)
	return nil
}

// AdjustQuantity applies req to the cached quantity of the item, writes only
// the quantity field, and refetches. It returns the persisted quantity. The
// read and the write happen under s.mu, so concurrent adjustments of the same
// item each see the previous one's result.
func (s *InventoryService) AdjustQuantity(ctx context.Context, c domain.Collection, req adjust.Request) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.items(ctx, c); err != nil {
		return 0, err
	}
	item, ok := s.cache.Find(c, req.ItemID)
	if !ok {
		return 0, domain.ErrNotFound
	}

	quantity, err := req.Apply(item.CurrentQuantity)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Update(ctx, c, item.ID, repository.QuantityPatch(quantity)); err != nil {
		return 0, &domain.RepositoryError{Op: "update", Collection: c, Err: err}
	}
	s.logger.Info("quantity adjusted",
		"collection", c, "id", item.ID, "direction", req.Direction,
		"delta", req.Delta, "from", item.CurrentQuantity, "to", quantity)

	s.refreshAfterWrite(ctx, c)
	return quantity, nil
}

// CanSuggest reports whether a vision backend is configured.
func (s *InventoryService) CanSuggest() bool {
	return s.suggester != nil
}

// Suggest asks the vision backend for draft fields for a product photo.
func (s *InventoryService) Suggest(ctx context.Context, r io.Reader, mimeType string) (*vision.Suggestion, error) {
	if s.suggester == nil {
		return nil, ErrVisionUnavailable
	}
	s.logger.Info("vision suggestion started", "mime_type", mimeType)
	suggestion, err := s.suggester.Suggest(ctx, r, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest item: %w", err)
	}
	s.logger.Info("vision suggestion complete", "name", suggestion.Name, "category", suggestion.Category)
	return suggestion, nil
}

// Image opens a stored image.
func (s *InventoryService) Image(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.images.Get(ctx, key)
}

func (s *InventoryService) discardImageURL(ctx context.Context, url string) {
	if key, ok := strings.CutPrefix(url, ImageURLPrefix); ok && key != "" {
		s.discardImage(ctx, key)
	}
}

func (s *InventoryService) discardImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil && !errors.Is(err, imagestore.ErrNotFound) {
		s.logger.Error("failed to delete stored image", "storage_key", key, "error", err)
	}
}
