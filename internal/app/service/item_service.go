package service

import (
	"context"
	"fmt"

	"stashbox/internal/common"
	"stashbox/internal/domain/model"
	"stashbox/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ItemCache is the read-through cache in front of the item store. A miss is
// (nil, nil). The service treats cache failures as misses; postgres stays the
// source of truth.
type ItemCache interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	SetItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id string) error
}

type ItemService struct {
	itemRepo repository.ItemRepository
	cache    ItemCache // may be nil
}

func NewItemService(itemRepo repository.ItemRepository, cache ItemCache) *ItemService {
	return &ItemService{itemRepo: itemRepo, cache: cache}
}

type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

type UpdateItemRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID string, req CreateItemRequest) (*model.Item, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrBadRequest)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	item := &model.Item{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Tags:        tags,
		OwnerID:     ownerID,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// GetItem fetches an item for its owner. A missing item and someone else's
// item are both ErrNotFound; the caller can never tell which.
func (s *ItemService) GetItem(ctx context.Context, ownerID, itemID string) (*model.Item, error) {
	if item := s.cacheGet(ctx, itemID); item != nil {
		if item.OwnerID != ownerID {
			return nil, common.ErrNotFound
		}
		return item, nil
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	s.cacheSet(ctx, item)
	return item, nil
}

func (s *ItemService) ListItems(ctx context.Context, ownerID string, limit int) ([]model.Item, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := s.itemRepo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// UpdateItem applies the supplied fields only. With no fields supplied the
// stored row is returned untouched and no write happens. The ownership rule
// is the same as GetItem's.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID string, req UpdateItemRequest) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}

	updated := false
	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", common.ErrBadRequest)
		}
		item.Title = *req.Title
		item.Slug = slug.Make(*req.Title)
		updated = true
	}
	if req.Description != nil {
		item.Description = req.Description
		updated = true
	}
	if req.Tags != nil {
		item.Tags = *req.Tags
		updated = true
	}
	if !updated {
		return item, nil
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	s.cacheDelete(ctx, itemID)
	return item, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return common.ErrNotFound
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	s.cacheDelete(ctx, itemID)
	return nil
}

func (s *ItemService) cacheGet(ctx context.Context, id string) *model.Item {
	if s.cache == nil {
		return nil
	}
	item, err := s.cache.GetItem(ctx, id)
	if err != nil {
		return nil
	}
	return item
}

func (s *ItemService) cacheSet(ctx context.Context, item *model.Item) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetItem(ctx, item)
}

func (s *ItemService) cacheDelete(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeleteItem(ctx, id)
}
