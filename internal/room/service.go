package room

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roomhub/meeting-room-backend/internal/pkg/storage"
)

type CreateRequest struct {
	Code        string
	Name        string
	Type        string
	Capacity    int
	Description string
	Equipment   []string
}

type UpdateRequest struct {
	Name        *string
	Type        *string
	Capacity    *int
	Description *string
	Equipment   *[]string
	IsActive    *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Room, error)
	Delete(ctx context.Context, id string) error
	SaveImage(ctx context.Context, id string, content io.Reader) (*Room, error)
}

type service struct {
	repo      Repository
	files     storage.Storage
	thumbs    *storage.ImageProcessor
	thumbSize int
}

func NewService(repo Repository, files storage.Storage) Service {
	return &service{
		repo:      repo,
		files:     files,
		thumbs:    storage.NewImageProcessor(),
		thumbSize: 640,
	}
}

func validType(t Type) bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, ErrEmptyCode
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if !validType(Type(req.Type)) {
		return nil, ErrInvalidType
	}
	if req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	rm := &Room{
		Code:        req.Code,
		Name:        req.Name,
		Type:        Type(req.Type),
		Capacity:    req.Capacity,
		Description: req.Description,
		Equipment:   req.Equipment,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		rm.Name = *req.Name
	}
	if req.Type != nil {
		if !validType(Type(*req.Type)) {
			return nil, ErrInvalidType
		}
		rm.Type = Type(*req.Type)
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, ErrInvalidCapacity
		}
		rm.Capacity = *req.Capacity
	}
	if req.Description != nil {
		rm.Description = *req.Description
	}
	if req.Equipment != nil {
		rm.Equipment = *req.Equipment
	}
	if req.IsActive != nil {
		rm.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SaveImage stores a resized JPEG for the room and records its path.
func (s *service) SaveImage(ctx context.Context, id string, content io.Reader) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thumb, err := s.thumbs.GenerateThumbnail(content, s.thumbSize, s.thumbSize)
	if err != nil {
		return nil, ErrInvalidImage
	}

	path := fmt.Sprintf("rooms/%s.jpg", rm.ID)
	if err := s.files.Save(ctx, path, thumb); err != nil {
		return nil, fmt.Errorf("save room image failed: %w", err)
	}

	rm.ImagePath = path
	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}
