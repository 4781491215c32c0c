package room

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	rooms map[string]*Room
	codes map[string]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rooms: make(map[string]*Room), codes: make(map[string]bool)}
}

func (r *fakeRepository) Create(_ context.Context, rm *Room) error {
	if r.codes[rm.Code] {
		return ErrCodeTaken
	}
	rm.ID = uuid.NewString()
	stored := *rm
	r.rooms[rm.ID] = &stored
	r.codes[rm.Code] = true
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Room, error) {
	rm, ok := r.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r *fakeRepository) List(_ context.Context, filter Filter) ([]*Room, int, error) {
	var out []*Room
	for _, rm := range r.rooms {
		if filter.Type != "" && string(rm.Type) != filter.Type {
			continue
		}
		if filter.IsActive != nil && rm.IsActive != *filter.IsActive {
			continue
		}
		cp := *rm
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeRepository) Update(_ context.Context, rm *Room) error {
	if _, ok := r.rooms[rm.ID]; !ok {
		return ErrNotFound
	}
	stored := *rm
	r.rooms[rm.ID] = &stored
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	rm, ok := r.rooms[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.codes, rm.Code)
	delete(r.rooms, id)
	return nil
}

type fakeStorage struct {
	saved map[string][]byte
}

func (s *fakeStorage) Save(_ context.Context, path string, content io.Reader) error {
	b, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[path] = b
	return nil
}

func (s *fakeStorage) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := s.saved[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	delete(s.saved, path)
	return nil
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository(), &fakeStorage{})

	t.Run("valid room", func(t *testing.T) {
		rm, err := svc.Create(ctx, CreateRequest{
			Code: "A-101", Name: "Aurora", Type: "small", Capacity: 4,
			Equipment: []string{"whiteboard", "display"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rm.ID)
		assert.True(t, rm.IsActive)
		assert.Equal(t, TypeSmall, rm.Type)
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{Code: "A-101", Name: "Copy", Type: "small", Capacity: 4})
		assert.ErrorIs(t, err, ErrCodeTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRequest{Code: " ", Name: "X", Type: "small", Capacity: 4})
		assert.ErrorIs(t, err, ErrEmptyCode)

		_, err = svc.Create(ctx, CreateRequest{Code: "B-1", Name: "  ", Type: "small", Capacity: 4})
		assert.ErrorIs(t, err, ErrEmptyName)

		_, err = svc.Create(ctx, CreateRequest{Code: "B-1", Name: "X", Type: "huge", Capacity: 4})
		assert.ErrorIs(t, err, ErrInvalidType)

		_, err = svc.Create(ctx, CreateRequest{Code: "B-1", Name: "X", Type: "small", Capacity: 0})
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})
}

func TestUpdateRoom(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository(), &fakeStorage{})

	rm, err := svc.Create(ctx, CreateRequest{Code: "A-101", Name: "Aurora", Type: "small", Capacity: 4})
	require.NoError(t, err)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		capacity := 6
		updated, err := svc.Update(ctx, rm.ID, UpdateRequest{Capacity: &capacity})
		require.NoError(t, err)
		assert.Equal(t, 6, updated.Capacity)
		assert.Equal(t, "Aurora", updated.Name)
	})

	t.Run("deactivate", func(t *testing.T) {
		inactive := false
		updated, err := svc.Update(ctx, rm.ID, UpdateRequest{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		empty := " "
		_, err := svc.Update(ctx, rm.ID, UpdateRequest{Name: &empty})
		assert.ErrorIs(t, err, ErrEmptyName)

		zero := 0
		_, err = svc.Update(ctx, rm.ID, UpdateRequest{Capacity: &zero})
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})

	t.Run("unknown room", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.Update(ctx, "missing", UpdateRequest{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSaveRoomImage(t *testing.T) {
	ctx := context.Background()
	files := &fakeStorage{}
	svc := NewService(newFakeRepository(), files)

	rm, err := svc.Create(ctx, CreateRequest{Code: "A-101", Name: "Aurora", Type: "small", Capacity: 4})
	require.NoError(t, err)

	t.Run("stores thumbnail and records path", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))

		updated, err := svc.SaveImage(ctx, rm.ID, &buf)
		require.NoError(t, err)
		assert.Equal(t, "rooms/"+rm.ID+".jpg", updated.ImagePath)
		assert.NotEmpty(t, files.saved[updated.ImagePath])
	})

	t.Run("garbage input rejected", func(t *testing.T) {
		_, err := svc.SaveImage(ctx, rm.ID, bytes.NewReader([]byte("not an image")))
		assert.ErrorIs(t, err, ErrInvalidImage)
	})
}
