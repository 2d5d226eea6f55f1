package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/storage"
)

// PODPhotoService stores delivery photos ahead of the POD submission that
// references them.
type PODPhotoService interface {
	UploadPODPhoto(ctx context.Context, orgID, routeID, stopID string, file io.Reader, filename string) (*PODPhoto, error)
	DeletePODPhoto(ctx context.Context, key string) error
}

// PODPhoto is a stored photo. Key addresses it in the storage provider.
type PODPhoto struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type podPhotoService struct {
	routes  RouteLifecycleService
	storage storage.StorageProvider
	maxSize int64
	logger  *logger.Logger
	now     func() time.Time
}

func NewPODPhotoService(routes RouteLifecycleService, provider storage.StorageProvider, maxSize int64, log *logger.Logger) PODPhotoService {
	if log == nil {
		log = logger.Discard()
	}
	return &podPhotoService{
		routes:  routes,
		storage: provider,
		maxSize: maxSize,
		logger:  log,
		now:     time.Now,
	}
}

// UploadPODPhoto downsizes the photo to a JPEG and returns its storage key
// and public URL.
// The stop must belong to a route of the organization.
func (s *podPhotoService) UploadPODPhoto(ctx context.Context, orgID, routeID, stopID string, file io.Reader, filename string) (*PODPhoto, error) {
	if s.storage == nil {
		return nil, errors.New("photo storage is not configured")
	}

	route, err := s.routes.GetRoute(ctx, orgID, routeID)
	if err != nil {
		return nil, err
	}
	if route.FindStop(stopID) < 0 {
		return nil, notFound("stop", stopID)
	}

	if s.maxSize > 0 {
		file = io.LimitReader(file, s.maxSize+1)
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if s.maxSize > 0 && int64(len(raw)) > s.maxSize {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidInput, s.maxSize)
	}

	photo, err := utils.ProcessPhoto(bytes.NewReader(raw), utils.MaxPhotoDimension, utils.PhotoJPEGQuality)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to process photo: %w", err)
	}

	key := fmt.Sprintf("pod/%s/%s/%s-%d.jpg", orgID, routeID, stopID, s.now().Unix())
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(photo),
		ContentType:  "image/jpeg",
		Size:         int64(len(photo)),
		CacheControl: "public, max-age=31536000",
		Metadata: map[string]string{
			"organization_id": orgID,
			"route_id":        routeID,
			"stop_id":         stopID,
			"filename":        filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	s.logger.WithContext(ctx).WithRouteID(routeID).WithFields(map[string]interface{}{
		"stop_id": stopID,
		"key":     key,
		"bytes":   len(photo),
	}).Info("POD photo stored")
	return &PODPhoto{Key: key, URL: resp.URL}, nil
}

// DeletePODPhoto removes a stored photo that no POD ended up referencing.
func (s *podPhotoService) DeletePODPhoto(ctx context.Context, key string) error {
	if s.storage == nil {
		return errors.New("photo storage is not configured")
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", key, err)
	}
	return nil
}
