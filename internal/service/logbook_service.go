package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/media"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
)

var (
	ErrLogValidation    = errors.New("log entry validation failed")
	ErrPhotoTooLarge    = errors.New("progress photo exceeds the size limit")
	ErrPhotoUnsupported = errors.New("progress photo format is not supported")
)

type ProgressPhoto struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type LogbookService struct {
	logs      ports.LogbookRepository
	storage   ports.ObjectStorage
	processor media.Processor

	bucket        string
	publicBase    string
	maxPhotoBytes int64
	maxPhotoDim   int

	loc *time.Location
	now func() time.Time
}

func NewLogbookService(
	logs ports.LogbookRepository,
	storage ports.ObjectStorage,
	processor media.Processor,
	bucket, publicBase, timezone string,
	maxPhotoBytes int64,
	maxPhotoDim int,
) (*LogbookService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 5 * 1024 * 1024
	}
	if maxPhotoDim <= 0 {
		maxPhotoDim = media.DefaultMaxDimension
	}
	return &LogbookService{
		logs:          logs,
		storage:       storage,
		processor:     processor,
		bucket:        strings.TrimSpace(bucket),
		publicBase:    strings.TrimRight(publicBase, "/"),
		maxPhotoBytes: maxPhotoBytes,
		maxPhotoDim:   maxPhotoDim,
		loc:           loc,
		now:           time.Now,
	}, nil
}

func (s *LogbookService) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func (s *LogbookService) resolveDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return s.today(), nil
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", fmt.Errorf("%w: day must be YYYY-MM-DD", ErrLogValidation)
	}
	return day, nil
}

func (s *LogbookService) LogWorkout(ctx context.Context, userID uuid.UUID, log *domain.WorkoutLog) (*domain.WorkoutLog, error) {
	day, err := s.resolveDay(log.Day)
	if err != nil {
		return nil, err
	}
	log.Exercise = strings.TrimSpace(log.Exercise)
	if log.Exercise == "" {
		return nil, fmt.Errorf("%w: exercise is required", ErrLogValidation)
	}
	if log.Sets <= 0 || log.Reps <= 0 {
		return nil, fmt.Errorf("%w: sets and reps must be positive", ErrLogValidation)
	}
	if log.WeightKG != nil && *log.WeightKG < 0 {
		return nil, fmt.Errorf("%w: weight must be non-negative", ErrLogValidation)
	}
	log.UserID = userID
	log.Day = day
	return s.logs.CreateWorkout(ctx, log)
}

func (s *LogbookService) Workouts(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.WorkoutLog, error) {
	fromDay, toDay, err := s.resolveRange(fromDay, toDay)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.logs.ListWorkouts(ctx, userID, fromDay, toDay, limit, offset)
}

func (s *LogbookService) LogNutrition(ctx context.Context, userID uuid.UUID, log *domain.NutritionLog) (*domain.NutritionLog, error) {
	day, err := s.resolveDay(log.Day)
	if err != nil {
		return nil, err
	}
	log.Meal = strings.TrimSpace(log.Meal)
	if log.Meal == "" {
		return nil, fmt.Errorf("%w: meal is required", ErrLogValidation)
	}
	if log.Calories < 0 {
		return nil, fmt.Errorf("%w: calories must be non-negative", ErrLogValidation)
	}
	log.UserID = userID
	log.Day = day
	return s.logs.CreateNutrition(ctx, log)
}

func (s *LogbookService) Nutrition(ctx context.Context, userID uuid.UUID, fromDay, toDay string, limit, offset int) ([]domain.NutritionLog, error) {
	fromDay, toDay, err := s.resolveRange(fromDay, toDay)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.logs.ListNutrition(ctx, userID, fromDay, toDay, limit, offset)
}

// LogProgress records a progress entry, optionally with a photo. The photo is
// decoded and downscaled before it reaches storage so oversized or disguised
// uploads never land in the bucket.
func (s *LogbookService) LogProgress(ctx context.Context, userID uuid.UUID, entry *domain.ProgressEntry, photo *ProgressPhoto) (*domain.ProgressEntry, error) {
	day, err := s.resolveDay(entry.Day)
	if err != nil {
		return nil, err
	}
	if entry.WeightKG == nil && entry.BodyFat == nil && photo == nil && (entry.Notes == nil || strings.TrimSpace(*entry.Notes) == "") {
		return nil, fmt.Errorf("%w: at least one of weight, body fat, notes or photo is required", ErrLogValidation)
	}
	if entry.WeightKG != nil && *entry.WeightKG <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrLogValidation)
	}
	if entry.BodyFat != nil && (*entry.BodyFat < 0 || *entry.BodyFat > 100) {
		return nil, fmt.Errorf("%w: body fat must be between 0 and 100", ErrLogValidation)
	}
	entry.UserID = userID
	entry.Day = day

	var objectKey string
	if photo != nil {
		url, key, err := s.uploadPhoto(ctx, userID, day, photo)
		if err != nil {
			return nil, err
		}
		entry.PhotoURL = &url
		objectKey = key
	}

	created, err := s.logs.CreateProgress(ctx, entry)
	if err != nil {
		if objectKey != "" {
			_ = s.storage.Remove(ctx, s.bucket, objectKey)
		}
		return nil, err
	}
	return created, nil
}

func (s *LogbookService) uploadPhoto(ctx context.Context, userID uuid.UUID, day string, photo *ProgressPhoto) (string, string, error) {
	if photo.Size > s.maxPhotoBytes {
		return "", "", ErrPhotoTooLarge
	}
	result, err := s.processor.Process(ctx, media.Upload{
		Reader:      io.LimitReader(photo.Reader, s.maxPhotoBytes+1),
		Size:        photo.Size,
		FileName:    photo.FileName,
		ContentType: photo.ContentType,
	}, s.maxPhotoDim)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPhotoUnsupported, err)
	}

	ext := ".jpg"
	if result.ContentType == "image/png" {
		ext = ".png"
	}
	objectKey := fmt.Sprintf("progress/%s/%s_%s%s", userID.String(), day, uuid.NewString(), ext)

	url, err := s.storage.Upload(ctx, s.bucket, objectKey, result.ContentType, bytes.NewReader(result.Bytes), int64(len(result.Bytes)))
	if err != nil {
		return "", "", err
	}
	if s.publicBase != "" {
		url = s.publicBase + "/" + strings.TrimLeft(objectKey, "/")
	}
	return url, objectKey, nil
}

func (s *LogbookService) Progress(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ProgressEntry, error) {
	limit, offset = clampPage(limit, offset)
	return s.logs.ListProgress(ctx, userID, limit, offset)
}

func (s *LogbookService) resolveRange(fromDay, toDay string) (string, string, error) {
	fromDay = strings.TrimSpace(fromDay)
	toDay = strings.TrimSpace(toDay)
	if fromDay == "" {
		fromDay = s.now().In(s.loc).AddDate(0, 0, -30).Format("2006-01-02")
	}
	if toDay == "" {
		toDay = s.today()
	}
	for _, day := range []string{fromDay, toDay} {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return "", "", fmt.Errorf("%w: range days must be YYYY-MM-DD", ErrLogValidation)
		}
	}
	if toDay < fromDay {
		fromDay, toDay = toDay, fromDay
	}
	return fromDay, toDay, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
