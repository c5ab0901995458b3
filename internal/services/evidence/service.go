package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
)

var ErrValidation = errors.New("validation error")

const (
	defaultSignedURLTTL = 5 * time.Minute
	maxFileNameRunes    = 120
)

type Store interface {
	CreateEvidence(ctx context.Context, in model.EvidenceFile) (model.EvidenceFile, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.EvidenceFile, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
	Concurrency  int
	SignedURLTTL time.Duration
}

// Upload is one attached file. Open is called at most once, from the upload worker.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type Failure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

type Result struct {
	Attached []model.EvidenceFile
	Failed   []Failure
}

type File struct {
	model.EvidenceFile
	URL string `json:"url,omitempty"`
}

type Service struct {
	store   Store
	storage ObjectStorage
	limits  Limits
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, storage ObjectStorage, limits Limits, log *zap.Logger) *Service {
	if limits.Concurrency <= 0 {
		limits.Concurrency = 1
	}
	if limits.SignedURLTTL <= 0 {
		limits.SignedURLTTL = defaultSignedURLTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		storage: storage,
		limits:  limits,
		log:     log,
		now:     time.Now,
	}
}

// Validate checks the batch before anything is persisted.
func (s *Service) Validate(uploads []Upload) error {
	if s.limits.MaxFiles >= 0 && len(uploads) > s.limits.MaxFiles {
		return validate.Field("files", fmt.Sprintf("You can attach at most %d files", s.limits.MaxFiles))
	}
	for _, u := range uploads {
		name := strings.TrimSpace(u.FileName)
		if name == "" {
			name = "file"
		}
		if u.Size <= 0 {
			return validate.Field("files", fmt.Sprintf("%s is empty", name))
		}
		if s.limits.MaxFileBytes > 0 && u.Size > s.limits.MaxFileBytes {
			return validate.Field("files", fmt.Sprintf("%s exceeds the %d MB limit", name, s.limits.MaxFileBytes>>20))
		}
		if u.Open == nil {
			return validate.Field("files", fmt.Sprintf("%s could not be read", name))
		}
	}
	return nil
}

// AttachAll uploads every file with bounded parallelism. One failed file never cancels the others.
func (s *Service) AttachAll(ctx context.Context, caseID uuid.UUID, uploads []Upload) (Result, error) {
	if caseID == uuid.Nil {
		return Result{}, ErrValidation
	}
	if len(uploads) == 0 {
		return Result{Attached: []model.EvidenceFile{}, Failed: []Failure{}}, nil
	}
	if s.store == nil || s.storage == nil {
		return Result{}, fmt.Errorf("evidence dependencies are not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		s.log.Error("evidence bucket unavailable", zap.Error(err))
		failed := make([]Failure, 0, len(uploads))
		for _, u := range uploads {
			failed = append(failed, Failure{FileName: u.FileName, Reason: "storage unavailable"})
		}
		return Result{Attached: []model.EvidenceFile{}, Failed: failed}, nil
	}

	keys := objectKeys(caseID, s.now(), uploads)
	attached := make([]*model.EvidenceFile, len(uploads))
	failures := make([]*Failure, len(uploads))

	var (
		eg errgroup.Group
		mu sync.Mutex
	)
	eg.SetLimit(s.limits.Concurrency)
	for i, u := range uploads {
		i, u := i, u
		eg.Go(func() error {
			rec, reason := s.attachOne(ctx, caseID, keys[i], u)
			mu.Lock()
			defer mu.Unlock()
			if reason != "" {
				failures[i] = &Failure{FileName: u.FileName, Reason: reason}
				return nil
			}
			attached[i] = &rec
			return nil
		})
	}
	_ = eg.Wait()

	out := Result{Attached: make([]model.EvidenceFile, 0, len(uploads)), Failed: make([]Failure, 0)}
	for i := range uploads {
		if attached[i] != nil {
			out.Attached = append(out.Attached, *attached[i])
		}
		if failures[i] != nil {
			out.Failed = append(out.Failed, *failures[i])
		}
	}
	return out, nil
}

func (s *Service) attachOne(ctx context.Context, caseID uuid.UUID, key string, u Upload) (model.EvidenceFile, string) {
	body, err := u.Open()
	if err != nil {
		s.log.Warn("open evidence file", zap.String("file_name", u.FileName), zap.Error(err))
		return model.EvidenceFile{}, "could not read file"
	}
	defer func() { _ = body.Close() }()

	contentType := strings.TrimSpace(u.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.Put(ctx, key, body, u.Size, contentType); err != nil {
		s.log.Warn("upload evidence file", zap.String("case_id", caseID.String()), zap.String("key", key), zap.Error(err))
		return model.EvidenceFile{}, "upload failed"
	}

	rec, err := s.store.CreateEvidence(ctx, model.EvidenceFile{
		CaseID:    caseID,
		FilePath:  key,
		FileType:  contentType,
		FileName:  u.FileName,
		SizeBytes: u.Size,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn("delete orphaned evidence object", zap.String("key", key), zap.Error(delErr))
		}
		s.log.Warn("record evidence file", zap.String("case_id", caseID.String()), zap.Error(err))
		return model.EvidenceFile{}, "could not record file"
	}
	return rec, ""
}

func (s *Service) ListForCase(ctx context.Context, caseID uuid.UUID) ([]File, error) {
	if caseID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return nil, fmt.Errorf("evidence dependencies are not configured")
	}

	records, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list evidence records: %w", err)
	}

	files := make([]File, 0, len(records))
	for _, rec := range records {
		url, err := s.storage.PresignGet(ctx, rec.FilePath, s.limits.SignedURLTTL)
		if err != nil {
			return nil, fmt.Errorf("presign evidence url: %w", err)
		}
		files = append(files, File{EvidenceFile: rec, URL: url})
	}

	return files, nil
}

// objectKeys builds evidence/<case>/<unix_millis>_<name>; repeated names in one batch get a numeric suffix.
func objectKeys(caseID uuid.UUID, at time.Time, uploads []Upload) []string {
	stamp := strconv.FormatInt(at.UTC().UnixMilli(), 10)
	seen := make(map[string]int, len(uploads))
	keys := make([]string, len(uploads))
	for i, u := range uploads {
		name := SanitizeFileName(u.FileName)
		seen[name]++
		if n := seen[name]; n > 1 {
			ext := path.Ext(name)
			name = strings.TrimSuffix(name, ext) + "-" + strconv.Itoa(n) + ext
		}
		keys[i] = "evidence/" + caseID.String() + "/" + stamp + "_" + name
	}
	return keys
}

// SanitizeFileName keeps ASCII letters, digits, dot, dash and underscore.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if runes := []rune(out); len(runes) > maxFileNameRunes {
		out = string(runes[len(runes)-maxFileNameRunes:])
	}
	return out
}
