package evidence

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu      sync.Mutex
	records []model.EvidenceFile
	failFor string
}

func (f *fakeStore) CreateEvidence(_ context.Context, in model.EvidenceFile) (model.EvidenceFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor != "" && in.FileName == f.failFor {
		return model.EvidenceFile{}, errors.New("insert failed")
	}
	in.ID = uuid.New()
	in.CreatedAt = time.Now().UTC()
	f.records = append(f.records, in)
	return in, nil
}

func (f *fakeStore) ListByCase(_ context.Context, caseID uuid.UUID) ([]model.EvidenceFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.EvidenceFile, 0, len(f.records))
	for _, r := range f.records {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	puts      []string
	deletes   []string
	failPut   string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxFlight.Load()
		if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	if f.failPut != "" && strings.HasSuffix(key, f.failPut) {
		return errors.New("s3 timeout")
	}

	f.mu.Lock()
	f.puts = append(f.puts, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return nil
}

func upload(name, body string) Upload {
	return Upload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newTestService(store Store, storage ObjectStorage, concurrency int) *Service {
	svc := NewService(store, storage, Limits{MaxFiles: 5, MaxFileBytes: 10 << 20, Concurrency: concurrency}, nil)
	svc.now = func() time.Time { return time.UnixMilli(1710460800123) }
	return svc
}

func TestAttachAllPartialFailureDoesNotCancelOthers(t *testing.T) {
	store := &fakeStore{}
	storage := &fakeStorage{failPut: "b.jpg"}
	svc := newTestService(store, storage, 5)
	caseID := uuid.New()

	res, err := svc.AttachAll(context.Background(), caseID, []Upload{
		upload("a.jpg", "aaa"),
		upload("b.jpg", "bbb"),
		upload("c.jpg", "ccc"),
	})
	if err != nil {
		t.Fatalf("attach all: %v", err)
	}
	if len(res.Attached) != 2 {
		t.Fatalf("unexpected attached count: got %d want %d", len(res.Attached), 2)
	}
	if len(res.Failed) != 1 || res.Failed[0].FileName != "b.jpg" || res.Failed[0].Reason != "upload failed" {
		t.Fatalf("unexpected failures: %+v", res.Failed)
	}
	if res.Attached[0].FileName != "a.jpg" || res.Attached[1].FileName != "c.jpg" {
		t.Fatalf("attached files must keep submission order: %+v", res.Attached)
	}
}

func TestAttachAllDeletesBlobWhenRecordFails(t *testing.T) {
	store := &fakeStore{failFor: "a.jpg"}
	storage := &fakeStorage{}
	svc := newTestService(store, storage, 2)
	caseID := uuid.New()

	res, err := svc.AttachAll(context.Background(), caseID, []Upload{upload("a.jpg", "aaa")})
	if err != nil {
		t.Fatalf("attach all: %v", err)
	}
	if len(res.Attached) != 0 || len(res.Failed) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := "evidence/" + caseID.String() + "/1710460800123_a.jpg"
	if len(storage.deletes) != 1 || storage.deletes[0] != want {
		t.Fatalf("unexpected deletes: got %v want [%s]", storage.deletes, want)
	}
}

func TestAttachAllRespectsConcurrencyLimit(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(&fakeStore{}, storage, 2)

	uploads := []Upload{upload("1.jpg", "x"), upload("2.jpg", "x"), upload("3.jpg", "x"), upload("4.jpg", "x"), upload("5.jpg", "x")}
	if _, err := svc.AttachAll(context.Background(), uuid.New(), uploads); err != nil {
		t.Fatalf("attach all: %v", err)
	}
	if got := storage.maxFlight.Load(); got > 2 {
		t.Fatalf("concurrency limit exceeded: got %d want <= 2", got)
	}
	if len(storage.puts) != 5 {
		t.Fatalf("unexpected put count: got %d want 5", len(storage.puts))
	}
}

func TestObjectKeysDeduplicateNames(t *testing.T) {
	caseID := uuid.MustParse("0b6f1f7e-3c1a-4a8e-9d1f-2a3b4c5d6e7f")
	keys := objectKeys(caseID, time.UnixMilli(42), []Upload{{FileName: "photo.jpg"}, {FileName: "photo.jpg"}})

	prefix := "evidence/" + caseID.String() + "/42_"
	if keys[0] != prefix+"photo.jpg" || keys[1] != prefix+"photo-2.jpg" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.png`: "pic.png",
		"my river (1).jpeg":   "my_river__1_.jpeg",
		"":                    "file",
		"...":                 "file",
		"отчёт.pdf":           "_____.pdf",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("unexpected sanitized name for %q: got %q want %q", in, got, want)
		}
	}
}

func TestValidateRejectsBadBatches(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeStorage{}, 1)

	six := make([]Upload, 6)
	for i := range six {
		six[i] = upload("f.jpg", "x")
	}
	big := upload("big.jpg", "x")
	big.Size = 10<<20 + 1
	empty := upload("empty.jpg", "")

	for name, batch := range map[string][]Upload{"too many": six, "too big": {big}, "empty": {empty}} {
		err := svc.Validate(batch)
		var fieldErr *validate.FieldError
		if !errors.As(err, &fieldErr) || fieldErr.Field != "files" {
			t.Fatalf("%s: expected files field error, got %v", name, err)
		}
	}

	if err := svc.Validate(nil); err != nil {
		t.Fatalf("empty batch must be valid, got %v", err)
	}
	exact := upload("exact.jpg", "x")
	exact.Size = 10 << 20
	if err := svc.Validate([]Upload{exact}); err != nil {
		t.Fatalf("file at the size limit must be valid, got %v", err)
	}
}

func TestListForCasePresignsURLs(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeStorage{}, 1)
	caseID := uuid.New()

	if _, err := svc.AttachAll(context.Background(), caseID, []Upload{upload("a.jpg", "aaa")}); err != nil {
		t.Fatalf("attach all: %v", err)
	}
	files, err := svc.ListForCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("list for case: %v", err)
	}
	if len(files) != 1 || !strings.HasPrefix(files[0].URL, "https://signed.local/evidence/") {
		t.Fatalf("unexpected files: %+v", files)
	}
}
