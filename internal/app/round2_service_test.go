package app_test

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"mathemania-service/internal/app"
	"mathemania-service/internal/domain"
	"mathemania-service/internal/infra/memory"
)

func pdfUpload(name string) app.Upload {
	body := []byte("%PDF-1.7\n%fake\n")
	return app.Upload{FileName: name, ContentType: "application/pdf", Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func TestRound2SubmitStoresPDF(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore("https://files.test")
	store := memory.NewRound2Store()
	regs := memory.NewRegistrationDirectory(domain.Registration{UniqueCode: "MATH-1", TeamName: "The  Primes", Institute: "IISc"})
	svc := app.NewRound2Service(regs, objects, store, nil)

	sub, err := svc.Submit(ctx, "MATH-1", pdfUpload("Solutions.PDF"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.HasPrefix(sub.FilePath, "round2/The_Primes_") || !strings.HasSuffix(sub.FilePath, ".pdf") {
		t.Fatalf("unexpected object key %q", sub.FilePath)
	}
	if sub.FileURL != "https://files.test/"+sub.FilePath {
		t.Fatalf("unexpected url %q", sub.FileURL)
	}
	if sub.Institute != "IISc" {
		t.Fatalf("expected institute copied, got %q", sub.Institute)
	}

	obj, ok := objects.Object(sub.FilePath)
	if !ok {
		t.Fatalf("object %q not stored", sub.FilePath)
	}
	if obj.ContentType != "application/pdf" || !bytes.HasPrefix(obj.Data, []byte("%PDF-")) {
		t.Fatalf("unexpected stored object %q %q", obj.ContentType, obj.Data)
	}

	// a second upload is allowed
	if _, err := svc.Submit(ctx, "MATH-1", pdfUpload("v2.pdf")); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two submissions, got %d", len(all))
	}
}

func TestRound2SubmitRejections(t *testing.T) {
	ctx := context.Background()
	regs := memory.NewRegistrationDirectory(domain.Registration{UniqueCode: "MATH-1", TeamName: "Primes"})
	svc := app.NewRound2Service(regs, memory.NewObjectStore(""), memory.NewRound2Store(), nil)

	if _, err := svc.Submit(ctx, "MATH-2", pdfUpload("a.pdf")); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}

	notPDF := app.Upload{FileName: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("hello world")}
	if _, err := svc.Submit(ctx, "MATH-1", notPDF); !errors.Is(err, domain.ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF for bad magic, got %v", err)
	}

	wrongType := pdfUpload("a.png")
	wrongType.ContentType = "image/png"
	if _, err := svc.Submit(ctx, "MATH-1", wrongType); !errors.Is(err, domain.ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF for content type, got %v", err)
	}
}

func TestRound2ObjectKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := app.Round2ObjectKey(" Team  Pi ", "x.pdf", at); got != "round2/Team_Pi_1700000000123.pdf" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := app.Round2ObjectKey("A", "noext", at); got != "round2/A_1700000000123.pdf" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMaterialsUploadAndLink(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore("https://files.test")
	svc := app.NewMaterialsService(objects, time.Minute)

	key, err := svc.Upload(ctx, pdfUpload("round1-solutions.pdf"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if key != "materials/round1-solutions.pdf" {
		t.Fatalf("unexpected key %q", key)
	}

	link, err := svc.Link(ctx, "round1-solutions.pdf")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if !strings.HasPrefix(link, "https://files.test/materials/round1-solutions.pdf?expires=") {
		t.Fatalf("unexpected link %q", link)
	}

	var verr *domain.ValidationError
	if _, err := svc.Link(ctx, "../secret.pdf"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Link(ctx, "missing.pdf"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type staticSource []domain.FormRegistration

func (s staticSource) ListRegistrations(context.Context) ([]domain.FormRegistration, error) {
	return s, nil
}

func TestImportRegistrations(t *testing.T) {
	ctx := context.Background()
	dir := memory.NewRegistrationDirectory(domain.Registration{UniqueCode: "MATH-OLD", TeamName: "Primes"})
	src := staticSource{
		{TeamName: "Primes", Institute: "IIT"},
		{TeamName: " Fermat ", Institute: " NIT "},
		{TeamName: "Fermat", Institute: "dup"},
		{TeamName: "  "},
	}
	n := 0
	inserted, err := app.ImportRegistrations(ctx, src, dir, func() string {
		n++
		return "MATH-" + string(rune('A'+n))
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(inserted) != 1 || inserted[0].TeamName != "Fermat" || inserted[0].Institute != "NIT" {
		t.Fatalf("unexpected inserted %+v", inserted)
	}

	reg, err := dir.LookupByCode(ctx, "MATH-OLD")
	if err != nil || reg.TeamName != "Primes" {
		t.Fatalf("existing team must keep its code, got %+v err=%v", reg, err)
	}
}

func TestNewUniqueCode(t *testing.T) {
	code := app.NewUniqueCode()
	if !regexp.MustCompile(`^MATH-[0-9A-F]{8}$`).MatchString(code) {
		t.Fatalf("unexpected code format %q", code)
	}
	if code == app.NewUniqueCode() {
		t.Fatalf("expected distinct codes")
	}
}
