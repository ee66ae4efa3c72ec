package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mathemania-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore keeps uploaded files.
type ObjectStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// PresignedURL returns a time-limited download link.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Round2Store records uploaded solutions.
type Round2Store interface {
	Insert(ctx context.Context, sub domain.Round2Submission) error
	List(ctx context.Context) ([]domain.Round2Submission, error)
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var whitespaceRun = regexp.MustCompile(`\s+`)

const pdfContentType = "application/pdf"

// Round2Service handles subjective solution uploads for the second round.
type Round2Service struct {
	registrations RegistrationDirectory
	objects       ObjectStore
	store         Round2Store
	logger        *zap.Logger
	now           func() time.Time
}

func NewRound2Service(registrations RegistrationDirectory, objects ObjectStore, store Round2Store, logger *zap.Logger) *Round2Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Round2Service{
		registrations: registrations,
		objects:       objects,
		store:         store,
		logger:        logger,
		now:           time.Now,
	}
}

// Submit checks the team code, uploads the PDF and records the submission.
// Unlike the quiz, a team may upload more than once.
func (s *Round2Service) Submit(ctx context.Context, code string, up Upload) (domain.Round2Submission, error) {
	reg, err := s.registrations.LookupByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Round2Submission{}, domain.ErrInvalidCode
		}
		return domain.Round2Submission{}, fmt.Errorf("lookup registration: %w", err)
	}

	body, err := requirePDF(up)
	if err != nil {
		return domain.Round2Submission{}, err
	}

	now := s.now().UTC()
	key := Round2ObjectKey(reg.TeamName, up.FileName, now)
	url, err := s.objects.Put(ctx, key, body, up.Size, pdfContentType)
	if err != nil {
		return domain.Round2Submission{}, fmt.Errorf("upload solution: %w", err)
	}

	sub := domain.Round2Submission{
		ID:          uuid.NewString(),
		TeamName:    reg.TeamName,
		Institute:   reg.Institute,
		FilePath:    key,
		FileURL:     url,
		SubmittedAt: now,
	}
	if err := s.store.Insert(ctx, sub); err != nil {
		return domain.Round2Submission{}, fmt.Errorf("record submission: %w", err)
	}
	s.logger.Info("round 2 solution uploaded", zap.String("team", reg.TeamName), zap.String("key", key))
	return sub, nil
}

// List returns every recorded round 2 submission.
func (s *Round2Service) List(ctx context.Context) ([]domain.Round2Submission, error) {
	return s.store.List(ctx)
}

// Round2ObjectKey builds round2/<team>_<unix ms>.<ext>.
func Round2ObjectKey(teamName, fileName string, at time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" {
		ext = "pdf"
	}
	team := whitespaceRun.ReplaceAllString(strings.TrimSpace(teamName), "_")
	return "round2/" + team + "_" + strconv.FormatInt(at.UnixMilli(), 10) + "." + ext
}

func requirePDF(up Upload) (io.Reader, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(up.ContentType, ";", 2)[0]))
	if ct != pdfContentType || up.Body == nil {
		return nil, domain.ErrNotPDF
	}
	br := bufio.NewReader(up.Body)
	magic, err := br.Peek(5)
	if err != nil || !bytes.Equal(magic, []byte("%PDF-")) {
		return nil, domain.ErrNotPDF
	}
	return br, nil
}
