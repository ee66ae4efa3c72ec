package content

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"mathemania-service/internal/domain"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Notifier tells organisers about new form submissions.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Formatter renders notification texts.
type Formatter struct {
	Contact      func(domain.ContactMessage) string
	Registration func(domain.FormRegistration) string
}

// RegistrationSummary is the admin view of a form registration.
type RegistrationSummary struct {
	Team   string `json:"team"`
	Inst   string `json:"inst"`
	Leader string `json:"leader"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

var (
	teamNamePattern = regexp.MustCompile(`^[A-Za-z0-9_ ]+$`)
	phonePattern    = regexp.MustCompile(`^\d{10}$`)
)

const defaultAuthor = "Stamatics"

// Service reads and edits site content kept in a spreadsheet.
type Service struct {
	table    Table
	notifier Notifier
	format   Formatter
	feedURL  string
	feedHTTP *http.Client
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

func WithNotifier(n Notifier, f Formatter) Option {
	return func(s *Service) {
		s.notifier = n
		s.format = f
	}
}

func WithFeed(url string, client *http.Client) Option {
	return func(s *Service) {
		s.feedURL = url
		if client != nil {
			s.feedHTTP = client
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(table Table, opts ...Option) *Service {
	s := &Service{
		table:    table,
		feedURL:  "https://medium.com/feed/stamatics-iit-kanpur",
		feedHTTP: &http.Client{Timeout: 20 * time.Second},
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------- Team ----------

func (s *Service) Team(ctx context.Context) ([]domain.TeamMember, error) {
	rows, err := s.table.Rows(ctx, SheetTeam)
	if err != nil {
		return nil, fmt.Errorf("read team: %w", err)
	}
	members := []domain.TeamMember{}
	if len(rows) < 2 {
		return members, nil
	}
	h := rows[0]
	idx := func(name string, fallback int) int { return columnIndex(h, fallback, name) }
	id, name, role, bio := idx("id", 0), idx("name", 1), idx("role", 2), idx("bio", 3)
	image, linkedin, github := idx("image", 4), idx("linkedin", 5), idx("github", 6)
	for _, row := range rows[1:] {
		m := domain.TeamMember{
			ID:       cell(row, id),
			Name:     cell(row, name),
			Role:     cell(row, role),
			Bio:      cell(row, bio),
			Image:    cell(row, image),
			LinkedIn: cell(row, linkedin),
			GitHub:   cell(row, github),
		}
		if m.ID == "" && m.Name == "" {
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

func (s *Service) CreateTeamMember(ctx context.Context, m domain.TeamMember) (domain.TeamMember, error) {
	if strings.TrimSpace(m.Name) == "" {
		return domain.TeamMember{}, &domain.ValidationError{Field: "name", Message: "Name is required."}
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if err := s.table.Append(ctx, SheetTeam, teamHeader, teamRow(m)); err != nil {
		return domain.TeamMember{}, fmt.Errorf("append team member: %w", err)
	}
	return m, nil
}

func (s *Service) EditTeamMember(ctx context.Context, m domain.TeamMember) error {
	index, err := s.findRow(ctx, SheetTeam, m.ID)
	if err != nil {
		return err
	}
	return s.table.UpdateRow(ctx, SheetTeam, index, teamRow(m))
}

func (s *Service) DeleteTeamMember(ctx context.Context, id string) error {
	index, err := s.findRow(ctx, SheetTeam, id)
	if err != nil {
		return err
	}
	return s.table.DeleteRow(ctx, SheetTeam, index)
}

func teamRow(m domain.TeamMember) []string {
	return []string{m.ID, m.Name, m.Role, m.Bio, m.Image, m.LinkedIn, m.GitHub}
}

// ---------- Blogs ----------

// Blogs returns posts with a title; content is cleaned for rendering.
func (s *Service) Blogs(ctx context.Context) ([]domain.Blog, error) {
	rows, err := s.table.Rows(ctx, SheetBlogs)
	if err != nil {
		return nil, fmt.Errorf("read blogs: %w", err)
	}
	blogs := []domain.Blog{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		b := blogFromRow(row)
		if b.Title == "" {
			continue
		}
		b.Content = CleanMarkdown(b.Content)
		blogs = append(blogs, b)
	}
	return blogs, nil
}

func (s *Service) CreateBlog(ctx context.Context, b domain.Blog) (domain.Blog, error) {
	if strings.TrimSpace(b.Title) == "" {
		return domain.Blog{}, &domain.ValidationError{Field: "title", Message: "Title is required."}
	}
	if b.ID == "" {
		b.ID = Slug(b.Title)
	}
	b.Date = s.now().UTC().Format(time.RFC3339)
	if err := s.table.Append(ctx, SheetBlogs, blogHeader, blogRow(b)); err != nil {
		return domain.Blog{}, fmt.Errorf("append blog: %w", err)
	}
	return b, nil
}

// EditBlog replaces title, author and content; the id and date are kept.
func (s *Service) EditBlog(ctx context.Context, b domain.Blog) error {
	rows, err := s.table.Rows(ctx, SheetBlogs)
	if err != nil {
		return fmt.Errorf("read blogs: %w", err)
	}
	index := rowIndex(rows, b.ID)
	if index < 0 {
		return domain.ErrNotFound
	}
	current := blogFromRow(rows[index])
	current.Title, current.Author, current.Content = b.Title, b.Author, b.Content
	return s.table.UpdateRow(ctx, SheetBlogs, index, blogRow(current))
}

func (s *Service) DeleteBlog(ctx context.Context, id string) error {
	index, err := s.findRow(ctx, SheetBlogs, id)
	if err != nil {
		return err
	}
	return s.table.DeleteRow(ctx, SheetBlogs, index)
}

// ImportMedium appends feed items whose slug is not in the sheet yet and
// returns how many were added.
func (s *Service) ImportMedium(ctx context.Context) (int, error) {
	parser := gofeed.NewParser()
	parser.Client = s.feedHTTP
	feed, err := parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	rows, err := s.table.Rows(ctx, SheetBlogs)
	if err != nil {
		return 0, fmt.Errorf("read blogs: %w", err)
	}
	existing := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		existing[cell(row, 0)] = struct{}{}
	}

	count := 0
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		id := Slug(item.Title)
		if _, ok := existing[id]; ok {
			continue
		}
		b := domain.Blog{
			ID:      id,
			Title:   item.Title,
			Author:  feedAuthor(item),
			Date:    s.now().UTC().Format(time.RFC3339),
			Content: HTMLToMarkdown(firstNonEmpty(item.Content, item.Description)),
		}
		if item.PublishedParsed != nil {
			b.Date = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		if err := s.table.Append(ctx, SheetBlogs, blogHeader, blogRow(b)); err != nil {
			return count, fmt.Errorf("append imported blog %q: %w", id, err)
		}
		existing[id] = struct{}{}
		count++
	}
	s.logger.Info("medium import finished", zap.Int("imported", count), zap.Int("items", len(feed.Items)))
	return count, nil
}

func feedAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return defaultAuthor
}

func blogFromRow(row []string) domain.Blog {
	return domain.Blog{
		ID:      cell(row, 0),
		Title:   cell(row, 1),
		Author:  cell(row, 2),
		Date:    cell(row, 3),
		Content: cell(row, 4),
	}
}

func blogRow(b domain.Blog) []string {
	return []string{b.ID, b.Title, b.Author, b.Date, b.Content}
}

// ---------- Announcement ----------

func (s *Service) Announcement(ctx context.Context) (string, error) {
	return s.table.ReadCell(ctx, SheetAnnouncements, announcementCell)
}

func (s *Service) UpdateAnnouncement(ctx context.Context, text string) error {
	return s.table.WriteCell(ctx, SheetAnnouncements, announcementCell, text)
}

// ---------- Public forms ----------

// ListRegistrations returns every Mathemania form registration.
func (s *Service) ListRegistrations(ctx context.Context) ([]domain.FormRegistration, error) {
	rows, err := s.table.Rows(ctx, SheetMathemania)
	if err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	h := rows[0]
	ts := columnIndex(h, 0, "Timestamp")
	team := columnIndex(h, 1, "Team Name")
	leader := columnIndex(h, 2, "Leader Name", "Leader")
	email := columnIndex(h, 3, "Leader Email", "Email")
	inst := columnIndex(h, 4, "Institute")
	phone := columnIndex(h, 5, "Contact Number")

	out := make([]domain.FormRegistration, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := domain.FormRegistration{
			TeamName:      cell(row, team),
			TeamLeader:    cell(row, leader),
			Email:         cell(row, email),
			Institute:     cell(row, inst),
			ContactNumber: cell(row, phone),
			Member2Name:   cell(row, columnIndex(h, 6, "Member 2 Name")),
			Member2Email:  cell(row, columnIndex(h, 7, "Member 2 Email")),
			Member3Name:   cell(row, columnIndex(h, 8, "Member 3 Name")),
			Member3Email:  cell(row, columnIndex(h, 9, "Member 3 Email")),
			Member4Name:   cell(row, columnIndex(h, 10, "Member 4 Name")),
			Member4Email:  cell(row, columnIndex(h, 11, "Member 4 Email")),
		}
		if t, err := time.Parse(time.RFC3339, cell(row, ts)); err == nil {
			r.Timestamp = t
		}
		if strings.TrimSpace(r.TeamName) == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Registrations returns the admin summary of form registrations.
func (s *Service) Registrations(ctx context.Context) ([]RegistrationSummary, error) {
	regs, err := s.ListRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RegistrationSummary, 0, len(regs))
	for _, r := range regs {
		out = append(out, RegistrationSummary{
			Team:   r.TeamName,
			Inst:   r.Institute,
			Leader: r.TeamLeader,
			Email:  r.Email,
			Status: "Registered",
		})
	}
	return out, nil
}

// Register validates and records a Mathemania registration.
func (s *Service) Register(ctx context.Context, r domain.FormRegistration) error {
	r = trimRegistration(r)
	if err := ValidateRegistration(r); err != nil {
		return err
	}

	existing, err := s.ListRegistrations(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if strings.EqualFold(strings.TrimSpace(e.TeamName), r.TeamName) {
			return &domain.ValidationError{Field: "teamName", Message: "A team with this name is already registered."}
		}
	}

	r.Timestamp = s.now().UTC()
	row := []string{
		r.Timestamp.Format(time.RFC3339), r.TeamName, r.TeamLeader, r.Email, r.Institute, r.ContactNumber,
		r.Member2Name, r.Member2Email, r.Member3Name, r.Member3Email, r.Member4Name, r.Member4Email,
	}
	if err := s.table.Append(ctx, SheetMathemania, formHeader, row); err != nil {
		return fmt.Errorf("append registration: %w", err)
	}
	if s.notifier != nil && s.format.Registration != nil {
		s.notifyBestEffort(ctx, s.format.Registration(r))
	}
	return nil
}

// ValidateRegistration applies the public form rules.
func ValidateRegistration(r domain.FormRegistration) error {
	if !teamNamePattern.MatchString(r.TeamName) {
		return &domain.ValidationError{
			Field:   "teamName",
			Message: "Team name can only contain letters, numbers, spaces, and underscores. No emojis or special symbols.",
		}
	}
	if r.TeamLeader == "" || r.Email == "" || r.Institute == "" {
		return &domain.ValidationError{Field: "teamLeader", Message: "Team leader name, email and institute are required."}
	}
	if !phonePattern.MatchString(r.ContactNumber) {
		return &domain.ValidationError{Field: "contactNumber", Message: "Please enter a valid 10-digit contact number."}
	}
	has2 := r.Member2Name != "" || r.Member2Email != ""
	has3 := r.Member3Name != "" || r.Member3Email != ""
	has4 := r.Member4Name != "" || r.Member4Email != ""
	if has3 && !has2 {
		return &domain.ValidationError{Field: "member3Name", Message: "Please fill Team Member 2 details before adding Team Member 3."}
	}
	if has4 && !has3 {
		return &domain.ValidationError{Field: "member4Name", Message: "Please fill Team Member 3 details before adding Team Member 4."}
	}
	return nil
}

func trimRegistration(r domain.FormRegistration) domain.FormRegistration {
	for _, f := range []*string{
		&r.TeamName, &r.TeamLeader, &r.Email, &r.Institute, &r.ContactNumber,
		&r.Member2Name, &r.Member2Email, &r.Member3Name, &r.Member3Email, &r.Member4Name, &r.Member4Email,
	} {
		*f = strings.TrimSpace(*f)
	}
	return r
}

// Contact records a contact-form message and notifies the organisers.
func (s *Service) Contact(ctx context.Context, m domain.ContactMessage) error {
	m.Name, m.Email, m.Message = strings.TrimSpace(m.Name), strings.TrimSpace(m.Email), strings.TrimSpace(m.Message)
	if m.Message == "" {
		return &domain.ValidationError{Field: "message", Message: "Message is required."}
	}
	m.Timestamp = s.now().UTC()
	row := []string{m.Timestamp.Format(time.RFC3339), m.Name, m.Email, m.Message}
	if err := s.table.Append(ctx, SheetContact, contactHeader, row); err != nil {
		return fmt.Errorf("append contact message: %w", err)
	}
	if s.notifier != nil && s.format.Contact != nil {
		s.notifyBestEffort(ctx, s.format.Contact(m))
	}
	return nil
}

func (s *Service) notifyBestEffort(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn("notification failed", zap.Error(err))
	}
}

func (s *Service) findRow(ctx context.Context, sheet, id string) (int, error) {
	rows, err := s.table.Rows(ctx, sheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", sheet, err)
	}
	index := rowIndex(rows, id)
	if index < 0 {
		return 0, domain.ErrNotFound
	}
	return index, nil
}

// rowIndex returns the position of the first data row whose first cell is id.
func rowIndex(rows [][]string, id string) int {
	if id == "" {
		return -1
	}
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], 0) == id {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
