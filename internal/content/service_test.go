package content_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mathemania-service/internal/content"
	"mathemania-service/internal/domain"
	"mathemania-service/internal/infra/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func newService(table *memory.Spreadsheet, opts ...content.Option) *content.Service {
	opts = append([]content.Option{content.WithClock(func() time.Time { return fixedNow })}, opts...)
	return content.NewService(table, opts...)
}

func validRegistration() domain.FormRegistration {
	return domain.FormRegistration{
		TeamName:      "Prime Suspects",
		TeamLeader:    "Sophie Germain",
		Email:         "sophie@example.com",
		Institute:     "IIT Kanpur",
		ContactNumber: "9876543210",
		Member2Name:   "Emmy Noether",
	}
}

func TestTeamCRUD(t *testing.T) {
	ctx := context.Background()
	table := memory.NewSpreadsheet()
	svc := newService(table)

	members, err := svc.Team(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	created, err := svc.CreateTeamMember(ctx, domain.TeamMember{ID: "m1", Name: "Alan", Role: "Coordinator"})
	require.NoError(t, err)
	assert.Equal(t, "m1", created.ID)
	_, err = svc.CreateTeamMember(ctx, domain.TeamMember{Name: "Ada"})
	require.NoError(t, err)

	rows, _ := table.Rows(ctx, content.SheetTeam)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0], "header row created on first write")

	require.NoError(t, svc.EditTeamMember(ctx, domain.TeamMember{ID: "m1", Name: "Alan Turing", Role: "Head"}))
	members, err = svc.Team(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Alan Turing", members[0].Name)
	assert.NotEmpty(t, members[1].ID)

	require.NoError(t, svc.DeleteTeamMember(ctx, "m1"))
	members, _ = svc.Team(ctx)
	require.Len(t, members, 1)
	assert.Equal(t, "Ada", members[0].Name)

	assert.ErrorIs(t, svc.DeleteTeamMember(ctx, "nope"), domain.ErrNotFound)

	_, err = svc.CreateTeamMember(ctx, domain.TeamMember{Name: "  "})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTeamMapsColumnsByHeader(t *testing.T) {
	table := memory.NewSpreadsheet()
	table.Seed(content.SheetTeam,
		[]string{"name", "id", "role"},
		[]string{"Hardy", "h1", "Mentor"},
	)
	members, err := newService(table).Team(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, domain.TeamMember{ID: "h1", Name: "Hardy", Role: "Mentor"}, members[0])
}

func TestBlogs(t *testing.T) {
	ctx := context.Background()
	table := memory.NewSpreadsheet()
	svc := newService(table)

	b, err := svc.CreateBlog(ctx, domain.Blog{Title: "Why Primes Matter", Author: "Euclid", Content: "word**bold**"})
	require.NoError(t, err)
	assert.Equal(t, "why-primes-matter", b.ID)
	assert.Equal(t, fixedNow.Format(time.RFC3339), b.Date)

	table.Seed(content.SheetBlogs, append(mustRows(t, table, content.SheetBlogs), []string{"untitled", "", "x", "", "ignored"})...)

	blogs, err := svc.Blogs(ctx)
	require.NoError(t, err)
	require.Len(t, blogs, 1)
	assert.Equal(t, "word **bold**", blogs[0].Content)

	require.NoError(t, svc.EditBlog(ctx, domain.Blog{ID: "why-primes-matter", Title: "Primes", Author: "E.", Content: "new"}))
	blogs, _ = svc.Blogs(ctx)
	assert.Equal(t, "Primes", blogs[0].Title)
	assert.Equal(t, fixedNow.Format(time.RFC3339), blogs[0].Date, "date is kept on edit")

	assert.ErrorIs(t, svc.EditBlog(ctx, domain.Blog{ID: "missing", Title: "x"}), domain.ErrNotFound)
	require.NoError(t, svc.DeleteBlog(ctx, "why-primes-matter"))
	blogs, _ = svc.Blogs(ctx)
	assert.Empty(t, blogs)
}

func mustRows(t *testing.T, table *memory.Spreadsheet, sheet string) [][]string {
	t.Helper()
	rows, err := table.Rows(context.Background(), sheet)
	require.NoError(t, err)
	return rows
}

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Stamatics</title>
  <item>
    <title>Existing Post</title>
    <dc:creator>Someone</dc:creator>
    <pubDate>Mon, 05 Jan 2026 10:00:00 GMT</pubDate>
    <description>old</description>
  </item>
  <item>
    <title>The Monty Hall Problem</title>
    <dc:creator>Marilyn</dc:creator>
    <pubDate>Tue, 06 Jan 2026 12:00:00 GMT</pubDate>
    <content:encoded><![CDATA[<p>Always <strong>switch</strong>.</p>]]></content:encoded>
  </item>
</channel>
</rss>`

func TestImportMedium(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	ctx := context.Background()
	table := memory.NewSpreadsheet()
	table.Seed(content.SheetBlogs,
		[]string{"ID", "Title", "Author", "Date", "Content"},
		[]string{"existing-post", "Existing Post", "Someone", "", "old"},
	)
	svc := newService(table, content.WithFeed(srv.URL, srv.Client()))

	n, err := svc.ImportMedium(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	blogs, err := svc.Blogs(ctx)
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	imported := blogs[1]
	assert.Equal(t, "the-monty-hall-problem", imported.ID)
	assert.Equal(t, "Marilyn", imported.Author)
	assert.Equal(t, "2026-01-06T12:00:00Z", imported.Date)
	assert.Contains(t, imported.Content, "Always **switch**.")

	again, err := svc.ImportMedium(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestAnnouncement(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewSpreadsheet())

	text, err := svc.Announcement(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, svc.UpdateAnnouncement(ctx, "Round 2 opens at 18:00"))
	text, _ = svc.Announcement(ctx)
	assert.Equal(t, "Round 2 opens at 18:00", text)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.FormRegistration)
		msg    string
	}{
		{name: "emoji team name", mutate: func(r *domain.FormRegistration) { r.TeamName = "Pi 🥧" }, msg: "Team name can only contain"},
		{name: "short phone", mutate: func(r *domain.FormRegistration) { r.ContactNumber = "12345" }, msg: "10-digit"},
		{name: "member 3 without 2", mutate: func(r *domain.FormRegistration) {
			r.Member2Name = ""
			r.Member3Email = "c@example.com"
		}, msg: "Team Member 2"},
		{name: "member 4 without 3", mutate: func(r *domain.FormRegistration) { r.Member4Name = "D" }, msg: "Team Member 3"},
		{name: "missing leader", mutate: func(r *domain.FormRegistration) { r.TeamLeader = " " }, msg: "required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRegistration()
			tc.mutate(&r)
			err := newService(memory.NewSpreadsheet()).Register(context.Background(), r)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tc.msg)
		})
	}
}

func TestRegisterStoresAndNotifies(t *testing.T) {
	ctx := context.Background()
	table := memory.NewSpreadsheet()
	notifier := &recordingNotifier{}
	svc := newService(table, content.WithNotifier(notifier, content.Formatter{
		Registration: func(r domain.FormRegistration) string { return "reg:" + r.TeamName },
	}))

	r := validRegistration()
	r.TeamName = "  Prime Suspects "
	require.NoError(t, svc.Register(ctx, r))

	regs, err := svc.ListRegistrations(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Prime Suspects", regs[0].TeamName)
	assert.Equal(t, "Emmy Noether", regs[0].Member2Name)
	assert.True(t, regs[0].Timestamp.Equal(fixedNow))
	assert.Equal(t, []string{"reg:Prime Suspects"}, notifier.texts)

	summary, err := svc.Registrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, content.RegistrationSummary{
		Team: "Prime Suspects", Inst: "IIT Kanpur", Leader: "Sophie Germain", Email: "sophie@example.com", Status: "Registered",
	}, summary[0])

	dup := validRegistration()
	dup.TeamName = "prime suspects"
	var verr *domain.ValidationError
	assert.ErrorAs(t, svc.Register(ctx, dup), &verr)
}

func TestContactNotifiesBestEffort(t *testing.T) {
	ctx := context.Background()
	table := memory.NewSpreadsheet()
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc := newService(table, content.WithNotifier(notifier, content.Formatter{
		Contact: func(m domain.ContactMessage) string { return m.Name + ": " + m.Message },
	}))

	require.NoError(t, svc.Contact(ctx, domain.ContactMessage{Name: "Paul", Email: "p@example.com", Message: " Is 1 prime? "}))
	rows := mustRows(t, table, content.SheetContact)
	require.Len(t, rows, 2)
	assert.Equal(t, "Is 1 prime?", rows[1][3])
	assert.True(t, strings.HasPrefix(notifier.texts[0], "Paul: Is 1 prime?"))

	var verr *domain.ValidationError
	assert.ErrorAs(t, svc.Contact(ctx, domain.ContactMessage{Name: "x"}), &verr)
}
