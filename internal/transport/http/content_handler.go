package http

import (
	"net/http"
	"strings"

	"mathemania-service/internal/domain"
)

// contentRequest is the flat body of a content POST. Fields are shared
// between actions.
type contentRequest struct {
	Action string `json:"action"`
	Token  string `json:"token"`

	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`

	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Text    string `json:"text"`

	TeamName      string `json:"teamName"`
	TeamLeader    string `json:"teamLeader"`
	Email         string `json:"email"`
	Institute     string `json:"institute"`
	ContactNumber string `json:"contactNumber"`
	Member2Name   string `json:"member2Name"`
	Member2Email  string `json:"member2Email"`
	Member3Name   string `json:"member3Name"`
	Member3Email  string `json:"member3Email"`
	Member4Name   string `json:"member4Name"`
	Member4Email  string `json:"member4Email"`
	Message       string `json:"message"`

	Password string `json:"password"`
}

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

type announcementBody struct {
	Text string `json:"text"`
}

var adminActions = map[string]bool{
	"create_team_member":  true,
	"edit_team_member":    true,
	"delete_team_member":  true,
	"create_blog":         true,
	"edit_blog":           true,
	"delete_blog":         true,
	"import_medium":       true,
	"update_announcement": true,
}

func (h *handlers) contentGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	svc := h.svc.Content

	switch q.Get("action") {
	case "login":
		resp, err := h.issueToken(q.Get("password"))
		h.respond(w, resp, err)
	case "get_team":
		members, err := svc.Team(ctx)
		h.respond(w, members, err)
	case "get_blogs":
		blogs, err := svc.Blogs(ctx)
		h.respond(w, blogs, err)
	case "get_announcement":
		text, err := svc.Announcement(ctx)
		h.respond(w, announcementBody{Text: text}, err)
	case "get_registrations":
		token := bearerToken(r)
		if token == "" {
			token = q.Get("token")
		}
		if err := checkAdmin(h.svc.Auth, token); err != nil {
			writeError(w, h.logger, err, "")
			return
		}
		regs, err := svc.Registrations(ctx)
		h.respond(w, regs, err)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid Action"})
	}
}

func (h *handlers) contentPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	action := req.Action
	if action == "" {
		// public forms post without an action
		switch {
		case strings.TrimSpace(req.TeamName) != "":
			action = "register"
		case strings.TrimSpace(req.Message) != "":
			action = "contact"
		}
	}
	if adminActions[action] {
		token := req.Token
		if token == "" {
			token = bearerToken(r)
		}
		if err := checkAdmin(h.svc.Auth, token); err != nil {
			writeError(w, h.logger, err, "")
			return
		}
	}

	ctx := r.Context()
	svc := h.svc.Content
	ok := statusBody{Status: "success"}

	switch action {
	case "login":
		resp, err := h.issueToken(req.Password)
		h.respond(w, resp, err)
	case "create_team_member":
		m, err := svc.CreateTeamMember(ctx, req.teamMember())
		h.respond(w, m, err)
	case "edit_team_member":
		h.respond(w, ok, svc.EditTeamMember(ctx, req.teamMember()))
	case "delete_team_member":
		h.respond(w, ok, svc.DeleteTeamMember(ctx, req.ID))
	case "create_blog":
		b, err := svc.CreateBlog(ctx, req.blog())
		h.respond(w, b, err)
	case "edit_blog":
		h.respond(w, ok, svc.EditBlog(ctx, req.blog()))
	case "delete_blog":
		h.respond(w, ok, svc.DeleteBlog(ctx, req.ID))
	case "import_medium":
		n, err := svc.ImportMedium(ctx)
		h.respond(w, statusBody{Status: "success", Count: &n}, err)
	case "update_announcement":
		h.respond(w, ok, svc.UpdateAnnouncement(ctx, req.Text))
	case "register":
		h.respond(w, statusBody{Status: "success", Message: "Registered"}, svc.Register(ctx, req.registration()))
	case "contact":
		err := svc.Contact(ctx, domain.ContactMessage{Name: req.Name, Email: req.Email, Message: req.Message})
		h.respond(w, statusBody{Status: "success", Message: "Message Sent"}, err)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Unknown Action"})
	}
}

func (h *handlers) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (req contentRequest) teamMember() domain.TeamMember {
	return domain.TeamMember{
		ID:       req.ID,
		Name:     req.Name,
		Role:     req.Role,
		Bio:      req.Bio,
		Image:    req.Image,
		LinkedIn: req.LinkedIn,
		GitHub:   req.GitHub,
	}
}

func (req contentRequest) blog() domain.Blog {
	return domain.Blog{ID: req.ID, Title: req.Title, Author: req.Author, Content: req.Content}
}

func (req contentRequest) registration() domain.FormRegistration {
	return domain.FormRegistration{
		TeamName:      req.TeamName,
		TeamLeader:    req.TeamLeader,
		Email:         req.Email,
		Institute:     req.Institute,
		ContactNumber: req.ContactNumber,
		Member2Name:   req.Member2Name,
		Member2Email:  req.Member2Email,
		Member3Name:   req.Member3Name,
		Member3Email:  req.Member3Email,
		Member4Name:   req.Member4Name,
		Member4Email:  req.Member4Email,
	}
}
