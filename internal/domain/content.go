package domain

import "time"

// TeamMember is a row of the society's team roster.
type TeamMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Blog is a published post; Content is Markdown.
type Blog struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// FormRegistration is a Mathemania registration submitted through the public form.
type FormRegistration struct {
	Timestamp     time.Time `json:"timestamp"`
	TeamName      string    `json:"teamName"`
	TeamLeader    string    `json:"teamLeader"`
	Email         string    `json:"email"`
	Institute     string    `json:"institute"`
	ContactNumber string    `json:"contactNumber"`
	Member2Name   string    `json:"member2Name"`
	Member2Email  string    `json:"member2Email"`
	Member3Name   string    `json:"member3Name"`
	Member3Email  string    `json:"member3Email"`
	Member4Name   string    `json:"member4Name"`
	Member4Email  string    `json:"member4Email"`
}

// ContactMessage is a query sent through the contact form.
type ContactMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
}
