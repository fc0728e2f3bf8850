package learning

import (
	"strings"
	"time"
)

// Record is any row of a learning collection.
type Record interface {
	RecordID() string
	// Columns and Row describe the record as a spreadsheet row.
	Columns() []string
	Row() []interface{}
}

// Employee statuses
const (
	EmployeeActive   = "active"
	EmployeeOnLeave  = "on_leave"
	EmployeeInactive = "inactive"
)

type Employee struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name       string    `json:"name" yaml:"name"`
	Email      string    `json:"email" yaml:"email"`
	Department string    `json:"department" yaml:"department"`
	Title      string    `json:"title" yaml:"title"`
	Status     string    `json:"status" yaml:"status"`
	JoinedAt   time.Time `json:"joined_at" yaml:"joined_at"`
}

func (e Employee) RecordID() string { return e.ID }
func (e Employee) Columns() []string {
	return []string{"ID", "Name", "Email", "Department", "Title", "Status", "Joined"}
}
func (e Employee) Row() []interface{} {
	return []interface{}{e.ID, e.Name, e.Email, e.Department, e.Title, e.Status, e.JoinedAt}
}

// Course levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course statuses
const (
	CoursePublished = "published"
	CourseDraft     = "draft"
	CourseArchived  = "archived"
)

type Course struct {
	ID            string  `json:"id" yaml:"id"`
	Title         string  `json:"title" yaml:"title"`
	Description   string  `json:"description" yaml:"description"`
	Category      string  `json:"category" yaml:"category"`
	Level         string  `json:"level" yaml:"level"`
	Instructor    string  `json:"instructor" yaml:"instructor"`
	Status        string  `json:"status" yaml:"status"`
	Featured      bool    `json:"featured" yaml:"featured"`
	Enrolled      int     `json:"enrolled" yaml:"enrolled"`
	DurationHours float64 `json:"duration_hours" yaml:"duration_hours"`
}

func (c Course) RecordID() string { return c.ID }
func (c Course) Columns() []string {
	return []string{"ID", "Title", "Category", "Level", "Instructor", "Status", "Featured", "Enrolled", "Duration (h)"}
}
func (c Course) Row() []interface{} {
	return []interface{}{c.ID, c.Title, c.Category, c.Level, c.Instructor, c.Status, c.Featured, c.Enrolled, c.DurationHours}
}

// Program statuses
const (
	ProgramActive   = "active"
	ProgramArchived = "archived"
)

// Program is a certification program: a track of courses leading to a certificate.
type Program struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Category   string     `json:"category" yaml:"category"`
	Status     string     `json:"status" yaml:"status"`
	Courses    []string   `json:"courses" yaml:"courses"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
}

func (p Program) RecordID() string { return p.ID }
func (p Program) Columns() []string {
	return []string{"ID", "Name", "Category", "Status", "Courses"}
}
func (p Program) Row() []interface{} {
	return []interface{}{p.ID, p.Name, p.Category, p.Status, strings.Join(p.Courses, ", ")}
}

// Certification test statuses
const (
	TestDraft     = "draft"
	TestScheduled = "scheduled"
	TestCompleted = "completed"
)

type CertificationTest struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	ProgramName  string `json:"program_name" yaml:"program_name"`
	PassingScore int    `json:"passing_score" yaml:"passing_score"`
	Status       string `json:"status" yaml:"status"`
	Attempts     int    `json:"attempts" yaml:"attempts"`
}

func (c CertificationTest) RecordID() string { return c.ID }
func (c CertificationTest) Columns() []string {
	return []string{"ID", "Title", "Program", "Passing score", "Status", "Attempts"}
}
func (c CertificationTest) Row() []interface{} {
	return []interface{}{c.ID, c.Title, c.ProgramName, c.PassingScore, c.Status, c.Attempts}
}

// Enrollment statuses
const (
	EnrollmentNotStarted = "not_started"
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
)

type Enrollment struct {
	ID           string    `json:"id" yaml:"id"`
	LearnerName  string    `json:"learner_name" yaml:"learner_name"`
	LearnerEmail string    `json:"learner_email" yaml:"learner_email"`
	CourseTitle  string    `json:"course_title" yaml:"course_title"`
	Progress     int       `json:"progress" yaml:"progress"` // percent
	Status       string    `json:"status" yaml:"status"`
	EnrolledAt   time.Time `json:"enrolled_at" yaml:"enrolled_at"`
}

func (e Enrollment) RecordID() string { return e.ID }
func (e Enrollment) Columns() []string {
	return []string{"ID", "Learner", "Email", "Course", "Progress (%)", "Status", "Enrolled"}
}
func (e Enrollment) Row() []interface{} {
	return []interface{}{e.ID, e.LearnerName, e.LearnerEmail, e.CourseTitle, e.Progress, e.Status, e.EnrolledAt}
}

// Webinar statuses
const (
	WebinarUpcoming  = "upcoming"
	WebinarLive      = "live"
	WebinarCompleted = "completed"
	WebinarCancelled = "cancelled"
)

type Webinar struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Host       string    `json:"host" yaml:"host"`
	Category   string    `json:"category" yaml:"category"`
	StartsAt   time.Time `json:"starts_at" yaml:"starts_at"`
	Status     string    `json:"status" yaml:"status"`
	Registered int       `json:"registered" yaml:"registered"`
}

func (w Webinar) RecordID() string { return w.ID }
func (w Webinar) Columns() []string {
	return []string{"ID", "Title", "Host", "Category", "Starts", "Status", "Registered"}
}
func (w Webinar) Row() []interface{} {
	return []interface{}{w.ID, w.Title, w.Host, w.Category, w.StartsAt, w.Status, w.Registered}
}

type Document struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Category   string   `json:"category" yaml:"category"`
	FileType   string   `json:"file_type" yaml:"file_type"`
	Tags       []string `json:"tags" yaml:"tags"`
	UploadedBy string   `json:"uploaded_by" yaml:"uploaded_by"`
	SizeBytes  int64    `json:"size_bytes" yaml:"size_bytes"`
	Archived   bool     `json:"archived" yaml:"archived"`
}

func (d Document) RecordID() string { return d.ID }
func (d Document) Columns() []string {
	return []string{"ID", "Title", "Category", "File type", "Tags", "Uploaded by", "Size (bytes)", "Archived"}
}
func (d Document) Row() []interface{} {
	return []interface{}{d.ID, d.Title, d.Category, d.FileType, strings.Join(d.Tags, ", "), d.UploadedBy, d.SizeBytes, d.Archived}
}

// Development plan statuses
const (
	PlanOnTrack   = "on_track"
	PlanAtRisk    = "at_risk"
	PlanCompleted = "completed"
)

type DevelopmentPlan struct {
	ID           string    `json:"id" yaml:"id"`
	EmployeeName string    `json:"employee_name" yaml:"employee_name"`
	Goal         string    `json:"goal" yaml:"goal"`
	Mentor       string    `json:"mentor" yaml:"mentor"`
	Status       string    `json:"status" yaml:"status"`
	DueDate      time.Time `json:"due_date" yaml:"due_date"`
	Progress     int       `json:"progress" yaml:"progress"` // percent
}

func (p DevelopmentPlan) RecordID() string { return p.ID }
func (p DevelopmentPlan) Columns() []string {
	return []string{"ID", "Employee", "Goal", "Mentor", "Status", "Due", "Progress (%)"}
}
func (p DevelopmentPlan) Row() []interface{} {
	return []interface{}{p.ID, p.EmployeeName, p.Goal, p.Mentor, p.Status, p.DueDate, p.Progress}
}
