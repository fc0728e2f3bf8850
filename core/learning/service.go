package learning

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

// Collection kinds
const (
	KindEmployees          = "employees"
	KindCourses            = "courses"
	KindPrograms           = "programs"
	KindCertificationTests = "certification-tests"
	KindEnrollments        = "enrollments"
	KindWebinars           = "webinars"
	KindDocuments          = "documents"
	KindDevelopmentPlans   = "development-plans"
)

var Kinds = []string{
	KindEmployees, KindCourses, KindPrograms, KindCertificationTests,
	KindEnrollments, KindWebinars, KindDocuments, KindDevelopmentPlans,
}

// Seed holds the initial records of every collection.
type Seed struct {
	Employees          []Employee          `yaml:"employees"`
	Courses            []Course            `yaml:"courses"`
	Programs           []Program           `yaml:"programs"`
	CertificationTests []CertificationTest `yaml:"certification_tests"`
	Enrollments        []Enrollment        `yaml:"enrollments"`
	Webinars           []Webinar           `yaml:"webinars"`
	Documents          []Document          `yaml:"documents"`
	DevelopmentPlans   []DevelopmentPlan   `yaml:"development_plans"`
}

type Service struct {
	Employees          *Records[Employee]
	Courses            *Records[Course]
	Programs           *Records[Program]
	CertificationTests *Records[CertificationTest]
	Enrollments        *Records[Enrollment]
	Webinars           *Records[Webinar]
	Documents          *Records[Document]
	DevelopmentPlans   *Records[DevelopmentPlan]

	users   user.Service
	mailSvc core.EmailService
	logger  core.Logger
	now     func() time.Time
}

// NewService creates empty collections; call Load to fill them. A nil store keeps them in memory only.
func NewService(store SnapshotStore, usrSvc user.Service, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		Employees:          newRecords(KindEmployees, store, employeeWhere),
		Courses:            newRecords(KindCourses, store, courseWhere),
		Programs:           newRecords(KindPrograms, store, programWhere),
		CertificationTests: newRecords(KindCertificationTests, store, certificationTestWhere),
		Enrollments:        newRecords(KindEnrollments, store, enrollmentWhere),
		Webinars:           newRecords(KindWebinars, store, webinarWhere),
		Documents:          newRecords(KindDocuments, store, documentWhere),
		DevelopmentPlans:   newRecords(KindDevelopmentPlans, store, developmentPlanWhere),
		users:              usrSvc,
		mailSvc:            mailSvc,
		logger:             logger,
		now:                time.Now,
	}
}

// Load fills every collection from its snapshot, falling back to seed.
func (svc *Service) Load(ctx context.Context, seed Seed) error {
	loads := []func() error{
		func() error { return svc.Employees.load(ctx, seed.Employees) },
		func() error { return svc.Courses.load(ctx, seed.Courses) },
		func() error { return svc.Programs.load(ctx, seed.Programs) },
		func() error { return svc.CertificationTests.load(ctx, seed.CertificationTests) },
		func() error { return svc.Enrollments.load(ctx, seed.Enrollments) },
		func() error { return svc.Webinars.load(ctx, seed.Webinars) },
		func() error { return svc.Documents.load(ctx, seed.Documents) },
		func() error { return svc.DevelopmentPlans.load(ctx, seed.DevelopmentPlans) },
	}
	for _, load := range loads {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the size of every collection, by kind.
func (svc *Service) Counts() map[string]int {
	return map[string]int{
		KindEmployees:          svc.Employees.Len(),
		KindCourses:            svc.Courses.Len(),
		KindPrograms:           svc.Programs.Len(),
		KindCertificationTests: svc.CertificationTests.Len(),
		KindEnrollments:        svc.Enrollments.Len(),
		KindWebinars:           svc.Webinars.Len(),
		KindDocuments:          svc.Documents.Len(),
		KindDevelopmentPlans:   svc.DevelopmentPlans.Len(),
	}
}

func (svc *Service) ToggleFeatured(ctx context.Context, id string) (Course, error) {
	course, err := svc.Courses.Update(ctx, id, func(c Course) Course {
		c.Featured = !c.Featured
		return c
	})
	return course, errors.Wrap(err, "toggling featured")
}

// ArchiveProgram is idempotent: archiving an archived program keeps its first archive date.
func (svc *Service) ArchiveProgram(ctx context.Context, id string) (Program, error) {
	now := svc.now().UTC()
	prog, err := svc.Programs.Update(ctx, id, func(p Program) Program {
		if p.Status != ProgramArchived || p.ArchivedAt == nil {
			p.ArchivedAt = &now
		}
		p.Status = ProgramArchived
		return p
	})
	return prog, errors.Wrap(err, "archiving program")
}

func (svc *Service) RestoreProgram(ctx context.Context, id string) (Program, error) {
	prog, err := svc.Programs.Update(ctx, id, func(p Program) Program {
		p.Status = ProgramActive
		p.ArchivedAt = nil
		return p
	})
	return prog, errors.Wrap(err, "restoring program")
}

func (svc *Service) ArchiveDocument(ctx context.Context, id string) (Document, error) {
	doc, err := svc.Documents.Update(ctx, id, func(d Document) Document {
		d.Archived = true
		return d
	})
	return doc, errors.Wrap(err, "archiving document")
}

func (svc *Service) RestoreDocument(ctx context.Context, id string) (Document, error) {
	doc, err := svc.Documents.Update(ctx, id, func(d Document) Document {
		d.Archived = false
		return d
	})
	return doc, errors.Wrap(err, "restoring document")
}
