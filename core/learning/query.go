package learning

import (
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/filter"
)

// Query is the filter state of one list screen. Every field is independent; unset fields
// and the "all" sentinel do not filter.
type Query struct {
	Search     string   `query:"search"`
	Keywords   []string `query:"q"` // any of
	Category   string   `query:"category"`
	Department string   `query:"department"`
	Status     string   `query:"status"`
	Level      string   `query:"level"`
	FileType   string   `query:"file_type"`
	Tag        string   `query:"tag"`
	Featured   *bool    `query:"featured"`
	Archived   *bool    `query:"archived"`
}

func (q *Query) Clean() {
	q.Search = core.CleanString(q.Search)
	q.Category = core.CleanString(q.Category)
	q.Department = core.CleanString(q.Department)
	q.Status = core.CleanString(q.Status)
	q.Level = core.CleanString(q.Level)
	q.FileType = core.CleanString(q.FileType)
	q.Tag = core.CleanString(q.Tag)
}

func textSearch[T any](q Query, fields ...filter.Field[T]) []filter.Predicate[T] {
	return []filter.Predicate[T]{
		filter.Search(q.Search, fields...),
		filter.SearchAny(q.Keywords, fields...),
	}
}

func employeeWhere(q Query) []filter.Predicate[Employee] {
	dept := q.Department
	if dept == "" {
		dept = q.Category
	}
	return append(textSearch(q,
		func(e Employee) string { return e.Name },
		func(e Employee) string { return e.Email },
		func(e Employee) string { return e.Title },
	),
		filter.Equals(dept, func(e Employee) string { return e.Department }),
		filter.Equals(q.Status, func(e Employee) string { return e.Status }),
	)
}

func courseWhere(q Query) []filter.Predicate[Course] {
	return append(textSearch(q,
		func(c Course) string { return c.Title },
		func(c Course) string { return c.Description },
		func(c Course) string { return c.Instructor },
	),
		filter.Equals(q.Category, func(c Course) string { return c.Category }),
		filter.Equals(q.Level, func(c Course) string { return c.Level }),
		filter.Equals(q.Status, func(c Course) string { return c.Status }),
		filter.Bool(q.Featured, func(c Course) bool { return c.Featured }),
	)
}

func programWhere(q Query) []filter.Predicate[Program] {
	return append(textSearch(q, func(p Program) string { return p.Name }),
		filter.Equals(q.Category, func(p Program) string { return p.Category }),
		filter.Equals(q.Status, func(p Program) string { return p.Status }),
	)
}

func certificationTestWhere(q Query) []filter.Predicate[CertificationTest] {
	return append(textSearch(q,
		func(c CertificationTest) string { return c.Title },
		func(c CertificationTest) string { return c.ProgramName },
	),
		filter.Equals(q.Status, func(c CertificationTest) string { return c.Status }),
	)
}

func enrollmentWhere(q Query) []filter.Predicate[Enrollment] {
	return append(textSearch(q,
		func(e Enrollment) string { return e.LearnerName },
		func(e Enrollment) string { return e.LearnerEmail },
		func(e Enrollment) string { return e.CourseTitle },
	),
		filter.Equals(q.Status, func(e Enrollment) string { return e.Status }),
	)
}

func webinarWhere(q Query) []filter.Predicate[Webinar] {
	return append(textSearch(q,
		func(w Webinar) string { return w.Title },
		func(w Webinar) string { return w.Host },
	),
		filter.Equals(q.Category, func(w Webinar) string { return w.Category }),
		filter.Equals(q.Status, func(w Webinar) string { return w.Status }),
	)
}

// documentWhere searches the title and every tag.
func documentWhere(q Query) []filter.Predicate[Document] {
	title := func(d Document) string { return d.Title }
	tags := func(d Document) []string { return d.Tags }

	preds := []filter.Predicate[Document]{
		filter.Or(filter.Search(q.Search, title), filter.SearchValues(q.Search, tags)),
		filter.Equals(q.Category, func(d Document) string { return d.Category }),
		filter.Equals(q.FileType, func(d Document) string { return d.FileType }),
		filter.Bool(q.Archived, func(d Document) bool { return d.Archived }),
	}
	if kw := keywords(q.Keywords); len(kw) > 0 {
		anyOf := make([]filter.Predicate[Document], 0, 2*len(kw))
		for _, k := range kw {
			anyOf = append(anyOf, filter.Search(k, title), filter.SearchValues(k, tags))
		}
		preds = append(preds, filter.Or(anyOf...))
	}
	if !filter.IsAll(q.Tag) {
		preds = append(preds, func(d Document) bool {
			for _, t := range d.Tags {
				if t == q.Tag {
					return true
				}
			}
			return false
		})
	}
	return preds
}

func developmentPlanWhere(q Query) []filter.Predicate[DevelopmentPlan] {
	return append(textSearch(q,
		func(p DevelopmentPlan) string { return p.EmployeeName },
		func(p DevelopmentPlan) string { return p.Goal },
		func(p DevelopmentPlan) string { return p.Mentor },
	),
		filter.Equals(q.Status, func(p DevelopmentPlan) string { return p.Status }),
	)
}

func keywords(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = core.CleanString(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
