// Package learning assembles what a student sees while following a course.
package learning

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
)

type (
	CourseOverview struct {
		Course    course.Course    `json:"course"`
		Sections  []course.Outline `json:"sections"`
		Purchased bool             `json:"purchased"`
		Progress  float64          `json:"progress"`
	}

	// SectionPage never carries the section content (video, resources, questions) when Visibility is Locked.
	SectionPage struct {
		Course         course.Course         `json:"course"`
		Outline        course.Outline        `json:"outline"`
		Section        *course.Section       `json:"section,omitempty"`
		Visibility     enrollment.Visibility `json:"visibility"`
		Purchased      bool                  `json:"purchased"`
		UserProgress   *progress.Progress    `json:"user_progress"`
		Resources      []course.Resource     `json:"resources,omitempty"`
		Questions      []course.Question     `json:"questions,omitempty"`
		NextSectionID  string                `json:"next_section_id,omitempty"`
		CourseProgress float64               `json:"course_progress"`
	}

	ProgressUpdate struct {
		Progress       progress.Progress `json:"user_progress"`
		CourseProgress float64           `json:"course_progress"`
	}

	DashboardEntry struct {
		Course   course.Course           `json:"course"`
		Progress progress.CourseProgress `json:"progress"`
	}

	Service interface {
		CourseOverview(ctx context.Context, studentID, courseID string) (CourseOverview, error)
		SectionPage(ctx context.Context, studentID, courseID, sectionID string) (SectionPage, error)
		// MarkSection fails with enrollment.ErrSectionLocked when the student may not see the section.
		MarkSection(ctx context.Context, studentID, courseID, sectionID string, completed bool) (ProgressUpdate, error)
		Dashboard(ctx context.Context, studentID string) ([]DashboardEntry, error)
	}

	service struct {
		courses     course.Service
		enrollments enrollment.Service
		progress    progress.Service
	}
)

var _ Service = (*service)(nil)

func NewService(courses course.Service, enrollments enrollment.Service, progressSvc progress.Service) Service {
	return &service{
		courses:     courses,
		enrollments: enrollments,
		progress:    progressSvc,
	}
}

// memo caches the lookups of a single call.
type memo struct {
	svc       *service
	studentID string
	courses   map[string]course.Course
	purchased map[string]bool
	access    map[string]enrollment.Visibility
}

func (svc *service) newMemo(studentID string) *memo {
	return &memo{
		svc:       svc,
		studentID: studentID,
		courses:   make(map[string]course.Course),
		purchased: make(map[string]bool),
		access:    make(map[string]enrollment.Visibility),
	}
}

func (m *memo) course(ctx context.Context, id string) (course.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	c, err := m.svc.courses.GetPublished(ctx, id)
	if err != nil {
		return course.Course{}, err
	}
	m.courses[id] = c
	return c, nil
}

func (m *memo) hasPurchased(ctx context.Context, courseID string) (bool, error) {
	if ok, found := m.purchased[courseID]; found {
		return ok, nil
	}
	ok, err := m.svc.enrollments.HasPurchased(ctx, m.studentID, courseID)
	if err != nil {
		return false, errors.Wrap(err, "checking purchase")
	}
	m.purchased[courseID] = ok
	return ok, nil
}

func (m *memo) sectionAccess(ctx context.Context, s course.Section) (enrollment.Visibility, error) {
	if vis, ok := m.access[s.ID]; ok {
		return vis, nil
	}
	vis, err := m.svc.enrollments.SectionAccess(ctx, m.studentID, s)
	if err != nil {
		return enrollment.Locked, errors.Wrap(err, "evaluating section access")
	}
	m.access[s.ID] = vis
	m.purchased[s.CourseID] = vis == enrollment.Enrolled
	return vis, nil
}

// section returns a published section of a published course and what the student may see of it.
func (m *memo) section(ctx context.Context, courseID, sectionID string) (course.Course, course.Section, enrollment.Visibility, error) {
	c, err := m.course(ctx, courseID)
	if err != nil {
		return course.Course{}, course.Section{}, enrollment.Locked, err
	}
	s, err := m.svc.courses.GetPublishedSection(ctx, c.ID, sectionID)
	if err != nil {
		return course.Course{}, course.Section{}, enrollment.Locked, err
	}
	vis, err := m.sectionAccess(ctx, s)
	if err != nil {
		return course.Course{}, course.Section{}, enrollment.Locked, err
	}
	return c, s, vis, nil
}

func (svc *service) CourseOverview(ctx context.Context, studentID, courseID string) (CourseOverview, error) {
	m := svc.newMemo(studentID)
	c, err := m.course(ctx, courseID)
	if err != nil {
		return CourseOverview{}, err
	}
	sections, err := svc.courses.GetPublishedSections(ctx, c.ID)
	if err != nil {
		return CourseOverview{}, errors.Wrap(err, "querying sections")
	}
	purchased, err := m.hasPurchased(ctx, c.ID)
	if err != nil {
		return CourseOverview{}, err
	}
	pct, err := svc.progress.CoursePercentage(ctx, c.ID, studentID)
	if err != nil {
		return CourseOverview{}, err
	}

	outlines := make([]course.Outline, 0, len(sections))
	for _, s := range sections {
		outlines = append(outlines, s.Outline())
	}
	return CourseOverview{Course: c, Sections: outlines, Purchased: purchased, Progress: pct}, nil
}

func (svc *service) SectionPage(ctx context.Context, studentID, courseID, sectionID string) (SectionPage, error) {
	m := svc.newMemo(studentID)
	c, s, vis, err := m.section(ctx, courseID, sectionID)
	if err != nil {
		return SectionPage{}, err
	}
	purchased, err := m.hasPurchased(ctx, c.ID)
	if err != nil {
		return SectionPage{}, err
	}

	page := SectionPage{
		Course:     c,
		Outline:    s.Outline(),
		Visibility: vis,
		Purchased:  purchased,
	}

	if p, err := svc.progress.Get(ctx, studentID, s.ID); err == nil {
		page.UserProgress = &p
	} else if errors.Cause(err) != core.ErrNotFound {
		return SectionPage{}, errors.Wrap(err, "getting progress")
	}

	sections, err := svc.courses.GetPublishedSections(ctx, c.ID)
	if err != nil {
		return SectionPage{}, errors.Wrap(err, "querying sections")
	}
	for i := range sections {
		if sections[i].ID == s.ID && i+1 < len(sections) {
			page.NextSectionID = sections[i+1].ID
			break
		}
	}

	if page.CourseProgress, err = svc.progress.CoursePercentage(ctx, c.ID, studentID); err != nil {
		return SectionPage{}, err
	}

	if vis.IsLocked() {
		return page, nil
	}
	page.Section = &s
	if page.Resources, err = svc.courses.GetResources(ctx, s.ID); err != nil {
		return SectionPage{}, errors.Wrap(err, "querying resources")
	}
	if page.Questions, err = svc.courses.GetQuestions(ctx, s.ID); err != nil {
		return SectionPage{}, errors.Wrap(err, "querying questions")
	}
	return page, nil
}

func (svc *service) MarkSection(ctx context.Context, studentID, courseID, sectionID string, completed bool) (ProgressUpdate, error) {
	m := svc.newMemo(studentID)
	c, s, vis, err := m.section(ctx, courseID, sectionID)
	if err != nil {
		return ProgressUpdate{}, err
	}
	if vis.IsLocked() {
		return ProgressUpdate{}, enrollment.ErrSectionLocked
	}

	p, err := svc.progress.MarkSection(ctx, studentID, s.ID, completed)
	if err != nil {
		return ProgressUpdate{}, errors.Wrap(err, "marking section")
	}
	pct, err := svc.progress.CoursePercentage(ctx, c.ID, studentID)
	if err != nil {
		return ProgressUpdate{}, err
	}
	return ProgressUpdate{Progress: p, CourseProgress: pct}, nil
}

func (svc *service) Dashboard(ctx context.Context, studentID string) ([]DashboardEntry, error) {
	purchases, err := svc.enrollments.Purchases(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying purchases")
	}

	m := svc.newMemo(studentID)
	entries := make([]DashboardEntry, 0, len(purchases))
	for _, p := range purchases {
		c, err := m.course(ctx, p.CourseID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting course %s", p.CourseID)
		}
		cp, err := svc.progress.CourseProgress(ctx, c, studentID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DashboardEntry{Course: c, Progress: cp})
	}
	return entries, nil
}
