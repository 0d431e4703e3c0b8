package course

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse removes the course along with its sections, their resources, questions
		// and progress records, and its purchases.
		DeleteCourse(ctx context.Context, id string) error
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter CourseFilter, ords []core.DBOrdering) ([]Course, error)

		CreateSection(ctx context.Context, s Section) (Section, error)
		UpdateSection(ctx context.Context, s Section) (Section, error)
		// DeleteSection removes the section along with its resources, questions and progress records.
		DeleteSection(ctx context.Context, id string) error
		GetSection(ctx context.Context, courseID, id string) (Section, error)
		// QuerySections returns the sections of a course ordered by position.
		QuerySections(ctx context.Context, courseID string, publishedOnly bool) ([]Section, error)
		SetSectionPositions(ctx context.Context, positions map[string]int) error

		CreateResource(ctx context.Context, r Resource) (Resource, error)
		DeleteResource(ctx context.Context, sectionID, id string) error
		QueryResources(ctx context.Context, sectionID string) ([]Resource, error)

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, sectionID, id string) error
		QueryQuestions(ctx context.Context, sectionID string) ([]Question, error)
	}

	// CourseFilter is what repositories filter courses on.
	CourseFilter struct {
		QueryFilter
		InstructorID  string
		PublishedOnly bool
	}

	Service interface {
		// authoring: every call is scoped to the courses owned by ownerID
		Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error)
		Update(ctx context.Context, ownerID, courseID string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ownerID, courseID string) error
		Publish(ctx context.Context, ownerID, courseID string) (Course, error)
		GetOwned(ctx context.Context, ownerID, courseID string) (Course, error)
		QueryOwned(ctx context.Context, ownerID string) ([]Course, error)

		AddSection(ctx context.Context, ownerID, courseID string, ns NewSection) (Section, error)
		UpdateSection(ctx context.Context, ownerID, courseID, sectionID string, us UpdateSection) (Section, error)
		DeleteSection(ctx context.Context, ownerID, courseID, sectionID string) error
		PublishSection(ctx context.Context, ownerID, courseID, sectionID string) (Section, error)
		ReorderSections(ctx context.Context, ownerID, courseID string, rs ReorderSections) ([]Section, error)

		AddResource(ctx context.Context, ownerID, courseID, sectionID string, nr NewResource) (Resource, error)
		DeleteResource(ctx context.Context, ownerID, courseID, sectionID, resourceID string) error
		AddQuestion(ctx context.Context, ownerID, courseID, sectionID string, nq NewQuestion) (Question, error)
		DeleteQuestion(ctx context.Context, ownerID, courseID, sectionID, questionID string) error

		// catalog: only published content
		GetPublished(ctx context.Context, courseID string) (Course, error)
		QueryPublished(ctx context.Context, filter QueryFilter, ords []core.DBOrdering) ([]Course, error)
		GetPublishedSection(ctx context.Context, courseID, sectionID string) (Section, error)
		GetPublishedSections(ctx context.Context, courseID string) ([]Section, error)
		GetResources(ctx context.Context, sectionID string) ([]Resource, error)
		GetQuestions(ctx context.Context, sectionID string) ([]Question, error)
	}

	service struct {
		tx       core.Transactor
		repo     Repository
		videoSvc core.VideoService
	}
)

var _ Service = (*service)(nil)

func NewService(tx core.Transactor, repo Repository, videoSvc core.VideoService) Service {
	return &service{tx: tx, repo: repo, videoSvc: videoSvc}
}

func (svc *service) getOwned(ctx context.Context, ownerID, courseID string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.InstructorID != ownerID {
		return Course{}, core.ErrNotFound
	}
	return c, nil
}

func (svc *service) getOwnedSection(ctx context.Context, ownerID, courseID, sectionID string) (Section, error) {
	if _, err := svc.getOwned(ctx, ownerID, courseID); err != nil {
		return Section{}, err
	}
	return svc.repo.GetSection(ctx, courseID, sectionID)
}

func (svc *service) Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error) {
	now := core.NowFunc()
	return svc.repo.CreateCourse(ctx, Course{
		ID:            uuid.NewString(),
		InstructorID:  ownerID,
		Title:         nc.Title,
		CategoryID:    nc.CategoryID,
		SubCategoryID: nc.SubCategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *service) Update(ctx context.Context, ownerID, courseID string, uc UpdateCourse) (Course, error) {
	c, err := svc.getOwned(ctx, ownerID, courseID)
	if err != nil {
		return Course{}, err
	}
	uc.apply(&c)
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) Delete(ctx context.Context, ownerID, courseID string) error {
	if _, err := svc.getOwned(ctx, ownerID, courseID); err != nil {
		return err
	}
	sections, err := svc.repo.QuerySections(ctx, courseID, false)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	for _, s := range sections {
		if s.VideoAssetID == "" {
			continue
		}
		if err = svc.videoSvc.DeleteAsset(ctx, s.VideoAssetID); err != nil {
			return errors.Wrapf(err, "deleting video asset of section %s", s.ID)
		}
	}
	return svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return svc.repo.DeleteCourse(ctx, courseID)
	})
}

func (svc *service) Publish(ctx context.Context, ownerID, courseID string) (Course, error) {
	c, err := svc.getOwned(ctx, ownerID, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.IsPublished {
		return c, nil
	}
	published, err := svc.repo.QuerySections(ctx, courseID, true)
	if err != nil {
		return Course{}, errors.Wrap(err, "querying published sections")
	}
	if err = CheckPublishable(c, len(published)); err != nil {
		return Course{}, err
	}
	c.IsPublished = true
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) GetOwned(ctx context.Context, ownerID, courseID string) (Course, error) {
	c, err := svc.getOwned(ctx, ownerID, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.Sections, err = svc.repo.QuerySections(ctx, courseID, false); err != nil {
		return Course{}, errors.Wrap(err, "querying sections")
	}
	return c, nil
}

func (svc *service) QueryOwned(ctx context.Context, ownerID string) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, CourseFilter{InstructorID: ownerID}, []core.DBOrdering{{Field: "created_at"}})
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].Sections, err = svc.repo.QuerySections(ctx, courses[i].ID, false); err != nil {
			return nil, errors.Wrap(err, "querying sections")
		}
	}
	return courses, nil
}

func (svc *service) AddSection(ctx context.Context, ownerID, courseID string, ns NewSection) (Section, error) {
	var s Section
	err := svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := svc.getOwned(ctx, ownerID, courseID); err != nil {
			return err
		}
		sections, err := svc.repo.QuerySections(ctx, courseID, false)
		if err != nil {
			return errors.Wrap(err, "querying sections")
		}
		pos := 0
		if n := len(sections); n > 0 {
			pos = sections[n-1].Position + 1
		}

		now := core.NowFunc()
		s, err = svc.repo.CreateSection(ctx, Section{
			ID:        uuid.NewString(),
			CourseID:  courseID,
			Title:     ns.Title,
			Position:  pos,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	return s, err
}

func (svc *service) UpdateSection(ctx context.Context, ownerID, courseID, sectionID string, us UpdateSection) (Section, error) {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return Section{}, err
	}
	setIfNotNil(&s.Title, us.Title)
	setIfNotNil(&s.Description, us.Description)
	if us.IsFree != nil {
		s.IsFree = *us.IsFree
	}

	prevAssetID := ""
	if us.VideoURL != nil && *us.VideoURL != s.VideoURL {
		prevAssetID = s.VideoAssetID
		s.VideoURL = *us.VideoURL
		s.VideoAssetID, s.VideoPlaybackID = "", ""
		if s.VideoURL != "" {
			asset, err := svc.videoSvc.CreateAsset(ctx, s.VideoURL)
			if err != nil {
				return Section{}, errors.Wrap(err, "creating video asset")
			}
			s.VideoAssetID, s.VideoPlaybackID = asset.AssetID, asset.PlaybackID
		}
	}

	s.UpdatedAt = core.NowFunc()
	upd, err := svc.repo.UpdateSection(ctx, s)
	if err != nil {
		if s.VideoAssetID != "" && s.VideoAssetID != prevAssetID {
			_ = svc.videoSvc.DeleteAsset(ctx, s.VideoAssetID) // the row never referenced it
		}
		return Section{}, err
	}
	// the row no longer references the previous asset
	if prevAssetID != "" {
		if err = svc.videoSvc.DeleteAsset(ctx, prevAssetID); err != nil {
			return Section{}, errors.Wrap(err, "deleting previous video asset")
		}
	}
	return upd, nil
}

func (svc *service) DeleteSection(ctx context.Context, ownerID, courseID, sectionID string) error {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return err
	}
	if s.VideoAssetID != "" {
		if err = svc.videoSvc.DeleteAsset(ctx, s.VideoAssetID); err != nil {
			return errors.Wrap(err, "deleting video asset")
		}
	}

	return svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := svc.repo.DeleteSection(ctx, s.ID); err != nil {
			return err
		}
		// compact the remaining positions
		sections, err := svc.repo.QuerySections(ctx, courseID, false)
		if err != nil {
			return errors.Wrap(err, "querying sections")
		}
		positions := make(map[string]int)
		for i, rest := range sections {
			if rest.Position != i {
				positions[rest.ID] = i
			}
		}
		return svc.repo.SetSectionPositions(ctx, positions)
	})
}

func (svc *service) PublishSection(ctx context.Context, ownerID, courseID, sectionID string) (Section, error) {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return Section{}, err
	}
	if s.IsPublished {
		return s, nil
	}
	if err = CheckSectionPublishable(s); err != nil {
		return Section{}, err
	}
	s.IsPublished = true
	s.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateSection(ctx, s)
}

// ReorderSections applies all the new positions or none of them.
func (svc *service) ReorderSections(ctx context.Context, ownerID, courseID string, rs ReorderSections) ([]Section, error) {
	var sections []Section
	err := svc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := svc.getOwned(ctx, ownerID, courseID); err != nil {
			return err
		}
		current, err := svc.repo.QuerySections(ctx, courseID, false)
		if err != nil {
			return errors.Wrap(err, "querying sections")
		}

		final := make(map[string]int, len(current))
		for _, s := range current {
			final[s.ID] = s.Position
		}
		positions := make(map[string]int, len(rs.List))
		for _, sp := range rs.List {
			if _, ok := final[sp.ID]; !ok {
				return core.ErrNotFound
			}
			final[sp.ID] = sp.Position
			positions[sp.ID] = sp.Position
		}

		// positions must stay unique across the whole course
		taken := make(map[int]bool, len(final))
		for _, pos := range final {
			if taken[pos] {
				return core.NewValidationError(errDuplicatePosition, core.FieldError{Field: "list", Error: errDuplicatePosition.Error()})
			}
			taken[pos] = true
		}

		if err = svc.repo.SetSectionPositions(ctx, positions); err != nil {
			return err
		}
		sections, err = svc.repo.QuerySections(ctx, courseID, false)
		return err
	})
	return sections, err
}

func (svc *service) AddResource(ctx context.Context, ownerID, courseID, sectionID string, nr NewResource) (Resource, error) {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return Resource{}, err
	}
	return svc.repo.CreateResource(ctx, Resource{
		ID:        uuid.NewString(),
		SectionID: s.ID,
		Name:      nr.Name,
		FileURL:   nr.FileURL,
		CreatedAt: core.NowFunc(),
	})
}

func (svc *service) DeleteResource(ctx context.Context, ownerID, courseID, sectionID, resourceID string) error {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteResource(ctx, s.ID, resourceID)
}

func (svc *service) AddQuestion(ctx context.Context, ownerID, courseID, sectionID string, nq NewQuestion) (Question, error) {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return Question{}, err
	}
	return svc.repo.CreateQuestion(ctx, Question{
		ID:        uuid.NewString(),
		SectionID: s.ID,
		Text:      nq.Text,
		Options:   nq.Options,
		Answer:    nq.Answer,
		CreatedAt: core.NowFunc(),
	})
}

func (svc *service) DeleteQuestion(ctx context.Context, ownerID, courseID, sectionID, questionID string) error {
	s, err := svc.getOwnedSection(ctx, ownerID, courseID, sectionID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteQuestion(ctx, s.ID, questionID)
}

func (svc *service) GetPublished(ctx context.Context, courseID string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if !c.IsPublished {
		return Course{}, core.ErrNotFound
	}
	return c, nil
}

func (svc *service) QueryPublished(ctx context.Context, filter QueryFilter, ords []core.DBOrdering) ([]Course, error) {
	ords = core.CleanOrderings(ords, OrderingFields, DefaultOrdering)
	return svc.repo.QueryCourses(ctx, CourseFilter{QueryFilter: filter, PublishedOnly: true}, ords)
}

func (svc *service) GetPublishedSection(ctx context.Context, courseID, sectionID string) (Section, error) {
	s, err := svc.repo.GetSection(ctx, courseID, sectionID)
	if err != nil {
		return Section{}, err
	}
	if !s.IsPublished {
		return Section{}, core.ErrNotFound
	}
	return s, nil
}

func (svc *service) GetPublishedSections(ctx context.Context, courseID string) ([]Section, error) {
	return svc.repo.QuerySections(ctx, courseID, true)
}

func (svc *service) GetResources(ctx context.Context, sectionID string) ([]Resource, error) {
	return svc.repo.QueryResources(ctx, sectionID)
}

func (svc *service) GetQuestions(ctx context.Context, sectionID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, sectionID)
}
