package gormrepos

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *gorm.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *gorm.DB) *courseRepository {
	return &courseRepository{db: db}
}

// Courses

func (repo courseRepository) toCourseRow(c course.Course) *courseRow {
	return &courseRow{
		ID:            c.ID,
		InstructorID:  c.InstructorID,
		Title:         c.Title,
		Description:   nullString(c.Description),
		ImageURL:      nullString(c.ImageURL),
		Price:         c.Price,
		CategoryID:    nullString(c.CategoryID),
		SubCategoryID: nullString(c.SubCategoryID),
		LevelID:       nullString(c.LevelID),
		IsPublished:   c.IsPublished,
		IsFree:        c.IsFree,
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) fromCourseRow(row *courseRow) course.Course {
	return course.Course{
		ID:            row.ID,
		InstructorID:  row.InstructorID,
		Title:         row.Title,
		Description:   row.Description.String,
		ImageURL:      row.ImageURL.String,
		Price:         row.Price,
		CategoryID:    row.CategoryID.String,
		SubCategoryID: row.SubCategoryID.String,
		LevelID:       row.LevelID.String,
		IsPublished:   row.IsPublished,
		IsFree:        row.IsFree,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := repo.toCourseRow(c)
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return course.Course{}, errors.Wrap(translateErr(err), "creating course")
	}
	return repo.fromCourseRow(row), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := repo.toCourseRow(c)
	res := getDB(ctx, repo.db).Model(row).Select("*").Omit("id", "instructor_id", "created_at").Updates(row)
	if res.Error != nil {
		return course.Course{}, errors.Wrap(translateErr(res.Error), "updating course")
	}
	if res.RowsAffected == 0 {
		return course.Course{}, core.ErrNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	db := getDB(ctx, repo.db)
	sectionIDs := db.Model(&sectionRow{}).Select("id").Where("course_id = ?", id)

	for _, model := range []interface{}{&questionRow{}, &resourceRow{}, &progressRow{}} {
		if err := db.Where("section_id IN (?)", sectionIDs).Delete(model).Error; err != nil {
			return errors.Wrap(translateErr(err), "deleting section contents")
		}
	}
	if err := db.Where("course_id = ?", id).Delete(&sectionRow{}).Error; err != nil {
		return errors.Wrap(translateErr(err), "deleting sections")
	}
	if err := db.Where("course_id = ?", id).Delete(&purchaseRow{}).Error; err != nil {
		return errors.Wrap(translateErr(err), "deleting purchases")
	}

	res := db.Where("id = ?", id).Delete(&courseRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting course")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := getDB(ctx, repo.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return course.Course{}, errors.Wrap(translateErr(err), "getting course")
	}
	return repo.fromCourseRow(&row), nil
}

// likeEscaper escapes the LIKE wildcards of user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.CourseFilter, ords []core.DBOrdering) ([]course.Course, error) {
	q := getDB(ctx, repo.db).Model(&courseRow{})
	if filter.InstructorID != "" {
		q = q.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.PublishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if filter.Search != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(filter.Search))+"%")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.LevelID != "" {
		q = q.Where("level_id = ?", filter.LevelID)
	}
	if filter.IsFree != nil {
		q = q.Where("is_free = ?", *filter.IsFree)
	}
	for _, ord := range ords {
		q = q.Order(ord.String())
	}
	q = q.Order("id ASC") // stable pages

	var rows []courseRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for i := range rows {
		courses = append(courses, repo.fromCourseRow(&rows[i]))
	}
	return courses, nil
}

// Sections

func (repo courseRepository) toSectionRow(s course.Section) *sectionRow {
	return &sectionRow{
		ID:              s.ID,
		CourseID:        s.CourseID,
		Title:           s.Title,
		Description:     nullString(s.Description),
		Position:        s.Position,
		IsPublished:     s.IsPublished,
		IsFree:          s.IsFree,
		VideoURL:        nullString(s.VideoURL),
		VideoAssetID:    nullString(s.VideoAssetID),
		VideoPlaybackID: nullString(s.VideoPlaybackID),
		CreatedAt:       s.CreatedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) fromSectionRow(row *sectionRow) course.Section {
	return course.Section{
		ID:              row.ID,
		CourseID:        row.CourseID,
		Title:           row.Title,
		Description:     row.Description.String,
		Position:        row.Position,
		IsPublished:     row.IsPublished,
		IsFree:          row.IsFree,
		VideoURL:        row.VideoURL.String,
		VideoAssetID:    row.VideoAssetID.String,
		VideoPlaybackID: row.VideoPlaybackID.String,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) CreateSection(ctx context.Context, s course.Section) (course.Section, error) {
	row := repo.toSectionRow(s)
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return course.Section{}, errors.Wrap(translateErr(err), "creating section")
	}
	return repo.fromSectionRow(row), nil
}

func (repo courseRepository) UpdateSection(ctx context.Context, s course.Section) (course.Section, error) {
	row := repo.toSectionRow(s)
	res := getDB(ctx, repo.db).Model(row).Select("*").Omit("id", "course_id", "position", "created_at").Updates(row)
	if res.Error != nil {
		return course.Section{}, errors.Wrap(translateErr(res.Error), "updating section")
	}
	if res.RowsAffected == 0 {
		return course.Section{}, core.ErrNotFound
	}
	return repo.GetSection(ctx, s.CourseID, s.ID)
}

func (repo courseRepository) DeleteSection(ctx context.Context, id string) error {
	db := getDB(ctx, repo.db)
	for _, model := range []interface{}{&questionRow{}, &resourceRow{}, &progressRow{}} {
		if err := db.Where("section_id = ?", id).Delete(model).Error; err != nil {
			return errors.Wrap(translateErr(err), "deleting section contents")
		}
	}
	res := db.Where("id = ?", id).Delete(&sectionRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting section")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo courseRepository) GetSection(ctx context.Context, courseID, id string) (course.Section, error) {
	var row sectionRow
	if err := getDB(ctx, repo.db).Where("id = ? AND course_id = ?", id, courseID).Take(&row).Error; err != nil {
		return course.Section{}, errors.Wrap(translateErr(err), "getting section")
	}
	return repo.fromSectionRow(&row), nil
}

func (repo courseRepository) QuerySections(ctx context.Context, courseID string, publishedOnly bool) ([]course.Section, error) {
	q := getDB(ctx, repo.db).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}

	var rows []sectionRow
	if err := q.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying sections")
	}
	sections := make([]course.Section, 0, len(rows))
	for i := range rows {
		sections = append(sections, repo.fromSectionRow(&rows[i]))
	}
	return sections, nil
}

func (repo courseRepository) SetSectionPositions(ctx context.Context, positions map[string]int) error {
	db := getDB(ctx, repo.db)
	now := core.NowFunc()
	for id, pos := range positions {
		res := db.Model(&sectionRow{}).Where("id = ?", id).Updates(map[string]interface{}{"position": pos, "updated_at": now})
		if res.Error != nil {
			return errors.Wrap(translateErr(res.Error), "setting section position")
		}
		if res.RowsAffected == 0 {
			return core.ErrNotFound
		}
	}
	return nil
}

// Resources

func (repo courseRepository) fromResourceRow(row *resourceRow) course.Resource {
	return course.Resource{
		ID:        row.ID,
		SectionID: row.SectionID,
		Name:      row.Name,
		FileURL:   row.FileURL,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo courseRepository) CreateResource(ctx context.Context, r course.Resource) (course.Resource, error) {
	row := &resourceRow{
		ID:        r.ID,
		SectionID: r.SectionID,
		Name:      r.Name,
		FileURL:   r.FileURL,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return course.Resource{}, errors.Wrap(translateErr(err), "creating resource")
	}
	return repo.fromResourceRow(row), nil
}

func (repo courseRepository) DeleteResource(ctx context.Context, sectionID, id string) error {
	res := getDB(ctx, repo.db).Where("id = ? AND section_id = ?", id, sectionID).Delete(&resourceRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting resource")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo courseRepository) QueryResources(ctx context.Context, sectionID string) ([]course.Resource, error) {
	var rows []resourceRow
	if err := getDB(ctx, repo.db).Where("section_id = ?", sectionID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying resources")
	}
	resources := make([]course.Resource, 0, len(rows))
	for i := range rows {
		resources = append(resources, repo.fromResourceRow(&rows[i]))
	}
	return resources, nil
}

// Questions

func (repo courseRepository) fromQuestionRow(row *questionRow) (course.Question, error) {
	q := course.Question{
		ID:        row.ID,
		SectionID: row.SectionID,
		Text:      row.Text,
		Answer:    row.Answer,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(row.Options, &q.Options); err != nil {
		return course.Question{}, errors.Wrap(err, "decoding question options")
	}
	return q, nil
}

func (repo courseRepository) CreateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return course.Question{}, errors.Wrap(err, "encoding question options")
	}
	row := &questionRow{
		ID:        q.ID,
		SectionID: q.SectionID,
		Text:      q.Text,
		Options:   opts,
		Answer:    q.Answer,
		CreatedAt: q.CreatedAt.UTC(),
	}
	if err = getDB(ctx, repo.db).Create(row).Error; err != nil {
		return course.Question{}, errors.Wrap(translateErr(err), "creating question")
	}
	return repo.fromQuestionRow(row)
}

func (repo courseRepository) DeleteQuestion(ctx context.Context, sectionID, id string) error {
	res := getDB(ctx, repo.db).Where("id = ? AND section_id = ?", id, sectionID).Delete(&questionRow{})
	if res.Error != nil {
		return errors.Wrap(translateErr(res.Error), "deleting question")
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo courseRepository) QueryQuestions(ctx context.Context, sectionID string) ([]course.Question, error) {
	var rows []questionRow
	if err := getDB(ctx, repo.db).Where("section_id = ?", sectionID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(translateErr(err), "querying questions")
	}
	questions := make([]course.Question, 0, len(rows))
	for i := range rows {
		q, err := repo.fromQuestionRow(&rows[i])
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}
