package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

type Course struct {
	ID            string    `json:"id"`
	InstructorID  string    `json:"instructor_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Price         float64   `json:"price"`
	CategoryID    string    `json:"category_id"`
	SubCategoryID string    `json:"subcategory_id"`
	LevelID       string    `json:"level_id"`
	IsPublished   bool      `json:"is_published"`
	IsFree        bool      `json:"is_free"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
	Sections      []Section `json:"sections,omitempty"`
}

type Section struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Position        int       `json:"position"`
	IsPublished     bool      `json:"is_published"`
	IsFree          bool      `json:"is_free"`
	VideoURL        string    `json:"video_url"`
	VideoAssetID    string    `json:"-"`
	VideoPlaybackID string    `json:"video_playback_id"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// Outline is the part of a Section anyone allowed to see the course may see.
type Outline struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	IsFree      bool   `json:"is_free"`
}

func (s Section) Outline() Outline {
	return Outline{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Position:    s.Position,
		IsFree:      s.IsFree,
	}
}

type Resource struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id"`
	Name      string    `json:"name"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Question struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id"`
	Text      string    `json:"text"`
	Options   []string  `json:"options"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewCourse contains information needed to create a draft Course.
type NewCourse struct {
	Title         string `json:"title" validate:"required"`
	CategoryID    string `json:"category_id" validate:"required,alphanum_"`
	SubCategoryID string `json:"subcategory_id" validate:"required,alphanum_"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.CategoryID = core.CleanString(nc.CategoryID)
	nc.SubCategoryID = core.CleanString(nc.SubCategoryID)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Nil fields are left unchanged.
type UpdateCourse struct {
	Title         *string  `json:"title" validate:"omitempty,notblank_"`
	Description   *string  `json:"description"`
	ImageURL      *string  `json:"image_url" validate:"omitempty,url"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	CategoryID    *string  `json:"category_id" validate:"omitempty,alphanum_"`
	SubCategoryID *string  `json:"subcategory_id" validate:"omitempty,alphanum_"`
	LevelID       *string  `json:"level_id" validate:"omitempty,alphanum_"`
	IsFree        *bool    `json:"is_free"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	cleanPtr(uc.Title, uc.Description, uc.ImageURL, uc.CategoryID, uc.SubCategoryID, uc.LevelID)
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	setIfNotNil(&c.Title, uc.Title)
	setIfNotNil(&c.Description, uc.Description)
	setIfNotNil(&c.ImageURL, uc.ImageURL)
	setIfNotNil(&c.CategoryID, uc.CategoryID)
	setIfNotNil(&c.SubCategoryID, uc.SubCategoryID)
	setIfNotNil(&c.LevelID, uc.LevelID)
	if uc.Price != nil {
		c.Price = *uc.Price
	}
	if uc.IsFree != nil {
		c.IsFree = *uc.IsFree
	}
}

type NewSection struct {
	Title string `json:"title" validate:"required"`
}

func (ns *NewSection) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	return validate.Struct(ns)
}

type UpdateSection struct {
	Title       *string `json:"title" validate:"omitempty,notblank_"`
	Description *string `json:"description"`
	IsFree      *bool   `json:"is_free"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
}

func (us *UpdateSection) Validate(validate *validator.Validate) error {
	cleanPtr(us.Title, us.Description, us.VideoURL)
	return validate.Struct(us)
}

type SectionPosition struct {
	ID       string `json:"id" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

type ReorderSections struct {
	List []SectionPosition `json:"list" validate:"required,min=1,dive"`
}

func (rs *ReorderSections) Validate(validate *validator.Validate) error {
	if err := validate.Struct(rs); err != nil {
		return err
	}
	seen := make(map[int]bool, len(rs.List))
	for _, sp := range rs.List {
		if seen[sp.Position] {
			return core.NewValidationError(errDuplicatePosition, core.FieldError{Field: "list", Error: errDuplicatePosition.Error()})
		}
		seen[sp.Position] = true
	}
	return nil
}

// NewResource attaches a file or a link to a Section. Link takes precedence over FileURL.
type NewResource struct {
	Name    string `json:"name" validate:"required,min=2"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
	Link    string `json:"link" validate:"omitempty,url"`
}

func (nr *NewResource) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.FileURL = core.CleanString(nr.FileURL)
	nr.Link = core.CleanString(nr.Link)
	if err := validate.Struct(nr); err != nil {
		return err
	}
	if nr.Link != "" {
		nr.FileURL = nr.Link
	}
	if nr.FileURL == "" {
		return core.NewValidationError(errFileRequired, core.FieldError{Field: "file_url", Error: errFileRequired.Error()})
	}
	return nil
}

type NewQuestion struct {
	Text    string   `json:"text" validate:"required"`
	Options []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	Answer  string   `json:"answer" validate:"required"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	nq.Answer = core.CleanString(nq.Answer)
	for i := range nq.Options {
		nq.Options[i] = core.CleanString(nq.Options[i])
	}
	return validate.Struct(nq)
}

// QueryFilter narrows the published catalog. Search matches the title, case-insensitively.
type QueryFilter struct {
	Search     string `query:"search"`
	CategoryID string `query:"category_id"`
	LevelID    string `query:"level_id"`
	IsFree     *bool  `query:"is_free"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CategoryID = core.CleanString(qf.CategoryID)
	qf.LevelID = core.CleanString(qf.LevelID)
}

var (
	OrderingFields  = []string{"title", "price", "created_at", "updated_at"}
	DefaultOrdering = core.DBOrdering{Field: "updated_at"}
)

func cleanPtr(ptrs ...*string) {
	for _, p := range ptrs {
		if p != nil {
			*p = core.CleanString(*p)
		}
	}
}

func setIfNotNil(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
