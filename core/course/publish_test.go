package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeCourse() Course {
	return Course{
		Title:         "Go",
		Description:   "Learn Go",
		ImageURL:      "https://img.test/go.png",
		Price:         20,
		CategoryID:    "dev",
		SubCategoryID: "backend",
		LevelID:       "beginner",
	}
}

func TestCheckPublishable(t *testing.T) {
	tests := []struct {
		name              string
		edit              func(c *Course)
		publishedSections int
		wantMissing       []string
	}{
		{name: "complete", publishedSections: 1},
		{name: "no published section", wantMissing: []string{"published_section"}},
		{name: "free price", edit: func(c *Course) { c.Price = 0 }, publishedSections: 1, wantMissing: []string{"price"}},
		{name: "blank title", edit: func(c *Course) { c.Title = "  " }, publishedSections: 1, wantMissing: []string{"title"}},
		{
			name: "empty draft",
			edit: func(c *Course) { *c = Course{Title: "Draft"} },
			wantMissing: []string{
				"description", "category_id", "subcategory_id", "level_id", "image_url", "price", "published_section",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completeCourse()
			if tt.edit != nil {
				tt.edit(&c)
			}
			err := CheckPublishable(c, tt.publishedSections)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			var incErr *IncompleteError
			require.ErrorAs(t, err, &incErr)
			assert.Equal(t, tt.wantMissing, incErr.Missing)
			assert.Greater(t, len(incErr.Missing), 0)
		})
	}
}

func TestIncompleteError_Error(t *testing.T) {
	err := &IncompleteError{Entity: "course", Missing: []string{"price", "level_id"}}
	assert.Equal(t, "course is incomplete: 2 missing requirement(s)", err.Error())
}

func TestCheckSectionPublishable(t *testing.T) {
	err := CheckSectionPublishable(Section{Title: "Intro", Description: "Hello", VideoURL: "https://v.test/1.mp4"})
	assert.NoError(t, err)

	err = CheckSectionPublishable(Section{Title: "Intro"})
	var incErr *IncompleteError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, "section", incErr.Entity)
	assert.Equal(t, []string{"description", "video_url"}, incErr.Missing)
	assert.Equal(t, "section is incomplete: 2 missing requirement(s)", err.Error())
}
