package course

import (
	"fmt"
	"strings"
)

// IncompleteError lists the requirements a Course or a Section misses to be published.
type IncompleteError struct {
	Entity  string
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s is incomplete: %d missing requirement(s)", e.Entity, len(e.Missing))
}

// CheckPublishable applies the publish gate to c.
// publishedSections is the number of published sections c currently has.
func CheckPublishable(c Course, publishedSections int) error {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check(notBlank(c.Title), "title")
	check(notBlank(c.Description), "description")
	check(notBlank(c.CategoryID), "category_id")
	check(notBlank(c.SubCategoryID), "subcategory_id")
	check(notBlank(c.LevelID), "level_id")
	check(notBlank(c.ImageURL), "image_url")
	check(c.Price > 0, "price")
	check(publishedSections > 0, "published_section")

	if len(missing) > 0 {
		return &IncompleteError{Entity: "course", Missing: missing}
	}
	return nil
}

func CheckSectionPublishable(s Section) error {
	var missing []string
	if !notBlank(s.Title) {
		missing = append(missing, "title")
	}
	if !notBlank(s.Description) {
		missing = append(missing, "description")
	}
	if !notBlank(s.VideoURL) {
		missing = append(missing, "video_url")
	}
	if len(missing) > 0 {
		return &IncompleteError{Entity: "section", Missing: missing}
	}
	return nil
}

func notBlank(s string) bool { return strings.TrimSpace(s) != "" }
